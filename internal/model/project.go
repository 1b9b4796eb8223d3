package model

import (
	"strconv"
	"strings"
	"time"
)

// Project represents a workspace owned by one user and shared with
// zero or more participants.
type Project struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	OwnerID      int64      `json:"owner_id"`
	Participants []int64    `json:"participants"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID int64) bool {
	return p.OwnerID == userID
}

// HasParticipant reports whether userID is listed as a participant.
// The owner is not implicitly a participant.
func (p *Project) HasParticipant(userID int64) bool {
	for _, id := range p.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID may access the project, either as
// the owner or as a participant.
func (p *Project) IsMember(userID int64) bool {
	return p.IsOwner(userID) || p.HasParticipant(userID)
}

// CachedProject represents project data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedProject struct {
	Name         string `redis:"name"`
	Description  string `redis:"description"`
	OwnerID      string `redis:"owner_id"`
	Participants string `redis:"participants"` // comma-separated IDs or empty
	CreatedAt    string `redis:"created_at"`   // Unix timestamp
	UpdatedAt    string `redis:"updated_at"`   // Unix timestamp
}

// ToProject converts CachedProject back to the domain model.
func (c *CachedProject) ToProject(id int64) *Project {
	project := &Project{
		ID:           id,
		Name:         c.Name,
		Description:  c.Description,
		Participants: parseIDList(c.Participants),
	}

	if ownerID, err := strconv.ParseInt(c.OwnerID, 10, 64); err == nil {
		project.OwnerID = ownerID
	}

	if c.CreatedAt != "" {
		if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
			project.CreatedAt = time.Unix(ts, 0).UTC()
		}
	}

	if c.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
			project.UpdatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return project
}

// ToCachedProject converts the domain model to its Redis hash form.
func (p *Project) ToCachedProject() *CachedProject {
	return &CachedProject{
		Name:         p.Name,
		Description:  p.Description,
		OwnerID:      strconv.FormatInt(p.OwnerID, 10),
		Participants: formatIDList(p.Participants),
		CreatedAt:    strconv.FormatInt(p.CreatedAt.Unix(), 10),
		UpdatedAt:    strconv.FormatInt(p.UpdatedAt.Unix(), 10),
	}
}

func parseIDList(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func formatIDList(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
