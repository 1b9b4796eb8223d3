package dto

import (
	"time"

	"github.com/projectdesk/projectdesk/internal/model"
)

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectRequest represents the request body for updating a project.
// Omitted fields keep their current value.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddParticipantRequest represents the request body for adding a participant.
type AddParticipantRequest struct {
	UserID int64 `json:"user_id"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      int64     `json:"owner_id"`
	Participants []int64   `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToProjectResponse converts a Project model to ProjectResponse DTO.
func ToProjectResponse(project *model.Project) *ProjectResponse {
	participants := project.Participants
	if participants == nil {
		participants = []int64{}
	}
	return &ProjectResponse{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		OwnerID:      project.OwnerID,
		Participants: participants,
		CreatedAt:    project.CreatedAt,
		UpdatedAt:    project.UpdatedAt,
	}
}

// ToProjectResponses converts a slice of Project models.
func ToProjectResponses(projects []*model.Project) []ProjectResponse {
	responses := make([]ProjectResponse, len(projects))
	for i, project := range projects {
		responses[i] = *ToProjectResponse(project)
	}
	return responses
}
