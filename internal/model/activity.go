package model

import "time"

// ActivityAction identifies what happened to a project.
type ActivityAction string

const (
	ActivityProjectCreated   ActivityAction = "project.created"
	ActivityProjectUpdated   ActivityAction = "project.updated"
	ActivityProjectDeleted   ActivityAction = "project.deleted"
	ActivityMemberAdded      ActivityAction = "member.added"
	ActivityMemberRemoved    ActivityAction = "member.removed"
	ActivityDocumentUploaded ActivityAction = "document.uploaded"
	ActivityDocumentDeleted  ActivityAction = "document.deleted"
)

// IsValid checks if the action is one of the known activity actions.
func (a ActivityAction) IsValid() bool {
	switch a {
	case ActivityProjectCreated, ActivityProjectUpdated, ActivityProjectDeleted,
		ActivityMemberAdded, ActivityMemberRemoved,
		ActivityDocumentUploaded, ActivityDocumentDeleted:
		return true
	}
	return false
}

// ActivityEvent is one entry in a project's activity feed. Events are
// recorded asynchronously; a dropped event is acceptable, a blocked
// request is not.
type ActivityEvent struct {
	ID         int64          `json:"id"`
	ProjectID  int64          `json:"project_id"`
	ActorID    int64          `json:"actor_id"`
	Action     ActivityAction `json:"action"`
	Detail     string         `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
