package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/projectdesk/projectdesk/internal/activity"
	"github.com/projectdesk/projectdesk/internal/model"
)

// ErrInvalidAction reports an unknown activity action filter.
var ErrInvalidAction = errors.New("unknown activity action")

// ActivityService serves the project activity feed.
type ActivityService struct {
	feed     *activity.Repository
	projects *ProjectService
}

// NewActivityService creates a new ActivityService.
func NewActivityService(feed *activity.Repository, projects *ProjectService) *ActivityService {
	return &ActivityService{
		feed:     feed,
		projects: projects,
	}
}

// FeedInput defines input for reading a project's feed.
type FeedInput struct {
	ProjectID int64
	Limit     int
	Actions   []model.ActivityAction
}

// Feed returns recent events for a project, newest first. Visible to
// project members only.
func (s *ActivityService) Feed(ctx context.Context, actorID int64, input FeedInput) ([]*model.ActivityEvent, error) {
	for _, action := range input.Actions {
		if !action.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action)
		}
	}

	if _, err := s.projects.Get(ctx, actorID, input.ProjectID); err != nil {
		return nil, err
	}

	events, err := s.feed.ListByProject(ctx, input.ProjectID, input.Limit, input.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return events, nil
}
