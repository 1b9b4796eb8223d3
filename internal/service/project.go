package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/projectdesk/projectdesk/internal/cache"
	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/repository"
	"github.com/projectdesk/projectdesk/internal/storage"
)

// Project errors.
var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvalidProjectName = errors.New("invalid project name")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrNotProjectOwner    = errors.New("only the project owner may do this")
	ErrNotProjectMember   = errors.New("not a member of this project")
	ErrNotSelf            = errors.New("cannot access another user's projects")
	ErrAlreadyParticipant = errors.New("user is already a participant")
	ErrNotParticipant     = errors.New("user is not a participant")
)

const (
	maxProjectNameLength = 200
	maxDescriptionLength = 2000
)

// ActivityRecorder enqueues feed events.
type ActivityRecorder interface {
	Record(event *model.ActivityEvent)
}

type noopActivity struct{}

func (noopActivity) Record(*model.ActivityEvent) {}

// ProjectService handles project business logic.
type ProjectService struct {
	repo     *repository.Repository
	cache    *cache.Cache
	store    *storage.Store
	activity ActivityRecorder
	metrics  metrics.Recorder
}

// NewProjectService creates a new ProjectService.
func NewProjectService(repo *repository.Repository, cache *cache.Cache, store *storage.Store, activity ActivityRecorder, recorder metrics.Recorder) *ProjectService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if activity == nil {
		activity = noopActivity{}
	}
	return &ProjectService{
		repo:     repo,
		cache:    cache,
		store:    store,
		activity: activity,
		metrics:  recorder,
	}
}

// CreateProjectInput defines input for creating a project.
type CreateProjectInput struct {
	Name        string
	Description string
}

// Create creates a project owned by the acting user.
func (s *ProjectService) Create(ctx context.Context, ownerID int64, input CreateProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.validateName(name); err != nil {
		return nil, err
	}
	if err := s.validateDescription(input.Description); err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:         name,
		Description:  input.Description,
		OwnerID:      ownerID,
		Participants: []int64{},
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.metrics.IncProjectCreated()
	s.activity.Record(&model.ActivityEvent{
		ProjectID: project.ID,
		ActorID:   ownerID,
		Action:    model.ActivityProjectCreated,
		Detail:    project.Name,
	})

	return project, nil
}

// Get retrieves a project visible to the acting user. Missing projects
// are reported before membership, so non-members cannot probe which
// IDs exist.
func (s *ProjectService) Get(ctx context.Context, actorID, projectID int64) (*model.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !project.IsMember(actorID) {
		return nil, ErrNotProjectMember
	}

	return project, nil
}

// ListForUser lists projects where the given user is owner or
// participant. Users may only list their own projects.
func (s *ProjectService) ListForUser(ctx context.Context, actorID, userID int64) ([]*model.Project, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if actorID != userID {
		return nil, ErrNotSelf
	}

	projects, err := s.repo.ListProjectsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProjectInput defines input for updating a project. Nil fields
// are left unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// Update modifies a project's name and description. Owner only.
func (s *ProjectService) Update(ctx context.Context, actorID, projectID int64, input UpdateProjectInput) (*model.Project, error) {
	project, err := s.getForOwner(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	name := project.Name
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if err := s.validateName(name); err != nil {
			return nil, err
		}
	}

	description := project.Description
	if input.Description != nil {
		description = *input.Description
		if err := s.validateDescription(description); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateProject(ctx, projectID, name, description)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.metrics.IncProjectUpdated()
	s.invalidate(ctx, projectID)
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityProjectUpdated,
		Detail:    updated.Name,
	})

	return updated, nil
}

// Delete soft-deletes a project and removes its documents. Owner only.
// Blob removal is best effort; the database rows go first.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID int64) error {
	project, err := s.getForOwner(ctx, actorID, projectID)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	storageKeys, err := s.repo.DeleteDocumentsByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project documents: %w", err)
	}
	for _, key := range storageKeys {
		if err := s.store.Delete(key); err != nil {
			_ = err // orphaned blobs are reclaimable offline
		}
	}

	s.metrics.IncProjectDeleted()
	s.invalidate(ctx, projectID)
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityProjectDeleted,
		Detail:    project.Name,
	})

	return nil
}

// AddParticipant adds a user to the project's participant list. Owner
// only. The owner is already a member and cannot be added again.
func (s *ProjectService) AddParticipant(ctx context.Context, actorID, projectID, userID int64) (*model.Project, error) {
	project, err := s.getForOwner(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if project.IsMember(userID) {
		return nil, ErrAlreadyParticipant
	}

	participants := append(append([]int64{}, project.Participants...), userID)
	updated, err := s.repo.SetParticipants(ctx, projectID, participants)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	s.metrics.IncParticipantAdded()
	s.invalidate(ctx, projectID)
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityMemberAdded,
		Detail:    fmt.Sprintf("user:%d", userID),
	})

	return updated, nil
}

// RemoveParticipant removes a user from the participant list. Owner only.
func (s *ProjectService) RemoveParticipant(ctx context.Context, actorID, projectID, userID int64) (*model.Project, error) {
	project, err := s.getForOwner(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	if !project.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	participants := make([]int64, 0, len(project.Participants))
	for _, id := range project.Participants {
		if id != userID {
			participants = append(participants, id)
		}
	}

	updated, err := s.repo.SetParticipants(ctx, projectID, participants)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to remove participant: %w", err)
	}

	s.metrics.IncParticipantRemoved()
	s.invalidate(ctx, projectID)
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityMemberRemoved,
		Detail:    fmt.Sprintf("user:%d", userID),
	})

	return updated, nil
}

// loadProject fetches a project cache-first, backfilling on miss.
func (s *ProjectService) loadProject(ctx context.Context, projectID int64) (*model.Project, error) {
	cached, err := s.cache.GetProject(ctx, projectID)
	if err == nil {
		s.metrics.IncProjectCacheHit()
		return cached, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncProjectCacheMiss()
		isNegative, _ := s.cache.IsNegativelyCached(ctx, projectID)
		if isNegative {
			return nil, ErrProjectNotFound
		}
	}
	// On a Redis error fall through to the database.

	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			_ = s.cache.SetNegativeCache(ctx, projectID)
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := s.cache.SetProject(ctx, project); err != nil {
		_ = err // cache backfill is best effort
	}

	return project, nil
}

// getForOwner loads a project from the database and checks the actor
// owns it. Mutations always read the authoritative row.
func (s *ProjectService) getForOwner(ctx context.Context, actorID, projectID int64) (*model.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if !project.IsOwner(actorID) {
		return nil, ErrNotProjectOwner
	}

	return project, nil
}

// invalidate drops cached copies of a project.
func (s *ProjectService) invalidate(ctx context.Context, projectID int64) {
	if err := s.cache.DeleteProject(ctx, projectID); err != nil {
		_ = err // stale entries expire on their own
	}
}

// validateName validates a trimmed project name.
func (s *ProjectService) validateName(name string) error {
	if name == "" || len(name) > maxProjectNameLength {
		return ErrInvalidProjectName
	}
	return nil
}

// validateDescription bounds the description length.
func (s *ProjectService) validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
