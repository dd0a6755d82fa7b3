package project

import (
	"context"
	"errors"
	"log/slog"

	"collabhub/internal/auth"
	"collabhub/internal/events"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidStatus        = errors.New("invalid project status")
	ErrOwnProject           = errors.New("you cannot apply to your own project")
	ErrDuplicateApplication = errors.New("you have already applied to this project")
	ErrAlreadyMember        = errors.New("student is already on the team")
)

type Service interface {
	CreateProject(ctx context.Context, principal *auth.Principal, req CreateRequest) (*Project, error)
	GetProject(ctx context.Context, id int) (*Detail, error)
	ListProjects(ctx context.Context, principal *auth.Principal) ([]Summary, error)
	ListCreatedBy(ctx context.Context, principal *auth.Principal) ([]Summary, error)
	ListParticipating(ctx context.Context, principal *auth.Principal) ([]Summary, error)
	UpdateProject(ctx context.Context, id int, principal *auth.Principal, req UpdateRequest) error
	DeleteProject(ctx context.Context, id int, principal *auth.Principal) error
	DeleteProjectAsAdmin(ctx context.Context, id int, principal *auth.Principal) error
	Apply(ctx context.Context, projectID int, principal *auth.Principal) (*Application, error)
	ListApplications(ctx context.Context, projectID int, principal *auth.Principal) ([]ApplicationView, error)
	AcceptApplication(ctx context.Context, principal *auth.Principal, req AcceptRequest) error
}

type service struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService builds the lifecycle and application-workflow service.
// publisher may be nil; events are then skipped.
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) CreateProject(ctx context.Context, principal *auth.Principal, req CreateRequest) (*Project, error) {
	if principal == nil {
		return nil, ErrForbidden
	}
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	project := &Project{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     principal.StudentID,
	}

	skills := make([]RequiredSkill, 0, len(req.RequiredSkills))
	for _, input := range req.RequiredSkills {
		skills = append(skills, RequiredSkill{
			SkillID:             input.SkillID,
			RequiredProficiency: input.RequiredProficiency,
		})
	}

	if err := s.repo.CreateWithSkills(ctx, project, skills); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProjectCreated{
		Type:      events.TypeProjectCreated,
		ProjectID: project.ID,
		OwnerID:   project.OwnerID,
	})

	return project, nil
}

func (s *service) GetProject(ctx context.Context, id int) (*Detail, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// ListProjects self-filters for an authenticated caller: projects already
// applied to or joined are dropped from the listing. Guests see everything.
func (s *service) ListProjects(ctx context.Context, principal *auth.Principal) ([]Summary, error) {
	if principal == nil {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListActionable(ctx, principal.StudentID)
}

func (s *service) ListCreatedBy(ctx context.Context, principal *auth.Principal) ([]Summary, error) {
	if principal == nil {
		return nil, ErrForbidden
	}
	return s.repo.ListCreatedBy(ctx, principal.StudentID)
}

func (s *service) ListParticipating(ctx context.Context, principal *auth.Principal) ([]Summary, error) {
	if principal == nil {
		return nil, ErrForbidden
	}
	return s.repo.ListParticipating(ctx, principal.StudentID)
}

// UpdateProject re-validates ownership on every call; the owner never
// changes after creation, so the check stays trivially correct.
func (s *service) UpdateProject(ctx context.Context, id int, principal *auth.Principal, req UpdateRequest) error {
	if !req.Status.Valid() {
		return ErrInvalidStatus
	}

	snapshot, err := s.repo.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	if !IsOwner(principal, snapshot) {
		return ErrForbidden
	}

	return s.repo.Update(ctx, &Project{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
}

func (s *service) DeleteProject(ctx context.Context, id int, principal *auth.Principal) error {
	snapshot, err := s.repo.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	if !IsOwner(principal, snapshot) {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// DeleteProjectAsAdmin bypasses the ownership check but still requires the
// project to exist.
func (s *service) DeleteProjectAsAdmin(ctx context.Context, id int, principal *auth.Principal) error {
	if !CanAdminDelete(principal) {
		return ErrForbidden
	}

	if _, err := s.repo.GetProject(ctx, id); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

func (s *service) Apply(ctx context.Context, projectID int, principal *auth.Principal) (*Application, error) {
	if principal == nil {
		return nil, ErrForbidden
	}

	snapshot, err := s.repo.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if IsOwner(principal, snapshot) {
		return nil, ErrOwnProject
	}
	if !CanApply(principal, snapshot) {
		return nil, ErrForbidden
	}

	application := &Application{
		ProjectID: projectID,
		StudentID: principal.StudentID,
	}
	// Duplicate submissions surface here as a uniqueness violation from the
	// storage layer, including concurrent ones.
	if err := s.repo.CreateApplication(ctx, application); err != nil {
		return nil, err
	}

	return application, nil
}

func (s *service) ListApplications(ctx context.Context, projectID int, principal *auth.Principal) ([]ApplicationView, error) {
	snapshot, err := s.repo.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanManageApplications(principal, snapshot) {
		return nil, ErrForbidden
	}

	return s.repo.ListApplications(ctx, projectID)
}

func (s *service) AcceptApplication(ctx context.Context, principal *auth.Principal, req AcceptRequest) error {
	if principal == nil {
		return ErrForbidden
	}

	application, err := s.repo.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return err
	}

	snapshot, err := s.repo.Snapshot(ctx, application.ProjectID)
	if err != nil {
		return err
	}
	if !CanManageApplications(principal, snapshot) {
		return ErrForbidden
	}

	// The repository re-checks ownership inside the same transaction as the
	// membership insert.
	accepted, err := s.repo.AcceptApplication(ctx, req.ApplicationID, req.Role, principal.StudentID)
	if err != nil {
		return err
	}

	s.publish(ctx, events.ApplicationAccepted{
		Type:        events.TypeApplicationAccepted,
		ProjectID:   accepted.ProjectID,
		ApplicantID: accepted.StudentID,
		Role:        req.Role,
	})

	return nil
}

func (s *service) publish(ctx context.Context, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "error", err)
	}
}
