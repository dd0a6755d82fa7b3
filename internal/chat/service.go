package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"collabhub/internal/auth"
	"collabhub/internal/events"
	"collabhub/internal/project"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrEmptyMessage = errors.New("message text cannot be empty")
)

// Snapshotter loads the membership state the gate decides on. Satisfied by
// project.Repository.
type Snapshotter interface {
	Snapshot(ctx context.Context, projectID int) (project.Snapshot, error)
}

type Service interface {
	ListMessages(ctx context.Context, projectID int, principal *auth.Principal) ([]MessageView, error)
	PostMessage(ctx context.Context, projectID int, principal *auth.Principal, req PostMessageRequest) (*Message, error)
}

type service struct {
	repo      Repository
	projects  Snapshotter
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, projects Snapshotter, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		projects:  projects,
		publisher: publisher,
		logger:    logger,
	}
}

// ListMessages gates on a fresh membership snapshot; reads and writes use the
// same predicate family, so nobody can read a channel they cannot post to and
// vice versa.
func (s *service) ListMessages(ctx context.Context, projectID int, principal *auth.Principal) ([]MessageView, error) {
	snapshot, err := s.projects.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanViewChat(principal, snapshot) {
		return nil, ErrForbidden
	}

	return s.repo.ListByProject(ctx, projectID)
}

func (s *service) PostMessage(ctx context.Context, projectID int, principal *auth.Principal, req PostMessageRequest) (*Message, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyMessage
	}

	snapshot, err := s.projects.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanPostMessage(principal, snapshot) {
		return nil, ErrForbidden
	}

	message := &Message{
		ProjectID: projectID,
		SenderID:  principal.StudentID,
		Text:      req.Text,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.publish(ctx, events.MessagePosted{
		Type:      events.TypeMessagePosted,
		ProjectID: projectID,
		SenderID:  principal.StudentID,
		MessageID: message.ID,
	})

	return message, nil
}

func (s *service) publish(ctx context.Context, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "error", err)
	}
}
