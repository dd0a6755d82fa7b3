package events

import "context"

// Publisher delivers domain events to the configured broker (NATS or Kafka).
// A nil Publisher is allowed everywhere; event delivery is best-effort and
// never blocks a request from succeeding.
type Publisher interface {
	Publish(ctx context.Context, event interface{}) error
	Close() error
}

const (
	TypeApplicationAccepted = "application.accepted"
	TypeMessagePosted       = "chat.message_posted"
	TypeProjectCreated      = "project.created"
)

type ApplicationAccepted struct {
	Type        string `json:"type"`
	ProjectID   int    `json:"projectId"`
	ApplicantID int    `json:"applicantId"`
	Role        string `json:"role"`
}

type MessagePosted struct {
	Type      string `json:"type"`
	ProjectID int    `json:"projectId"`
	SenderID  int    `json:"senderId"`
	MessageID int    `json:"messageId"`
}

type ProjectCreated struct {
	Type      string `json:"type"`
	ProjectID int    `json:"projectId"`
	OwnerID   int    `json:"ownerId"`
}
