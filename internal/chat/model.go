package chat

import (
	"time"

	"github.com/uptrace/bun"
)

// Message is one chat entry on a project's team channel.
type Message struct {
	bun.BaseModel `bun:"table:project_messages,alias:m"`

	ID        int       `bun:"id,pk,autoincrement" json:"message_id"`
	ProjectID int       `bun:"project_id,notnull" json:"project_id"`
	SenderID  int       `bun:"sender_id,notnull" json:"sender_id"`
	Text      string    `bun:"message_text,notnull" json:"message_text"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"timestamp"`
}

// MessageView is a message joined with the sender's identity.
type MessageView struct {
	MessageID int       `json:"message_id"`
	ProjectID int       `json:"project_id"`
	SenderID  int       `json:"sender_id"`
	FirstName string    `json:"f_name"`
	LastName  string    `json:"l_name"`
	Text      string    `json:"message_text"`
	Timestamp time.Time `json:"timestamp"`
}

type PostMessageRequest struct {
	Text string `json:"message_text" validate:"required"`
}
