package domain

import "time"

type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the assistant conversation. A failed answer is
// kept with OK=false and its failure reason as Content.
type ChatMessage struct {
	ID        int64     `db:"id"`
	Role      ChatRole  `db:"role"`
	Content   string    `db:"content"`
	OK        bool      `db:"ok"`
	CreatedAt time.Time `db:"created_at"`
}

func (m ChatMessage) FromUser() bool { return m.Role == ChatUser }
