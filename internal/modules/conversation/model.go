// README: Conversation and message aggregates for the chat history.
package conversation

import (
	"time"

	"github.com/google/uuid"

	"wayfarer/internal/types"
)

// Message types carried alongside the role.
const (
	TypeText  = "text"
	TypeError = "error"
)

// AnonymousOwner owns conversations created without caller authentication.
const AnonymousOwner = "anonymous"

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is immutable once stored.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	Role           types.Role `json:"role"`
	Content        string     `json:"content"`
	MessageType    string     `json:"message_type"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Turn drops the storage fields.
func (m Message) Turn() types.Turn {
	return types.Turn{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
}

// Turns converts an ordered history.
func Turns(msgs []Message) []types.Turn {
	out := make([]types.Turn, len(msgs))
	for i, m := range msgs {
		out[i] = m.Turn()
	}
	return out
}
