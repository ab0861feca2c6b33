// README: Conversation turn shared by the pipeline stages.
package types

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one immutable entry of a conversation, ordered by CreatedAt.
type Turn struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// LatestUserTurn returns the most recent user turn and its index, or -1.
func LatestUserTurn(history []Turn) (Turn, int) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i], i
		}
	}
	return Turn{}, -1
}
