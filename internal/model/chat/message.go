package chat

import "time"

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// Role tags the author of a turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a session's conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// HumanTurn records a message typed by the user.
func HumanTurn(content string) Turn {
	return Turn{Role: RoleHuman, Content: content, CreatedAt: time.Now().UTC()}
}

// AssistantTurn records a completed model reply.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
}
