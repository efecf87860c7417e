package convo

import (
	"time"

	"taskdesk/internal/task"
)

type Role int

const (
	RoleUser Role = iota
	RoleSystem
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Kind is a presentation hint for the host. It never changes after append.
type Kind int

const (
	KindPlain Kind = iota
	KindThinking
	KindSubtaskStart
	KindSubtaskResult
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindThinking:
		return "thinking"
	case KindSubtaskStart:
		return "subtask-start"
	case KindSubtaskResult:
		return "subtask-result"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

type Message struct {
	ID        string
	Role      Role
	Kind      Kind
	Text      string
	CreatedAt time.Time
	// Origin is set only on the final message of an expansion.
	Origin *task.Outcome
}
