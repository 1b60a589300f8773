package valueobjects

// ChatRole of a transcript message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one entry of a node's chat transcript. The transcript is
// stored and returned as-is; nothing in the engine interprets it.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// Valid reports whether the role is one of the known roles.
func (m ChatMessage) Valid() bool {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}
