package core

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// WelcomeMessage opens every conversation.
const WelcomeMessage = "Welcome to your expense tracker! You can add expenses by typing or using the voice button."

// Role identifies who authored a chat message.
type Role string

// ChatMessage is one entry in the conversation log.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
