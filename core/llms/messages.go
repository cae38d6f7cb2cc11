package llms

// Role describes who a conversation turn belongs to.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single turn taken in the conversation. In a user's turn the
// content is the utterance, in an assistant's turn it is the response.
type Turn struct {
	Role    Role
	Content string
}

// Response is a single response from an LLM.
type Response struct {
	Content string
}
