// Package llm provides shared data models for LLM providers.
package llm

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"` // Optional participant name (OpenAI-compatible APIs only)
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NamedUserMessage creates a user message tagged with a participant name.
func NamedUserMessage(name, content string) ChatMessage {
	return ChatMessage{
		Role:    RoleUser,
		Content: content,
		Name:    name,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// splitSystem separates the system instruction from the conversation messages.
// Anthropic and Gemini take the system prompt out of band.
func splitSystem(messages []ChatMessage) ([]ChatMessage, string) {
	var rest []ChatMessage
	var system string
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return rest, system
}
