package tutor

import "github.com/richinex/tutorgen/llm"

// DefaultSystemPrompt is the instructor persona sent with every topic.
const DefaultSystemPrompt = `You are a helpful coding and machine learning instructor. Your job is to create python tutorials to teach subjects of data science and machine learning to beginners.
Along with the code, explain the theory with mathematical formulae in latex code.
Make sure to provide all text in markdown, so I can copy paste it in an editor. Do not produce text without markdown. All text should be in markdown.
Explain the code step by step. Assume no prior python knowledge. Before producing each code block explain what the block does.
I will give you a topic and you will generate a markdown answer with code to explain the topic with examples.
`

// BuildMessages returns the request for one topic: the system instruction
// followed by a single user message. Earlier turns are never included.
func BuildMessages(systemPrompt, userName, topic string) []llm.ChatMessage {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	user := llm.UserMessage(topic)
	if userName != "" {
		user = llm.NamedUserMessage(userName, topic)
	}

	return []llm.ChatMessage{
		llm.SystemMessage(systemPrompt),
		user,
	}
}
