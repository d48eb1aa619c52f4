// Package tutor turns topics into instructor replies and saves replies as
// Quarto documents.
//
// Information Hiding:
// - Prompt construction hidden behind Ask
// - Save-vs-chat dispatch decided once, by ParseCommand
// - File naming and fence rewriting hidden behind Persister
package tutor

import "strings"

// Command is what the user asked for on one turn: Chat or Save.
type Command interface {
	isCommand()
}

// Chat asks the tutor about a topic.
type Chat struct {
	Text string
}

// Save writes the most recent answer to disk.
type Save struct{}

func (Chat) isCommand() {}
func (Save) isCommand() {}

// ParseCommand classifies raw input. Input equal to saveCommand (after
// trimming surrounding whitespace) is a Save; anything else is a Chat.
func ParseCommand(input, saveCommand string) Command {
	text := strings.TrimSpace(input)
	if text == strings.TrimSpace(saveCommand) {
		return Save{}
	}
	return Chat{Text: text}
}
