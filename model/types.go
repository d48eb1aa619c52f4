// Package model provides domain types shared across packages.
package model

// Turn is one question/answer exchange in a conversation.
// Used by the tutor for dispatch and by storage for persistence.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// History is an ordered, append-only sequence of turns.
// The caller owns it and passes it explicitly into every call.
type History []Turn

// Last returns the most recent turn.
// Returns false if the history is empty.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// Append returns the history with turn added at the end.
func (h History) Append(turn Turn) History {
	return append(h, turn)
}

// Clone returns a copy that shares no backing array with h.
func (h History) Clone() History {
	copied := make(History, len(h))
	copy(copied, h)
	return copied
}
