// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"

	"github.com/richinex/tutorgen/model"
)

// ConversationStorage defines the interface for storing conversation history.
// Implementations can use different backends (memory, database).
type ConversationStorage interface {
	// Save saves conversation history for a session, replacing what was stored.
	Save(ctx context.Context, sessionID string, history model.History) error

	// Load loads conversation history for a session.
	// Returns empty history (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) (model.History, error)

	// Delete deletes conversation history for a session.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// Summaries lists every session with its turn count, in ListSessions order.
	Summaries(ctx context.Context) ([]SessionSummary, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Close releases the backend.
	Close() error
}

// SessionSummary describes a stored session without loading its turns.
type SessionSummary struct {
	ID    string
	Turns int
}
