// Package journal records every command a character attempts: the raw input,
// whether it succeeded, and the resulting message.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoEntries is returned when a character has no matching log entries.
var ErrNoEntries = errors.New("no log entries")

// Entry is one immutable command record. Entries are appended once and
// never mutated or deleted by the game core.
type Entry struct {
	// ID is the storage-assigned sequence number, ascending in arrival order.
	ID int64
	// CharacterID is the acting character's entity ID.
	CharacterID uuid.UUID
	// Raw is the player's input line, unmodified.
	Raw string
	// Success reports whether the command succeeded.
	Success bool
	// Message is the player-facing result text.
	Message string
	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time
}

// Journal is the append-only command log.
type Journal interface {
	// Append records an entry, assigning ID and CreatedAt.
	Append(ctx context.Context, e *Entry) error
	// LastSuccess returns a character's most recent successful entry.
	LastSuccess(ctx context.Context, characterID uuid.UUID) (*Entry, error)
	// LastFailure returns a character's most recent failed entry.
	LastFailure(ctx context.Context, characterID uuid.UUID) (*Entry, error)
	// History returns a character's last n entries in arrival order
	// (oldest first). n <= 0 means all entries.
	History(ctx context.Context, characterID uuid.UUID, n int) ([]*Entry, error)
}

// Memory is an in-memory Journal.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	entries []*Entry
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// Append records an entry.
func (m *Memory) Append(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

// LastSuccess returns the most recent successful entry for a character.
func (m *Memory) LastSuccess(ctx context.Context, characterID uuid.UUID) (*Entry, error) {
	return m.lastWhere(characterID, true)
}

// LastFailure returns the most recent failed entry for a character.
func (m *Memory) LastFailure(ctx context.Context, characterID uuid.UUID) (*Entry, error) {
	return m.lastWhere(characterID, false)
}

func (m *Memory) lastWhere(characterID uuid.UUID, success bool) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.CharacterID == characterID && e.Success == success {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNoEntries
}

// History returns the last n entries for a character, oldest first.
func (m *Memory) History(ctx context.Context, characterID uuid.UUID, n int) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Entry
	for _, e := range m.entries {
		if e.CharacterID == characterID {
			cp := *e
			all = append(all, &cp)
		}
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
