package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenbrook/lowfi-mmo/internal/game/journal"
)

// Append records a command log entry, assigning ID and CreatedAt from the
// database.
func (s *Store) Append(ctx context.Context, e *journal.Entry) error {
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO character_logs (character_id, raw, success, message)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		e.CharacterID, e.Raw, e.Success, e.Message).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

// LastSuccess returns a character's most recent successful entry.
func (s *Store) LastSuccess(ctx context.Context, characterID uuid.UUID) (*journal.Entry, error) {
	return s.lastWhere(ctx, characterID, true)
}

// LastFailure returns a character's most recent failed entry.
func (s *Store) LastFailure(ctx context.Context, characterID uuid.UUID) (*journal.Entry, error) {
	return s.lastWhere(ctx, characterID, false)
}

func (s *Store) lastWhere(ctx context.Context, characterID uuid.UUID, success bool) (*journal.Entry, error) {
	var e journal.Entry
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, character_id, raw, success, message, created_at
		 FROM character_logs WHERE character_id = $1 AND success = $2
		 ORDER BY id DESC LIMIT 1`, characterID, success).
		Scan(&e.ID, &e.CharacterID, &e.Raw, &e.Success, &e.Message, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, journal.ErrNoEntries
	}
	if err != nil {
		return nil, fmt.Errorf("querying log entry: %w", err)
	}
	return &e, nil
}

// History returns a character's last n entries in arrival order, oldest
// first. n <= 0 means all entries.
func (s *Store) History(ctx context.Context, characterID uuid.UUID, n int) ([]*journal.Entry, error) {
	sql := `SELECT id, character_id, raw, success, message, created_at
		FROM character_logs WHERE character_id = $1 ORDER BY id DESC`
	args := []any{characterID}
	if n > 0 {
		sql += ` LIMIT $2`
		args = append(args, n)
	}
	rows, err := s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		var e journal.Entry
		err := rows.Scan(&e.ID, &e.CharacterID, &e.Raw, &e.Success, &e.Message, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Flip newest-first into arrival order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
