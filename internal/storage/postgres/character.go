package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// CreateCharacter adds a character to its world.
func (s *Store) CreateCharacter(ctx context.Context, c *world.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.insertEntity(ctx, &c.Entity, world.KindCharacter); err != nil {
			return err
		}
		_, err := s.q(ctx).Exec(ctx,
			`INSERT INTO characters (entity_id, user_name, personality, carry_limit, hp, max_hp, position_id, previous_position_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.User, c.Personality, c.CarryLimit, c.HP, c.MaxHP,
			nullable(c.PositionID), nullable(c.PreviousPositionID))
		if err != nil {
			return fmt.Errorf("inserting character: %w", err)
		}
		return nil
	})
}

const characterSelect = `SELECT e.id, e.world_id, e.kind, e.appearance, e.description,
	c.user_name, c.personality, c.carry_limit, c.hp, c.max_hp, c.position_id, c.previous_position_id
	FROM characters c JOIN entities e ON e.id = c.entity_id`

func (s *Store) scanCharacterRows(ctx context.Context, rows pgx.Rows) ([]*world.Character, error) {
	defer rows.Close()
	var chars []*world.Character
	for rows.Next() {
		var c world.Character
		var pos, prev *uuid.UUID
		err := rows.Scan(&c.ID, &c.WorldID, &c.Kind, &c.Appearance, &c.Description,
			&c.User, &c.Personality, &c.CarryLimit, &c.HP, &c.MaxHP, &pos, &prev)
		if err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		c.PositionID = fromNullable(pos)
		c.PreviousPositionID = fromNullable(prev)
		chars = append(chars, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range chars {
		if err := s.loadNamesAndTags(ctx, &c.Entity); err != nil {
			return nil, err
		}
	}
	return chars, nil
}

// Character returns the character with the given entity ID.
func (s *Store) Character(ctx context.Context, id uuid.UUID) (*world.Character, error) {
	rows, err := s.q(ctx).Query(ctx, characterSelect+` WHERE c.entity_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying character: %w", err)
	}
	chars, err := s.scanCharacterRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("character %s: %w", id, world.ErrNotFound)
	}
	return chars[0], nil
}

// SaveCharacter persists a character's position and hit points.
func (s *Store) SaveCharacter(ctx context.Context, c *world.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE characters SET hp = $2, position_id = $3, previous_position_id = $4 WHERE entity_id = $1`,
		c.ID, c.HP, nullable(c.PositionID), nullable(c.PreviousPositionID))
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %s: %w", c.ID, world.ErrNotFound)
	}
	return nil
}

// CharactersAt returns the characters positioned at a location.
func (s *Store) CharactersAt(ctx context.Context, locationID uuid.UUID) ([]*world.Character, error) {
	rows, err := s.q(ctx).Query(ctx, characterSelect+` WHERE c.position_id = $1 ORDER BY e.seq`, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	return s.scanCharacterRows(ctx, rows)
}

// CharactersIn returns a world's characters in insertion order.
func (s *Store) CharactersIn(ctx context.Context, worldID uuid.UUID) ([]*world.Character, error) {
	rows, err := s.q(ctx).Query(ctx, characterSelect+` WHERE e.world_id = $1 ORDER BY e.seq`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	return s.scanCharacterRows(ctx, rows)
}
