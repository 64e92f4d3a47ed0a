package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// CreateItem adds an item to its world.
func (s *Store) CreateItem(ctx context.Context, i *world.Item) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.insertEntity(ctx, &i.Entity, world.KindItem); err != nil {
			return err
		}
		_, err := s.q(ctx).Exec(ctx,
			`INSERT INTO items (entity_id, weight_kg, value, attack, defense, message, unlocks, unlock_description, carrier_id, position_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			i.ID, i.WeightKG, i.Value, i.Attack, i.Defense, i.Message,
			nullable(i.UnlocksID), i.UnlockDescription, nullable(i.CarrierID), nullable(i.PositionID))
		if err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}
		return nil
	})
}

const itemSelect = `SELECT e.id, e.world_id, e.kind, e.appearance, e.description,
	i.weight_kg, i.value, i.attack, i.defense, i.message, i.unlocks, i.unlock_description, i.carrier_id, i.position_id
	FROM items i JOIN entities e ON e.id = i.entity_id`

func (s *Store) scanItemRows(ctx context.Context, rows pgx.Rows) ([]*world.Item, error) {
	defer rows.Close()
	var items []*world.Item
	for rows.Next() {
		var it world.Item
		var unlocks, carrier, position *uuid.UUID
		err := rows.Scan(&it.ID, &it.WorldID, &it.Kind, &it.Appearance, &it.Description,
			&it.WeightKG, &it.Value, &it.Attack, &it.Defense, &it.Message,
			&unlocks, &it.UnlockDescription, &carrier, &position)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.UnlocksID = fromNullable(unlocks)
		it.CarrierID = fromNullable(carrier)
		it.PositionID = fromNullable(position)
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := s.loadNamesAndTags(ctx, &it.Entity); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Item returns the item with the given entity ID.
func (s *Store) Item(ctx context.Context, id uuid.UUID) (*world.Item, error) {
	rows, err := s.q(ctx).Query(ctx, itemSelect+` WHERE i.entity_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	items, err := s.scanItemRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item %s: %w", id, world.ErrNotFound)
	}
	return items[0], nil
}

// SaveItem persists an item's holder and unlock linkage.
func (s *Store) SaveItem(ctx context.Context, i *world.Item) error {
	if err := i.Validate(); err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE items SET carrier_id = $2, position_id = $3, unlocks = $4, unlock_description = $5 WHERE entity_id = $1`,
		i.ID, nullable(i.CarrierID), nullable(i.PositionID), nullable(i.UnlocksID), i.UnlockDescription)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", i.ID, world.ErrNotFound)
	}
	return nil
}

// ItemsAt returns the items lying at a location.
func (s *Store) ItemsAt(ctx context.Context, locationID uuid.UUID) ([]*world.Item, error) {
	rows, err := s.q(ctx).Query(ctx, itemSelect+` WHERE i.position_id = $1 ORDER BY e.seq`, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	return s.scanItemRows(ctx, rows)
}

// ItemsCarriedBy returns the items a character is carrying.
func (s *Store) ItemsCarriedBy(ctx context.Context, characterID uuid.UUID) ([]*world.Item, error) {
	rows, err := s.q(ctx).Query(ctx, itemSelect+` WHERE i.carrier_id = $1 ORDER BY e.seq`, characterID)
	if err != nil {
		return nil, fmt.Errorf("querying carried items: %w", err)
	}
	return s.scanItemRows(ctx, rows)
}

// ItemsIn returns a world's items in insertion order.
func (s *Store) ItemsIn(ctx context.Context, worldID uuid.UUID) ([]*world.Item, error) {
	rows, err := s.q(ctx).Query(ctx, itemSelect+` WHERE e.world_id = $1 ORDER BY e.seq`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	return s.scanItemRows(ctx, rows)
}
