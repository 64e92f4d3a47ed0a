package world

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CopyWorld duplicates an existing world under a new name and owner,
// re-linking every location, path, block, character, and item into the new
// namespace. Copied characters lose their user binding and become NPCs.
// The copy runs inside one Atomic section.
//
// Postcondition: Returns the new world, or a non-nil error with no partial
// copy visible in a transactional store.
func CopyWorld(ctx context.Context, store Store, sourceID uuid.UUID, newName, newOwner string) (*World, error) {
	var out *World
	err := store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := store.World(ctx, sourceID); err != nil {
			return fmt.Errorf("source world: %w", err)
		}

		w := &World{Name: newName, Owner: newOwner}
		if err := store.CreateWorld(ctx, w); err != nil {
			return fmt.Errorf("creating world copy: %w", err)
		}

		locIDs, err := copyLocations(ctx, store, sourceID, w)
		if err != nil {
			return err
		}
		pathIDs, err := copyPaths(ctx, store, sourceID, w, locIDs)
		if err != nil {
			return err
		}
		charIDs, err := copyCharacters(ctx, store, sourceID, w, locIDs)
		if err != nil {
			return err
		}
		itemIDs, keys, err := copyItems(ctx, store, sourceID, w, locIDs, charIDs)
		if err != nil {
			return err
		}
		if err := copyBlocks(ctx, store, sourceID, w, pathIDs, itemIDs, keys); err != nil {
			return err
		}

		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func copyEntity(e Entity, worldID uuid.UUID) Entity {
	cp := e
	cp.ID = uuid.Nil
	cp.WorldID = worldID
	cp.Names = append([]Name(nil), e.Names...)
	cp.Tags = append([]string(nil), e.Tags...)
	return cp
}

func copyLocations(ctx context.Context, store Store, sourceID uuid.UUID, w *World) (map[uuid.UUID]uuid.UUID, error) {
	locs, err := store.LocationsIn(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(locs))
	for _, l := range locs {
		cp := &Location{Entity: copyEntity(l.Entity, w.ID), Category: l.Category, Clue: l.Clue}
		if err := store.CreateLocation(ctx, cp); err != nil {
			return nil, fmt.Errorf("copying location %q: %w", l.Name(), err)
		}
		ids[l.ID] = cp.ID
	}
	return ids, nil
}

func copyPaths(ctx context.Context, store Store, sourceID uuid.UUID, w *World, locIDs map[uuid.UUID]uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	paths, err := store.PathsIn(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(paths))
	for _, p := range paths {
		cp := &Path{
			WorldID:      w.ID,
			StartID:      locIDs[p.StartID],
			EndID:        locIDs[p.EndID],
			Preposition:  p.Preposition,
			Noun:         p.Noun,
			Hidden:       p.Hidden,
			Discoverable: p.Discoverable,
		}
		if err := store.CreatePath(ctx, cp); err != nil {
			return nil, fmt.Errorf("copying path %q: %w", p.Label(), err)
		}
		ids[p.ID] = cp.ID
	}
	return ids, nil
}

func copyCharacters(ctx context.Context, store Store, sourceID uuid.UUID, w *World, locIDs map[uuid.UUID]uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	chars, err := store.CharactersIn(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(chars))
	for _, c := range chars {
		cp := &Character{
			Entity:      copyEntity(c.Entity, w.ID),
			Personality: c.Personality,
			CarryLimit:  c.CarryLimit,
			HP:          c.HP,
			MaxHP:       c.MaxHP,
			PositionID:  locIDs[c.PositionID],
		}
		if prev, ok := locIDs[c.PreviousPositionID]; ok {
			cp.PreviousPositionID = prev
		}
		if err := store.CreateCharacter(ctx, cp); err != nil {
			return nil, fmt.Errorf("copying character %q: %w", c.Name(), err)
		}
		ids[c.ID] = cp.ID
	}
	return ids, nil
}

// copyItems duplicates items and returns the old-to-new ID mapping plus the
// new key items that still point at old block IDs, keyed by old block ID.
func copyItems(ctx context.Context, store Store, sourceID uuid.UUID, w *World, locIDs, charIDs map[uuid.UUID]uuid.UUID) (map[uuid.UUID]uuid.UUID, map[uuid.UUID]*Item, error) {
	items, err := store.ItemsIn(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(items))
	keys := make(map[uuid.UUID]*Item)
	for _, i := range items {
		cp := &Item{
			Entity:            copyEntity(i.Entity, w.ID),
			WeightKG:          i.WeightKG,
			Value:             i.Value,
			Attack:            i.Attack,
			Defense:           i.Defense,
			Message:           i.Message,
			UnlockDescription: i.UnlockDescription,
			CarrierID:         charIDs[i.CarrierID],
			PositionID:        locIDs[i.PositionID],
		}
		if err := store.CreateItem(ctx, cp); err != nil {
			return nil, nil, fmt.Errorf("copying item %q: %w", i.Name(), err)
		}
		ids[i.ID] = cp.ID
		if i.IsKey() {
			keys[i.UnlocksID] = cp
		}
	}
	return ids, keys, nil
}

func copyBlocks(ctx context.Context, store Store, sourceID uuid.UUID, w *World, pathIDs, itemIDs map[uuid.UUID]uuid.UUID, keys map[uuid.UUID]*Item) error {
	blocks, err := store.BlocksIn(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		cp := &Block{
			Entity:       copyEntity(b.Entity, w.ID),
			Active:       b.Active,
			UnlockedByID: itemIDs[b.UnlockedByID],
		}
		for _, pid := range b.PathIDs {
			cp.PathIDs = append(cp.PathIDs, pathIDs[pid])
		}
		if err := store.CreateBlock(ctx, cp); err != nil {
			return fmt.Errorf("copying block %q: %w", b.Name(), err)
		}
		if key, ok := keys[b.ID]; ok {
			key.UnlocksID = cp.ID
			if err := store.SaveItem(ctx, key); err != nil {
				return fmt.Errorf("re-linking key %q: %w", key.Name(), err)
			}
		}
	}
	return nil
}
