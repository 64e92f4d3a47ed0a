package engine

import (
	"context"
	"errors"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// use applies a carried item to a named target entity. The only effectual
// combination is a key used on the block it unlocks; everything else fails
// with a precondition message.
func (e *Engine) use(ctx context.Context, char *world.Character, itemName, targetName string) (Result, error) {
	carried, err := e.store.ItemsCarriedBy(ctx, char.ID)
	if err != nil {
		return Result{}, err
	}
	item := world.MatchItem(carried, itemName)
	if item == nil {
		return fail("You are not carrying an item named \"%s.\"", itemName), nil
	}

	target, err := e.store.ResolveEntity(ctx, char.WorldID, targetName)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) {
			return fail("There is no entity named \"%s\" nearby.", targetName), nil
		}
		return Result{}, err
	}
	nearby, err := e.targetNearby(ctx, char, target)
	if err != nil {
		return Result{}, err
	}
	if !nearby {
		return fail("There is no entity named \"%s\" nearby.", targetName), nil
	}

	if item.IsKey() {
		if block, ok := target.(*world.Block); ok {
			return e.unblock(ctx, item, block)
		}
	}
	return fail("%s cannot be used on %s.", item.Name(), target.Ent().Name()), nil
}

// targetNearby reports whether the target is within reach: characters and
// items must share the character's location (or be carried by them); blocks
// must obstruct one of the outgoing paths; locations have no position
// concept and are always reachable by name.
func (e *Engine) targetNearby(ctx context.Context, char *world.Character, target world.Object) (bool, error) {
	switch t := target.(type) {
	case *world.Character:
		return t.PositionID == char.PositionID, nil
	case *world.Item:
		return t.CarrierID == char.ID || t.PositionID == char.PositionID, nil
	case *world.Block:
		paths, err := e.store.PathsFrom(ctx, char.PositionID)
		if err != nil {
			return false, err
		}
		for _, p := range paths {
			if t.Blocks(p.ID) {
				return true, nil
			}
		}
		return false, nil
	default:
		return true, nil
	}
}

// unblock runs the key-on-block protocol: the key must reference this exact
// block, and a block unlocks exactly once, permanently.
func (e *Engine) unblock(ctx context.Context, key *world.Item, block *world.Block) (Result, error) {
	if key.UnlocksID != block.ID {
		return fail("%s doesn't work on %s.", key.Name(), block.Name()), nil
	}
	if !block.Active {
		return fail("%s was already unlocked.", block.Name()), nil
	}
	block.Active = false
	if err := e.store.SaveBlock(ctx, block); err != nil {
		return Result{}, err
	}
	return succeed("%s", key.UnlockDescription), nil
}
