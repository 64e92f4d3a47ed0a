package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// take picks up a nearby item, respecting the character's carry limit.
func (e *Engine) take(ctx context.Context, char *world.Character, name string) (Result, error) {
	nearby, err := e.store.ItemsAt(ctx, char.PositionID)
	if err != nil {
		return Result{}, err
	}
	item := world.MatchItem(nearby, name)
	if item == nil {
		return fail("You don't see a nearby \"%s.\"", name), nil
	}

	carried, err := e.store.ItemsCarriedBy(ctx, char.ID)
	if err != nil {
		return Result{}, err
	}
	if len(carried) >= char.CarryLimit {
		return fail("You cannot carry anything more."), nil
	}

	item.PositionID = uuid.Nil
	item.CarrierID = char.ID
	if err := e.store.SaveItem(ctx, item); err != nil {
		return Result{}, err
	}
	return succeed("You pick up %s.", item.Name()), nil
}

// drop places a carried item at the character's current location.
func (e *Engine) drop(ctx context.Context, char *world.Character, name string) (Result, error) {
	carried, err := e.store.ItemsCarriedBy(ctx, char.ID)
	if err != nil {
		return Result{}, err
	}
	item := world.MatchItem(carried, name)
	if item == nil {
		return fail("You are not carrying an item named \"%s.\"", name), nil
	}

	item.CarrierID = uuid.Nil
	item.PositionID = char.PositionID
	if err := e.store.SaveItem(ctx, item); err != nil {
		return Result{}, err
	}
	return succeed("You drop %s.", item.Name()), nil
}

// read reveals the message on a readable item carried by the character or
// lying at their location.
func (e *Engine) read(ctx context.Context, char *world.Character, name string) (Result, error) {
	carried, err := e.store.ItemsCarriedBy(ctx, char.ID)
	if err != nil {
		return Result{}, err
	}
	item := world.MatchItem(carried, name)
	if item == nil {
		nearby, err := e.store.ItemsAt(ctx, char.PositionID)
		if err != nil {
			return Result{}, err
		}
		item = world.MatchItem(nearby, name)
	}
	if item == nil {
		return fail("You don't see a nearby \"%s.\"", name), nil
	}
	if item.Message == "" {
		return fail("There is nothing to read on %s.", item.Name()), nil
	}
	return succeed("%s read %s. It said: %s", char.Name(), item.Name(), item.Message), nil
}
