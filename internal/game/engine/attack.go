package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/havenbrook/lowfi-mmo/internal/game/combat"
	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// attack resolves a battle against a named character in the same location.
// A live defender always retaliates exactly once; the retaliation never
// triggers another round.
func (e *Engine) attack(ctx context.Context, char *world.Character, defenderName string) (Result, error) {
	if char.PositionID == uuid.Nil {
		return fail("%s does not exist in the material realm and thus cannot attack.", char.Name()), nil
	}

	defender, err := e.findDefender(ctx, char, defenderName)
	if err != nil {
		return Result{}, err
	}
	if defender == nil {
		return fail("%s looked around for %s, but couldn't find anyone by that name to attack.",
			char.Name(), defenderName), nil
	}

	if defender.Dead() {
		return succeed("%s is already dead, but %s kicked them a few times just to be sure.",
			defender.Name(), char.Name()), nil
	}

	attackerItems, err := e.store.ItemsCarriedBy(ctx, char.ID)
	if err != nil {
		return Result{}, err
	}
	defenderItems, err := e.store.ItemsCarriedBy(ctx, defender.ID)
	if err != nil {
		return Result{}, err
	}

	rounds := combat.Resolve(char, defender, attackerItems, defenderItems)

	if err := e.store.SaveCharacter(ctx, defender); err != nil {
		return Result{}, err
	}
	if defender.ID != char.ID {
		if err := e.store.SaveCharacter(ctx, char); err != nil {
			return Result{}, err
		}
	}
	return succeed("%s", combat.Narrate(rounds)), nil
}

// findDefender resolves a defender by exact name anywhere in the world.
// Returns nil without error when no attackable character is nearby.
func (e *Engine) findDefender(ctx context.Context, char *world.Character, name string) (*world.Character, error) {
	obj, err := e.store.ResolveEntity(ctx, char.WorldID, name)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defender, ok := obj.(*world.Character)
	if !ok || defender.PositionID != char.PositionID {
		return nil, nil
	}
	if defender.ID == char.ID {
		// Self-inflicted beatings work on the attacker's own record.
		return char, nil
	}
	return defender, nil
}
