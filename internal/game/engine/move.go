package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// move resolves a go command. Path selection priority:
//
//  1. "back" with no noun follows the path to the previous position.
//  2. Preposition and noun together match a path exactly, falling back to
//     the preposition plus the destination location's name.
//  3. A bare noun matches a path's noun, falling back to the destination
//     location's name.
//  4. A bare preposition (other than the generic "to") is followed only if
//     exactly one outgoing path carries it.
func (e *Engine) move(ctx context.Context, char *world.Character, prep, noun string) (Result, error) {
	if prep == "" && noun == "" {
		return fail("You must specify where you want to go."), nil
	}

	paths, err := e.store.PathsFrom(ctx, char.PositionID)
	if err != nil {
		return Result{}, err
	}
	ends, err := e.destinations(ctx, paths)
	if err != nil {
		return Result{}, err
	}

	chosen := choosePath(char, paths, ends, prep, noun)
	if chosen == nil {
		return fail("You cannot go %s.", phrase(prep, noun)), nil
	}

	blocks, err := e.store.ActiveBlocksOn(ctx, chosen.ID)
	if err != nil {
		return Result{}, err
	}
	if len(blocks) > 0 {
		descs := make([]string, len(blocks))
		for i, b := range blocks {
			descs[i] = b.Description
		}
		return fail("You could not go %s. %s", chosen.Label(), strings.Join(descs, " Additionally, ")), nil
	}

	char.PreviousPositionID = char.PositionID
	char.PositionID = chosen.EndID
	if err := e.store.SaveCharacter(ctx, char); err != nil {
		return Result{}, err
	}

	body, err := e.describeLocation(ctx, char)
	if err != nil {
		return Result{}, err
	}
	return succeed("You go %s.\n%s", phrase(prep, noun), body), nil
}

func (e *Engine) destinations(ctx context.Context, paths []*world.Path) (map[uuid.UUID]*world.Location, error) {
	ends := make(map[uuid.UUID]*world.Location, len(paths))
	for _, p := range paths {
		if _, ok := ends[p.EndID]; ok {
			continue
		}
		loc, err := e.store.Location(ctx, p.EndID)
		if err != nil {
			return nil, err
		}
		ends[p.EndID] = loc
	}
	return ends, nil
}

func choosePath(char *world.Character, paths []*world.Path, ends map[uuid.UUID]*world.Location, prep, noun string) *world.Path {
	switch {
	case strings.HasPrefix(strings.ToLower(prep), "back") && noun == "":
		if char.PreviousPositionID == uuid.Nil {
			return nil
		}
		for _, p := range paths {
			if p.EndID == char.PreviousPositionID {
				return p
			}
		}
		return nil

	case prep != "" && noun != "":
		nounSlug := world.Slugify(noun)
		for _, p := range paths {
			if strings.EqualFold(p.Preposition, prep) && world.Slugify(p.Noun) == nounSlug {
				return p
			}
		}
		for _, p := range paths {
			if strings.EqualFold(p.Preposition, prep) {
				if end, ok := ends[p.EndID]; ok && end.HasName(noun) {
					return p
				}
			}
		}
		return nil

	case noun != "":
		return world.MatchNoun(paths, ends, noun)

	case !strings.EqualFold(prep, "to"):
		matches := world.MatchPreposition(paths, prep)
		if len(matches) == 1 {
			return matches[0]
		}
		return nil

	default:
		return nil
	}
}

func phrase(prep, noun string) string {
	switch {
	case prep != "" && noun != "":
		return prep + " " + noun
	case prep != "":
		return prep
	default:
		return noun
	}
}
