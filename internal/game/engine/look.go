package engine

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// look describes the character's current location: its description, the
// visible outgoing paths, and the items lying around. Always succeeds.
func (e *Engine) look(ctx context.Context, char *world.Character) (Result, error) {
	body, err := e.describeLocation(ctx, char)
	if err != nil {
		return Result{}, err
	}
	return succeed("You look around. %s", body), nil
}

// describeLocation renders the look body without the "you look around"
// preamble, so go can reuse it after a move.
func (e *Engine) describeLocation(ctx context.Context, char *world.Character) (string, error) {
	loc, err := e.store.Location(ctx, char.PositionID)
	if err != nil {
		return "", err
	}

	lines := []string{"You see " + lowerFirst(loc.Description) + "."}

	paths, err := e.store.PathsFrom(ctx, loc.ID)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if p.Hidden {
			continue
		}
		lines = append(lines, "You can go "+p.Label()+".")
	}

	items, err := e.store.ItemsAt(ctx, loc.ID)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		lines = append(lines, "There is a "+it.Name()+" here.")
	}

	return strings.Join(lines, "\n"), nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
