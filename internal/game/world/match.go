package world

import (
	"strings"

	"github.com/google/uuid"
)

// MatchNoun returns the first path whose own noun matches the given text
// after normalization. If no path noun matches, it falls back to matching
// the destination location's name instead; ends supplies the destination
// locations keyed by entity ID. Returns nil if nothing matches.
func MatchNoun(paths []*Path, ends map[uuid.UUID]*Location, noun string) *Path {
	slug := Slugify(noun)
	if slug == "" {
		return nil
	}
	for _, p := range paths {
		if Slugify(p.Noun) == slug {
			return p
		}
	}
	for _, p := range paths {
		if end, ok := ends[p.EndID]; ok && end.HasName(noun) {
			return p
		}
	}
	return nil
}

// MatchPreposition returns every path whose preposition matches prep,
// case-insensitively, preserving input order.
func MatchPreposition(paths []*Path, prep string) []*Path {
	var out []*Path
	for _, p := range paths {
		if strings.EqualFold(p.Preposition, prep) {
			out = append(out, p)
		}
	}
	return out
}

// MatchItem returns the first item whose name matches text after
// normalization, or nil.
func MatchItem(items []*Item, name string) *Item {
	slug := Slugify(name)
	if slug == "" {
		return nil
	}
	for _, it := range items {
		if it.HasName(name) {
			return it
		}
	}
	return nil
}
