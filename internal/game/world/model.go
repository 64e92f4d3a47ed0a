// Package world provides the game world graph: worlds, locations, paths,
// blocks, characters, items, and the name records used to address them.
package world

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the concrete type behind an Entity record.
type Kind string

// Entity kinds stored in the graph.
const (
	KindLocation  Kind = "location"
	KindCharacter Kind = "character"
	KindItem      Kind = "item"
	KindBlock     Kind = "block"
)

// Location categories.
const (
	CategoryHouse  = "house"
	CategoryStore  = "store"
	CategorySecret = "secret"
	CategoryOther  = "other"
)

// ValidationError reports a world-graph invariant violation. It is raised at
// the store boundary on mutation attempts and is a content or programmer
// error, never a player-facing failure.
type ValidationError struct {
	// Field names the offending field or relation.
	Field string
	// Reason describes the violated invariant.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// World is an isolated namespace owning all other records. Deleting a World
// deletes everything it owns.
type World struct {
	// ID uniquely identifies the world.
	ID uuid.UUID
	// Owner is the account name of the world's owner.
	Owner string
	// Name is the world's display name, unique per owner.
	Name string
}

// Validate checks world invariants.
func (w *World) Validate() error {
	if w.Name == "" {
		return &ValidationError{Field: "world.name", Reason: "must not be empty"}
	}
	return nil
}

// Name is a single addressable name of an entity. The first name attached to
// an entity is its canonical display name.
type Name struct {
	// Value is the display form.
	Value string
	// Slug is the normalized form used for lookups. See Slugify.
	Slug string
}

// Entity is the shared identity of every nameable, taggable object in a
// world: locations, characters, items, and blocks.
type Entity struct {
	// ID uniquely identifies the entity.
	ID uuid.UUID
	// WorldID is the owning world.
	WorldID uuid.UUID
	// Kind names the concrete type of this entity.
	Kind Kind
	// Names are the entity's names in priority order; Names[0] is canonical.
	Names []Name
	// Tags are free-form labels used by content tooling.
	Tags []string
	// Appearance is what the entity looks like from the outside.
	Appearance string
	// Description is the longer free-text description.
	Description string
}

// Name returns the canonical display name, or "" if the entity is unnamed.
func (e *Entity) Name() string {
	if len(e.Names) == 0 {
		return ""
	}
	return e.Names[0].Value
}

// HasName reports whether text matches any of the entity's names after
// normalization.
func (e *Entity) HasName(text string) bool {
	slug := Slugify(text)
	for _, n := range e.Names {
		if n.Slug == slug {
			return true
		}
	}
	return false
}

// AddName appends a name, computing its slug.
func (e *Entity) AddName(value string) {
	e.Names = append(e.Names, Name{Value: value, Slug: Slugify(value)})
}

// Validate checks entity invariants shared by all kinds.
func (e *Entity) Validate() error {
	if e.WorldID == uuid.Nil {
		return &ValidationError{Field: "entity.world", Reason: "must belong to a world"}
	}
	if len(e.Names) == 0 {
		return &ValidationError{Field: "entity.names", Reason: "must have at least one name"}
	}
	for _, n := range e.Names {
		if n.Slug == "" {
			return &ValidationError{Field: "entity.names", Reason: fmt.Sprintf("name %q normalizes to nothing", n.Value)}
		}
	}
	return nil
}

// Object is any typed record backed by an Entity.
type Object interface {
	Ent() *Entity
}

// Location is a place a character can occupy. Outgoing paths belong to it.
type Location struct {
	Entity
	// Category classifies the location: house, store, secret, or other.
	Category string
	// Clue is an optional mystery hook revealed when the location is
	// inspected closely. Empty means none.
	Clue string
}

// Ent returns the location's entity record.
func (l *Location) Ent() *Entity { return &l.Entity }

// Validate checks location invariants.
func (l *Location) Validate() error {
	if err := l.Entity.Validate(); err != nil {
		return err
	}
	switch l.Category {
	case CategoryHouse, CategoryStore, CategorySecret, CategoryOther:
		return nil
	default:
		return &ValidationError{Field: "location.category", Reason: fmt.Sprintf("unknown category %q", l.Category)}
	}
}

// Path is a directed edge between two locations in the same world, labeled
// by a preposition ("to", "through", "back") and/or a noun ("library").
type Path struct {
	// ID uniquely identifies the path.
	ID uuid.UUID
	// WorldID is the owning world.
	WorldID uuid.UUID
	// StartID is the origin location's entity ID.
	StartID uuid.UUID
	// EndID is the destination location's entity ID.
	EndID uuid.UUID
	// Preposition is the travel word, e.g. "to" or "through". May be empty
	// if Noun is set.
	Preposition string
	// Noun is the travel target word, e.g. "library". May be empty if
	// Preposition is set.
	Noun string
	// Hidden excludes the path from the default look listing. Hidden paths
	// remain traversable by an exact match.
	Hidden bool
	// Discoverable marks a hidden path that can be revealed by inspection.
	Discoverable bool
}

// Label renders the path as shown to players: "{preposition} {noun}" with
// absent parts omitted.
func (p *Path) Label() string {
	switch {
	case p.Preposition != "" && p.Noun != "":
		return p.Preposition + " " + p.Noun
	case p.Preposition != "":
		return p.Preposition
	default:
		return p.Noun
	}
}

// Validate checks path invariants.
func (p *Path) Validate() error {
	if p.WorldID == uuid.Nil {
		return &ValidationError{Field: "path.world", Reason: "must belong to a world"}
	}
	if p.StartID == uuid.Nil || p.EndID == uuid.Nil {
		return &ValidationError{Field: "path.endpoints", Reason: "start and end are required"}
	}
	if p.StartID == p.EndID {
		return &ValidationError{Field: "path.endpoints", Reason: "start and end must differ"}
	}
	if p.Preposition == "" && p.Noun == "" {
		return &ValidationError{Field: "path.label", Reason: "preposition or noun is required"}
	}
	return nil
}

// Block is an obstruction on one or more paths. It deactivates permanently,
// exactly once, when its key item is used on it.
type Block struct {
	Entity
	// Active reports whether the block still obstructs its paths.
	Active bool
	// UnlockedByID is the entity ID of the specific key item that opens
	// this block.
	UnlockedByID uuid.UUID
	// PathIDs are the paths this block obstructs (1 or 2).
	PathIDs []uuid.UUID
}

// Ent returns the block's entity record.
func (b *Block) Ent() *Entity { return &b.Entity }

// Blocks reports whether the block obstructs the given path.
func (b *Block) Blocks(pathID uuid.UUID) bool {
	for _, id := range b.PathIDs {
		if id == pathID {
			return true
		}
	}
	return false
}

// Validate checks block invariants.
func (b *Block) Validate() error {
	if err := b.Entity.Validate(); err != nil {
		return err
	}
	if len(b.PathIDs) < 1 || len(b.PathIDs) > 2 {
		return &ValidationError{Field: "block.paths", Reason: fmt.Sprintf("must obstruct 1 or 2 paths, got %d", len(b.PathIDs))}
	}
	return nil
}

// Character is an entity with a position in the world. A character with an
// empty User is an NPC.
type Character struct {
	Entity
	// User is the owning player's account name. Empty means NPC.
	User string
	// Personality is free text used by content tooling.
	Personality string
	// CarryLimit is the number of items the character can carry.
	CarryLimit int
	// HP is current hit points, clamped at 0.
	HP int
	// MaxHP is the hit point ceiling.
	MaxHP int
	// PositionID is the entity ID of the current location.
	PositionID uuid.UUID
	// PreviousPositionID is where the character last was, for "go back".
	// Nil means the character has not moved yet.
	PreviousPositionID uuid.UUID
}

// Ent returns the character's entity record.
func (c *Character) Ent() *Entity { return &c.Entity }

// Dead reports whether the character is out of hit points.
func (c *Character) Dead() bool { return c.HP <= 0 }

// Validate checks character invariants.
func (c *Character) Validate() error {
	if err := c.Entity.Validate(); err != nil {
		return err
	}
	if c.CarryLimit < 0 {
		return &ValidationError{Field: "character.carry_limit", Reason: "must not be negative"}
	}
	if c.MaxHP < 1 {
		return &ValidationError{Field: "character.max_hp", Reason: "must be at least 1"}
	}
	return nil
}

// Item is an entity that is either carried by a character or dropped at a
// location, never both and never neither.
type Item struct {
	Entity
	// WeightKG is the item's weight in kilograms.
	WeightKG float64
	// Value is the item's monetary value.
	Value int
	// Attack is the attack contribution when carried into combat. Nil means
	// the item is not a weapon.
	Attack *int
	// Defense is the defense contribution when carried. Nil means the item
	// offers no protection.
	Defense *int
	// Message is the text revealed by reading the item. Empty means the
	// item is not readable.
	Message string
	// UnlocksID is the entity ID of the block this item opens. Nil means
	// the item is not a key.
	UnlocksID uuid.UUID
	// UnlockDescription is the narration returned when the key is used on
	// its block.
	UnlockDescription string
	// CarrierID is the carrying character's entity ID, or Nil.
	CarrierID uuid.UUID
	// PositionID is the location's entity ID where the item lies, or Nil.
	PositionID uuid.UUID
}

// Ent returns the item's entity record.
func (i *Item) Ent() *Entity { return &i.Entity }

// IsKey reports whether the item opens a block.
func (i *Item) IsKey() bool { return i.UnlocksID != uuid.Nil }

// Validate checks item invariants, in particular the carrier-or-position
// exclusivity.
func (i *Item) Validate() error {
	if err := i.Entity.Validate(); err != nil {
		return err
	}
	if i.CarrierID != uuid.Nil && i.PositionID != uuid.Nil {
		return &ValidationError{Field: "item.placement", Reason: "cannot have both a carrier and a position"}
	}
	if i.CarrierID == uuid.Nil && i.PositionID == uuid.Nil {
		return &ValidationError{Field: "item.placement", Reason: "must have a carrier or a position"}
	}
	if i.WeightKG < 0 {
		return &ValidationError{Field: "item.weight_kg", Reason: "must not be negative"}
	}
	return nil
}
