package world

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Lookup errors shared by all Store implementations.
var (
	// ErrNotFound is returned when a lookup yields no record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a name's slug is already taken
	// within a world.
	ErrDuplicateName = errors.New("name already taken in this world")
	// ErrDuplicatePath is returned when a path collides with an existing
	// path on (start, end, preposition) or (start, preposition, noun).
	ErrDuplicatePath = errors.New("path already exists from this location")
)

// Store is the authoritative world graph state. All mutation methods
// validate the model invariants and return a *ValidationError or one of the
// sentinel errors above on violation.
//
// Atomic runs fn as a single transaction: every mutation made through the
// store inside fn commits together or not at all, and no other command
// observes a partial state. Store methods called inside fn must use the ctx
// passed to fn.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error

	// Worlds.
	CreateWorld(ctx context.Context, w *World) error
	World(ctx context.Context, id uuid.UUID) (*World, error)
	// WorldByName returns the owner's world whose name matches after slug
	// normalization. World names are unique per owner under the same rule.
	WorldByName(ctx context.Context, owner, name string) (*World, error)
	DeleteWorld(ctx context.Context, id uuid.UUID) error

	// Locations.
	CreateLocation(ctx context.Context, l *Location) error
	Location(ctx context.Context, id uuid.UUID) (*Location, error)

	// Paths.
	CreatePath(ctx context.Context, p *Path) error
	// PathsFrom returns all outgoing paths of a location in insertion order.
	PathsFrom(ctx context.Context, locationID uuid.UUID) ([]*Path, error)

	// Blocks.
	CreateBlock(ctx context.Context, b *Block) error
	Block(ctx context.Context, id uuid.UUID) (*Block, error)
	SaveBlock(ctx context.Context, b *Block) error
	// ActiveBlocksOn returns the blocks currently obstructing a path.
	ActiveBlocksOn(ctx context.Context, pathID uuid.UUID) ([]*Block, error)

	// Characters.
	CreateCharacter(ctx context.Context, c *Character) error
	Character(ctx context.Context, id uuid.UUID) (*Character, error)
	SaveCharacter(ctx context.Context, c *Character) error
	// CharactersAt returns the characters at a location in insertion order.
	CharactersAt(ctx context.Context, locationID uuid.UUID) ([]*Character, error)

	// Items.
	CreateItem(ctx context.Context, i *Item) error
	Item(ctx context.Context, id uuid.UUID) (*Item, error)
	SaveItem(ctx context.Context, i *Item) error
	// ItemsAt returns the items dropped at a location in insertion order.
	ItemsAt(ctx context.Context, locationID uuid.UUID) ([]*Item, error)
	// ItemsCarriedBy returns the items carried by a character in insertion order.
	ItemsCarriedBy(ctx context.Context, characterID uuid.UUID) ([]*Item, error)

	// ResolveEntity looks up an entity by exact normalized name within a
	// world and returns its typed record (*Location, *Character, *Item, or
	// *Block). Returns ErrNotFound if no name matches.
	ResolveEntity(ctx context.Context, worldID uuid.UUID, text string) (Object, error)

	// Per-world listings in insertion order, for rendering and world copy.
	LocationsIn(ctx context.Context, worldID uuid.UUID) ([]*Location, error)
	PathsIn(ctx context.Context, worldID uuid.UUID) ([]*Path, error)
	BlocksIn(ctx context.Context, worldID uuid.UUID) ([]*Block, error)
	CharactersIn(ctx context.Context, worldID uuid.UUID) ([]*Character, error)
	ItemsIn(ctx context.Context, worldID uuid.UUID) ([]*Item, error)
}
