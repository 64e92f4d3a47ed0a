package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Content is the declarative world content schema. Area files are TOML
// (the native authoring format) or YAML; multiple files in a directory are
// merged list-wise before building.
type Content struct {
	Locations  []AreaLocation  `toml:"locations" yaml:"locations"`
	Blocks     []AreaBlock     `toml:"blocks" yaml:"blocks"`
	Characters []AreaCharacter `toml:"characters" yaml:"characters"`
}

type AreaLocation struct {
	Names       []string   `toml:"names" yaml:"names"`
	Appearance  string     `toml:"appearance" yaml:"appearance"`
	Description string     `toml:"description" yaml:"description"`
	Category    string     `toml:"category" yaml:"category"`
	Clue        string     `toml:"clue" yaml:"clue"`
	Exits       []AreaExit `toml:"exits" yaml:"exits"`
	Items       []AreaItem `toml:"items" yaml:"items"`
}

type AreaExit struct {
	To           string `toml:"to" yaml:"to"`
	Preposition  string `toml:"preposition" yaml:"preposition"`
	Noun         string `toml:"noun" yaml:"noun"`
	Hidden       bool   `toml:"hidden" yaml:"hidden"`
	Discoverable bool   `toml:"discoverable" yaml:"discoverable"`
}

type AreaItem struct {
	Names             []string `toml:"names" yaml:"names"`
	Appearance        string   `toml:"appearance" yaml:"appearance"`
	Description       string   `toml:"description" yaml:"description"`
	WeightKG          float64  `toml:"weight_kg" yaml:"weight_kg"`
	Value             int      `toml:"value" yaml:"value"`
	Attack            *int     `toml:"attack" yaml:"attack"`
	Defense           *int     `toml:"defense" yaml:"defense"`
	Message           string   `toml:"message" yaml:"message"`
	UnlockDescription string   `toml:"unlock_description" yaml:"unlock_description"`
}

type AreaBlock struct {
	From        string   `toml:"from" yaml:"from"`
	To          string   `toml:"to" yaml:"to"`
	OneWay      bool     `toml:"one_way" yaml:"one_way"`
	UnlockedBy  string   `toml:"unlocked_by" yaml:"unlocked_by"`
	Names       []string `toml:"names" yaml:"names"`
	Appearance  string   `toml:"appearance" yaml:"appearance"`
	Description string   `toml:"description" yaml:"description"`
}

type AreaCharacter struct {
	Names       []string   `toml:"names" yaml:"names"`
	Appearance  string     `toml:"appearance" yaml:"appearance"`
	Description string     `toml:"description" yaml:"description"`
	Personality string     `toml:"personality" yaml:"personality"`
	Location    string     `toml:"location" yaml:"location"`
	User        string     `toml:"user" yaml:"user"`
	CarryLimit  int        `toml:"carry_limit" yaml:"carry_limit"`
	HP          int        `toml:"hp" yaml:"hp"`
	Items       []AreaItem `toml:"items" yaml:"items"`
}

// Builder defaults applied when area files omit a value.
const (
	DefaultCarryLimit = 10
	DefaultHP         = 10
)

// LoadAreaDir parses every .toml, .yaml, and .yml file in dir and merges
// their location, block, and character lists in file-name order.
//
// Postcondition: Returns the merged content or a non-nil error.
func LoadAreaDir(dir string) (*Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading area directory %s: %w", dir, err)
	}

	merged := &Content{}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading area file %s: %w", entry.Name(), err)
		}
		var file Content
		if ext == ".toml" {
			err = toml.Unmarshal(data, &file)
		} else {
			err = yaml.Unmarshal(data, &file)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing area file %s: %w", entry.Name(), err)
		}
		merged.Locations = append(merged.Locations, file.Locations...)
		merged.Blocks = append(merged.Blocks, file.Blocks...)
		merged.Characters = append(merged.Characters, file.Characters...)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no area files found in %s", dir)
	}
	return merged, nil
}

// Build populates a fresh world in the store from merged area content:
// locations first, then exits, then items, then blocks bound to their paths
// and keys, then characters with their carried items. The whole build runs
// inside one Atomic section so a content error leaves nothing behind in a
// transactional store.
//
// Precondition: w must not yet exist in the store.
// Postcondition: Returns nil and a fully populated world, or a non-nil error.
func (a *Content) Build(ctx context.Context, store Store, w *World) error {
	return store.Atomic(ctx, func(ctx context.Context) error {
		if err := store.CreateWorld(ctx, w); err != nil {
			return fmt.Errorf("creating world: %w", err)
		}
		locs, err := a.buildLocations(ctx, store, w)
		if err != nil {
			return err
		}
		if err := a.buildExits(ctx, store, w, locs); err != nil {
			return err
		}
		if err := a.buildItems(ctx, store, w, locs); err != nil {
			return err
		}
		if err := a.buildBlocks(ctx, store, w, locs); err != nil {
			return err
		}
		return a.buildCharacters(ctx, store, w, locs)
	})
}

func (a *Content) buildLocations(ctx context.Context, store Store, w *World) (map[string]*Location, error) {
	locs := make(map[string]*Location, len(a.Locations))
	for _, al := range a.Locations {
		if len(al.Names) == 0 {
			return nil, fmt.Errorf("location with no names")
		}
		if len(al.Exits) == 0 {
			return nil, fmt.Errorf("location %q: must declare at least one exit", al.Names[0])
		}
		loc := &Location{
			Entity:   Entity{WorldID: w.ID, Appearance: al.Appearance, Description: al.Description},
			Category: al.Category,
			Clue:     al.Clue,
		}
		for _, n := range al.Names {
			loc.AddName(n)
		}
		if err := store.CreateLocation(ctx, loc); err != nil {
			return nil, fmt.Errorf("creating location %q: %w", al.Names[0], err)
		}
		locs[Slugify(al.Names[0])] = loc
	}
	return locs, nil
}

func (a *Content) buildExits(ctx context.Context, store Store, w *World, locs map[string]*Location) error {
	for _, al := range a.Locations {
		start := locs[Slugify(al.Names[0])]
		for _, ex := range al.Exits {
			end, ok := locs[Slugify(ex.To)]
			if !ok {
				return fmt.Errorf("location %q: exit targets unknown location %q", al.Names[0], ex.To)
			}
			p := &Path{
				WorldID:      w.ID,
				StartID:      start.ID,
				EndID:        end.ID,
				Preposition:  ex.Preposition,
				Noun:         ex.Noun,
				Hidden:       ex.Hidden,
				Discoverable: ex.Discoverable,
			}
			if err := store.CreatePath(ctx, p); err != nil {
				return fmt.Errorf("creating exit %q -> %q: %w", al.Names[0], ex.To, err)
			}
		}
	}
	return nil
}

func (a *Content) buildItems(ctx context.Context, store Store, w *World, locs map[string]*Location) error {
	for _, al := range a.Locations {
		loc := locs[Slugify(al.Names[0])]
		for _, ai := range al.Items {
			item := newItem(w.ID, ai)
			item.PositionID = loc.ID
			if err := store.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating item at %q: %w", al.Names[0], err)
			}
		}
	}
	return nil
}

func newItem(worldID uuid.UUID, ai AreaItem) *Item {
	weight := ai.WeightKG
	if weight == 0 {
		weight = 1
	}
	item := &Item{
		Entity:            Entity{WorldID: worldID, Appearance: ai.Appearance, Description: ai.Description},
		WeightKG:          weight,
		Value:             ai.Value,
		Attack:            ai.Attack,
		Defense:           ai.Defense,
		Message:           ai.Message,
		UnlockDescription: ai.UnlockDescription,
	}
	for _, n := range ai.Names {
		item.AddName(n)
	}
	return item
}

func (a *Content) buildBlocks(ctx context.Context, store Store, w *World, locs map[string]*Location) error {
	for _, ab := range a.Blocks {
		from, ok := locs[Slugify(ab.From)]
		if !ok {
			return fmt.Errorf("block %q: unknown location %q", first(ab.Names), ab.From)
		}
		to, ok := locs[Slugify(ab.To)]
		if !ok {
			return fmt.Errorf("block %q: unknown location %q", first(ab.Names), ab.To)
		}

		pathIDs, err := blockedPaths(ctx, store, from, to, ab.OneWay)
		if err != nil {
			return fmt.Errorf("block %q: %w", first(ab.Names), err)
		}

		key, err := resolveKey(ctx, store, w.ID, ab.UnlockedBy)
		if err != nil {
			return fmt.Errorf("block %q: %w", first(ab.Names), err)
		}

		block := &Block{
			Entity:       Entity{WorldID: w.ID, Appearance: ab.Appearance, Description: ab.Description},
			Active:       true,
			UnlockedByID: key.ID,
			PathIDs:      pathIDs,
		}
		for _, n := range ab.Names {
			block.AddName(n)
		}
		if err := store.CreateBlock(ctx, block); err != nil {
			return fmt.Errorf("creating block %q: %w", first(ab.Names), err)
		}

		key.UnlocksID = block.ID
		if err := store.SaveItem(ctx, key); err != nil {
			return fmt.Errorf("linking key %q to block %q: %w", ab.UnlockedBy, first(ab.Names), err)
		}
	}
	return nil
}

// blockedPaths finds the paths a block declaration obstructs: the forward
// path, plus the reverse one unless the block is one-way. A declaration
// must resolve to exactly one path when one-way and one or two otherwise.
func blockedPaths(ctx context.Context, store Store, from, to *Location, oneWay bool) ([]uuid.UUID, error) {
	forward, err := pathBetween(ctx, store, from, to)
	if err != nil {
		return nil, err
	}
	if forward == nil {
		return nil, fmt.Errorf("no path from %q to %q", from.Name(), to.Name())
	}
	ids := []uuid.UUID{forward.ID}
	if oneWay {
		return ids, nil
	}
	reverse, err := pathBetween(ctx, store, to, from)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		ids = append(ids, reverse.ID)
	}
	return ids, nil
}

func pathBetween(ctx context.Context, store Store, from, to *Location) (*Path, error) {
	paths, err := store.PathsFrom(ctx, from.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if p.EndID == to.ID {
			return p, nil
		}
	}
	return nil, nil
}

func resolveKey(ctx context.Context, store Store, worldID uuid.UUID, name string) (*Item, error) {
	if name == "" {
		return nil, fmt.Errorf("unlocked_by is required")
	}
	obj, err := store.ResolveEntity(ctx, worldID, name)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", name, err)
	}
	key, ok := obj.(*Item)
	if !ok {
		return nil, fmt.Errorf("key %q is not an item", name)
	}
	return key, nil
}

func (a *Content) buildCharacters(ctx context.Context, store Store, w *World, locs map[string]*Location) error {
	for _, ac := range a.Characters {
		loc, ok := locs[Slugify(ac.Location)]
		if !ok {
			return fmt.Errorf("character %q: unknown location %q", first(ac.Names), ac.Location)
		}
		carryLimit := ac.CarryLimit
		if carryLimit == 0 {
			carryLimit = DefaultCarryLimit
		}
		hp := ac.HP
		if hp == 0 {
			hp = DefaultHP
		}
		c := &Character{
			Entity:      Entity{WorldID: w.ID, Appearance: ac.Appearance, Description: ac.Description},
			User:        ac.User,
			Personality: ac.Personality,
			CarryLimit:  carryLimit,
			HP:          hp,
			MaxHP:       hp,
			PositionID:  loc.ID,
		}
		for _, n := range ac.Names {
			c.AddName(n)
		}
		if err := store.CreateCharacter(ctx, c); err != nil {
			return fmt.Errorf("creating character %q: %w", first(ac.Names), err)
		}
		for _, ai := range ac.Items {
			item := newItem(w.ID, ai)
			item.CarrierID = c.ID
			if err := store.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating item for %q: %w", first(ac.Names), err)
			}
		}
	}
	return nil
}

func first(names []string) string {
	if len(names) == 0 {
		return "(unnamed)"
	}
	return strings.TrimSpace(names[0])
}
