package world

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type atomicKey struct{}

// MemoryStore is an in-memory Store implementation backed by slug and path
// indexes. It serializes Atomic sections with a single mutex; resolvers are
// expected to validate before mutating, so a failed command leaves no
// partial state behind.
type MemoryStore struct {
	mu sync.Mutex

	worlds      map[uuid.UUID]*World
	locations   map[uuid.UUID]*Location
	locOrder    []uuid.UUID
	paths       map[uuid.UUID]*Path
	pathOrder   []uuid.UUID
	pathsFrom   map[uuid.UUID][]uuid.UUID // location -> outgoing path IDs, insertion order
	blocks      map[uuid.UUID]*Block
	blockOrder  []uuid.UUID
	characters  map[uuid.UUID]*Character
	charOrder   []uuid.UUID
	items       map[uuid.UUID]*Item
	itemOrder   []uuid.UUID
	nameIndex   map[uuid.UUID]map[string]uuid.UUID // world -> slug -> entity
	worldByName map[string]uuid.UUID               // owner + "/" + name
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		worlds:      make(map[uuid.UUID]*World),
		locations:   make(map[uuid.UUID]*Location),
		paths:       make(map[uuid.UUID]*Path),
		pathsFrom:   make(map[uuid.UUID][]uuid.UUID),
		blocks:      make(map[uuid.UUID]*Block),
		characters:  make(map[uuid.UUID]*Character),
		items:       make(map[uuid.UUID]*Item),
		nameIndex:   make(map[uuid.UUID]map[string]uuid.UUID),
		worldByName: make(map[string]uuid.UUID),
	}
}

// Atomic runs fn while holding the store lock. Store calls inside fn must
// use the ctx passed to fn so they skip re-acquiring the lock.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if inAtomic(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, atomicKey{}, true))
}

func inAtomic(ctx context.Context) bool {
	v, _ := ctx.Value(atomicKey{}).(bool)
	return v
}

// lock acquires the store lock unless ctx is already inside an Atomic
// section. The returned func releases whatever was acquired.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if inAtomic(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// CreateWorld registers a new world.
func (s *MemoryStore) CreateWorld(ctx context.Context, w *World) error {
	defer s.lock(ctx)()
	if err := w.Validate(); err != nil {
		return err
	}
	key := w.Owner + "/" + Slugify(w.Name)
	if _, exists := s.worldByName[key]; exists {
		return &ValidationError{Field: "world.name", Reason: fmt.Sprintf("%q already exists for owner %q", w.Name, w.Owner)}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	cp := *w
	s.worlds[w.ID] = &cp
	s.worldByName[key] = w.ID
	s.nameIndex[w.ID] = make(map[string]uuid.UUID)
	return nil
}

// World returns the world with the given ID.
func (s *MemoryStore) World(ctx context.Context, id uuid.UUID) (*World, error) {
	defer s.lock(ctx)()
	w, ok := s.worlds[id]
	if !ok {
		return nil, fmt.Errorf("world %s: %w", id, ErrNotFound)
	}
	cp := *w
	return &cp, nil
}

// WorldByName returns the owner's world with the given name.
func (s *MemoryStore) WorldByName(ctx context.Context, owner, name string) (*World, error) {
	defer s.lock(ctx)()
	id, ok := s.worldByName[owner+"/"+Slugify(name)]
	if !ok {
		return nil, fmt.Errorf("world %q: %w", name, ErrNotFound)
	}
	cp := *s.worlds[id]
	return &cp, nil
}

// DeleteWorld removes a world and everything it owns.
func (s *MemoryStore) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	defer s.lock(ctx)()
	w, ok := s.worlds[id]
	if !ok {
		return fmt.Errorf("world %s: %w", id, ErrNotFound)
	}
	s.locOrder = s.deleteOwned(id, s.locOrder, func(eid uuid.UUID) uuid.UUID { return s.locations[eid].WorldID }, func(eid uuid.UUID) {
		delete(s.locations, eid)
		delete(s.pathsFrom, eid)
	})
	s.pathOrder = s.deleteOwned(id, s.pathOrder, func(eid uuid.UUID) uuid.UUID { return s.paths[eid].WorldID }, func(eid uuid.UUID) { delete(s.paths, eid) })
	s.blockOrder = s.deleteOwned(id, s.blockOrder, func(eid uuid.UUID) uuid.UUID { return s.blocks[eid].WorldID }, func(eid uuid.UUID) { delete(s.blocks, eid) })
	s.charOrder = s.deleteOwned(id, s.charOrder, func(eid uuid.UUID) uuid.UUID { return s.characters[eid].WorldID }, func(eid uuid.UUID) { delete(s.characters, eid) })
	s.itemOrder = s.deleteOwned(id, s.itemOrder, func(eid uuid.UUID) uuid.UUID { return s.items[eid].WorldID }, func(eid uuid.UUID) { delete(s.items, eid) })
	delete(s.nameIndex, id)
	delete(s.worldByName, w.Owner+"/"+Slugify(w.Name))
	delete(s.worlds, id)
	return nil
}

func (s *MemoryStore) deleteOwned(worldID uuid.UUID, order []uuid.UUID, owner func(uuid.UUID) uuid.UUID, remove func(uuid.UUID)) []uuid.UUID {
	kept := order[:0]
	for _, eid := range order {
		if owner(eid) == worldID {
			remove(eid)
			continue
		}
		kept = append(kept, eid)
	}
	return kept
}

// registerEntity assigns an ID and indexes the entity's names, enforcing
// slug uniqueness within the world.
func (s *MemoryStore) registerEntity(e *Entity, kind Kind) error {
	idx, ok := s.nameIndex[e.WorldID]
	if !ok {
		return fmt.Errorf("world %s: %w", e.WorldID, ErrNotFound)
	}
	for _, n := range e.Names {
		if _, taken := idx[n.Slug]; taken {
			return fmt.Errorf("name %q: %w", n.Value, ErrDuplicateName)
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Kind = kind
	for _, n := range e.Names {
		idx[n.Slug] = e.ID
	}
	return nil
}

// CreateLocation adds a location to its world.
func (s *MemoryStore) CreateLocation(ctx context.Context, l *Location) error {
	defer s.lock(ctx)()
	if l.Category == "" {
		l.Category = CategoryOther
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.registerEntity(&l.Entity, KindLocation); err != nil {
		return err
	}
	cp := *l
	s.locations[l.ID] = &cp
	s.locOrder = append(s.locOrder, l.ID)
	return nil
}

// Location returns the location with the given entity ID.
func (s *MemoryStore) Location(ctx context.Context, id uuid.UUID) (*Location, error) {
	defer s.lock(ctx)()
	l, ok := s.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

// CreatePath adds a directed edge between two locations of the same world.
func (s *MemoryStore) CreatePath(ctx context.Context, p *Path) error {
	defer s.lock(ctx)()
	if err := p.Validate(); err != nil {
		return err
	}
	start, ok := s.locations[p.StartID]
	if !ok {
		return fmt.Errorf("path start %s: %w", p.StartID, ErrNotFound)
	}
	end, ok := s.locations[p.EndID]
	if !ok {
		return fmt.Errorf("path end %s: %w", p.EndID, ErrNotFound)
	}
	if start.WorldID != p.WorldID || end.WorldID != p.WorldID {
		return &ValidationError{Field: "path.endpoints", Reason: "start and end must be in the path's world"}
	}
	prep, noun := Slugify(p.Preposition), Slugify(p.Noun)
	for _, existingID := range s.pathsFrom[p.StartID] {
		ex := s.paths[existingID]
		if ex.EndID == p.EndID && Slugify(ex.Preposition) == prep {
			return fmt.Errorf("path %q to the same place: %w", p.Label(), ErrDuplicatePath)
		}
		if Slugify(ex.Preposition) == prep && Slugify(ex.Noun) == noun {
			return fmt.Errorf("path %q: %w", p.Label(), ErrDuplicatePath)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	s.paths[p.ID] = &cp
	s.pathOrder = append(s.pathOrder, p.ID)
	s.pathsFrom[p.StartID] = append(s.pathsFrom[p.StartID], p.ID)
	return nil
}

// PathsFrom returns the outgoing paths of a location in insertion order.
func (s *MemoryStore) PathsFrom(ctx context.Context, locationID uuid.UUID) ([]*Path, error) {
	defer s.lock(ctx)()
	if _, ok := s.locations[locationID]; !ok {
		return nil, fmt.Errorf("location %s: %w", locationID, ErrNotFound)
	}
	ids := s.pathsFrom[locationID]
	out := make([]*Path, 0, len(ids))
	for _, id := range ids {
		cp := *s.paths[id]
		out = append(out, &cp)
	}
	return out, nil
}

// CreateBlock adds a block obstructing 1 or 2 existing paths.
func (s *MemoryStore) CreateBlock(ctx context.Context, b *Block) error {
	defer s.lock(ctx)()
	if err := b.Validate(); err != nil {
		return err
	}
	for _, pid := range b.PathIDs {
		p, ok := s.paths[pid]
		if !ok {
			return fmt.Errorf("blocked path %s: %w", pid, ErrNotFound)
		}
		if p.WorldID != b.WorldID {
			return &ValidationError{Field: "block.paths", Reason: "blocked path must be in the block's world"}
		}
	}
	if b.UnlockedByID != uuid.Nil {
		if _, ok := s.items[b.UnlockedByID]; !ok {
			return fmt.Errorf("block key %s: %w", b.UnlockedByID, ErrNotFound)
		}
	}
	if err := s.registerEntity(&b.Entity, KindBlock); err != nil {
		return err
	}
	cp := *b
	s.blocks[b.ID] = &cp
	s.blockOrder = append(s.blockOrder, b.ID)
	return nil
}

// Block returns the block with the given entity ID.
func (s *MemoryStore) Block(ctx context.Context, id uuid.UUID) (*Block, error) {
	defer s.lock(ctx)()
	b, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", id, ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

// SaveBlock persists a block's mutable state (Active).
func (s *MemoryStore) SaveBlock(ctx context.Context, b *Block) error {
	defer s.lock(ctx)()
	stored, ok := s.blocks[b.ID]
	if !ok {
		return fmt.Errorf("block %s: %w", b.ID, ErrNotFound)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	stored.Active = b.Active
	return nil
}

// ActiveBlocksOn returns the blocks still obstructing a path.
func (s *MemoryStore) ActiveBlocksOn(ctx context.Context, pathID uuid.UUID) ([]*Block, error) {
	defer s.lock(ctx)()
	var out []*Block
	for _, bid := range s.blockOrder {
		b := s.blocks[bid]
		if b.Active && b.Blocks(pathID) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateCharacter adds a character at its position.
func (s *MemoryStore) CreateCharacter(ctx context.Context, c *Character) error {
	defer s.lock(ctx)()
	if err := c.Validate(); err != nil {
		return err
	}
	if _, ok := s.locations[c.PositionID]; !ok {
		return fmt.Errorf("character position %s: %w", c.PositionID, ErrNotFound)
	}
	if err := s.registerEntity(&c.Entity, KindCharacter); err != nil {
		return err
	}
	cp := *c
	s.characters[c.ID] = &cp
	s.charOrder = append(s.charOrder, c.ID)
	return nil
}

// Character returns the character with the given entity ID.
func (s *MemoryStore) Character(ctx context.Context, id uuid.UUID) (*Character, error) {
	defer s.lock(ctx)()
	c, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// SaveCharacter persists a character's mutable state (position, previous
// position, hit points).
func (s *MemoryStore) SaveCharacter(ctx context.Context, c *Character) error {
	defer s.lock(ctx)()
	stored, ok := s.characters[c.ID]
	if !ok {
		return fmt.Errorf("character %s: %w", c.ID, ErrNotFound)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.PositionID != uuid.Nil {
		if _, ok := s.locations[c.PositionID]; !ok {
			return fmt.Errorf("character position %s: %w", c.PositionID, ErrNotFound)
		}
	}
	stored.PositionID = c.PositionID
	stored.PreviousPositionID = c.PreviousPositionID
	stored.HP = c.HP
	return nil
}

// CharactersAt returns the characters at a location in insertion order.
func (s *MemoryStore) CharactersAt(ctx context.Context, locationID uuid.UUID) ([]*Character, error) {
	defer s.lock(ctx)()
	var out []*Character
	for _, cid := range s.charOrder {
		c := s.characters[cid]
		if c.PositionID == locationID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateItem adds an item, carried or dropped.
func (s *MemoryStore) CreateItem(ctx context.Context, i *Item) error {
	defer s.lock(ctx)()
	if err := i.Validate(); err != nil {
		return err
	}
	if err := s.checkItemPlacement(i); err != nil {
		return err
	}
	if err := s.registerEntity(&i.Entity, KindItem); err != nil {
		return err
	}
	cp := *i
	s.items[i.ID] = &cp
	s.itemOrder = append(s.itemOrder, i.ID)
	return nil
}

func (s *MemoryStore) checkItemPlacement(i *Item) error {
	if i.CarrierID != uuid.Nil {
		if _, ok := s.characters[i.CarrierID]; !ok {
			return fmt.Errorf("item carrier %s: %w", i.CarrierID, ErrNotFound)
		}
	}
	if i.PositionID != uuid.Nil {
		if _, ok := s.locations[i.PositionID]; !ok {
			return fmt.Errorf("item position %s: %w", i.PositionID, ErrNotFound)
		}
	}
	return nil
}

// Item returns the item with the given entity ID.
func (s *MemoryStore) Item(ctx context.Context, id uuid.UUID) (*Item, error) {
	defer s.lock(ctx)()
	i, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	cp := *i
	return &cp, nil
}

// SaveItem persists an item's mutable state: carrier, position, and key
// linkage.
func (s *MemoryStore) SaveItem(ctx context.Context, i *Item) error {
	defer s.lock(ctx)()
	stored, ok := s.items[i.ID]
	if !ok {
		return fmt.Errorf("item %s: %w", i.ID, ErrNotFound)
	}
	if err := i.Validate(); err != nil {
		return err
	}
	if err := s.checkItemPlacement(i); err != nil {
		return err
	}
	stored.CarrierID = i.CarrierID
	stored.PositionID = i.PositionID
	stored.UnlocksID = i.UnlocksID
	stored.UnlockDescription = i.UnlockDescription
	return nil
}

// ItemsAt returns the items dropped at a location in insertion order.
func (s *MemoryStore) ItemsAt(ctx context.Context, locationID uuid.UUID) ([]*Item, error) {
	defer s.lock(ctx)()
	return s.filterItems(func(i *Item) bool { return i.PositionID == locationID }), nil
}

// ItemsCarriedBy returns the items carried by a character in insertion order.
func (s *MemoryStore) ItemsCarriedBy(ctx context.Context, characterID uuid.UUID) ([]*Item, error) {
	defer s.lock(ctx)()
	return s.filterItems(func(i *Item) bool { return i.CarrierID == characterID }), nil
}

func (s *MemoryStore) filterItems(keep func(*Item) bool) []*Item {
	var out []*Item
	for _, id := range s.itemOrder {
		if i := s.items[id]; keep(i) {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out
}

// ResolveEntity looks up an entity by exact normalized name within a world.
func (s *MemoryStore) ResolveEntity(ctx context.Context, worldID uuid.UUID, text string) (Object, error) {
	defer s.lock(ctx)()
	idx, ok := s.nameIndex[worldID]
	if !ok {
		return nil, fmt.Errorf("world %s: %w", worldID, ErrNotFound)
	}
	id, ok := idx[Slugify(text)]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", text, ErrNotFound)
	}
	return s.typedObject(id, text)
}

func (s *MemoryStore) typedObject(id uuid.UUID, text string) (Object, error) {
	switch {
	case s.locations[id] != nil:
		cp := *s.locations[id]
		return &cp, nil
	case s.characters[id] != nil:
		cp := *s.characters[id]
		return &cp, nil
	case s.items[id] != nil:
		cp := *s.items[id]
		return &cp, nil
	case s.blocks[id] != nil:
		cp := *s.blocks[id]
		return &cp, nil
	}
	return nil, fmt.Errorf("entity %q: %w", text, ErrNotFound)
}

// LocationsIn returns a world's locations in insertion order.
func (s *MemoryStore) LocationsIn(ctx context.Context, worldID uuid.UUID) ([]*Location, error) {
	defer s.lock(ctx)()
	var out []*Location
	for _, id := range s.locOrder {
		if l := s.locations[id]; l.WorldID == worldID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// PathsIn returns a world's paths in insertion order.
func (s *MemoryStore) PathsIn(ctx context.Context, worldID uuid.UUID) ([]*Path, error) {
	defer s.lock(ctx)()
	var out []*Path
	for _, id := range s.pathOrder {
		if p := s.paths[id]; p.WorldID == worldID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// BlocksIn returns a world's blocks in insertion order.
func (s *MemoryStore) BlocksIn(ctx context.Context, worldID uuid.UUID) ([]*Block, error) {
	defer s.lock(ctx)()
	var out []*Block
	for _, id := range s.blockOrder {
		if b := s.blocks[id]; b.WorldID == worldID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CharactersIn returns a world's characters in insertion order.
func (s *MemoryStore) CharactersIn(ctx context.Context, worldID uuid.UUID) ([]*Character, error) {
	defer s.lock(ctx)()
	var out []*Character
	for _, id := range s.charOrder {
		if c := s.characters[id]; c.WorldID == worldID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ItemsIn returns a world's items in insertion order.
func (s *MemoryStore) ItemsIn(ctx context.Context, worldID uuid.UUID) ([]*Item, error) {
	defer s.lock(ctx)()
	return s.filterItems(func(i *Item) bool { return i.WorldID == worldID }), nil
}
