package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// nullable converts uuid.Nil to a SQL NULL.
func nullable(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func fromNullable(p *uuid.UUID) uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	return *p
}

// CreateWorld inserts a new world.
func (s *Store) CreateWorld(ctx context.Context, w *world.World) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO worlds (id, owner, name, name_slug) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Owner, w.Name, world.Slugify(w.Name))
	if err != nil {
		if isDuplicateKeyError(err) {
			return &world.ValidationError{Field: "world.name", Reason: fmt.Sprintf("%q already exists for owner %q", w.Name, w.Owner)}
		}
		return fmt.Errorf("inserting world: %w", err)
	}
	return nil
}

// World returns the world with the given ID.
func (s *Store) World(ctx context.Context, id uuid.UUID) (*world.World, error) {
	var w world.World
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, owner, name FROM worlds WHERE id = $1`, id).
		Scan(&w.ID, &w.Owner, &w.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("world %s: %w", id, world.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying world: %w", err)
	}
	return &w, nil
}

// WorldByName returns the owner's world with the given name. Names match
// after slug normalization, like entity names.
func (s *Store) WorldByName(ctx context.Context, owner, name string) (*world.World, error) {
	var w world.World
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, owner, name FROM worlds WHERE owner = $1 AND name_slug = $2`,
		owner, world.Slugify(name)).
		Scan(&w.ID, &w.Owner, &w.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("world %q: %w", name, world.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying world: %w", err)
	}
	return &w, nil
}

// DeleteWorld removes a world; ON DELETE CASCADE takes everything it owns.
func (s *Store) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM worlds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting world: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("world %s: %w", id, world.ErrNotFound)
	}
	return nil
}

// insertEntity writes the shared entity row plus its names and tags.
func (s *Store) insertEntity(ctx context.Context, e *world.Entity, kind world.Kind) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Kind = kind
	q := s.q(ctx)
	_, err := q.Exec(ctx,
		`INSERT INTO entities (id, world_id, kind, appearance, description) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.WorldID, string(kind), e.Appearance, e.Description)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	for ord, n := range e.Names {
		_, err := q.Exec(ctx,
			`INSERT INTO entity_names (entity_id, world_id, value, slug, ord) VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.WorldID, n.Value, n.Slug, ord)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("name %q: %w", n.Value, world.ErrDuplicateName)
			}
			return fmt.Errorf("inserting entity name: %w", err)
		}
	}
	for _, tag := range e.Tags {
		if _, err := q.Exec(ctx,
			`INSERT INTO entity_tags (entity_id, tag) VALUES ($1, $2)`, e.ID, tag); err != nil {
			return fmt.Errorf("inserting entity tag: %w", err)
		}
	}
	return nil
}

// loadNamesAndTags fills an entity's names and tags.
func (s *Store) loadNamesAndTags(ctx context.Context, e *world.Entity) error {
	q := s.q(ctx)
	rows, err := q.Query(ctx,
		`SELECT value, slug FROM entity_names WHERE entity_id = $1 ORDER BY ord`, e.ID)
	if err != nil {
		return fmt.Errorf("querying entity names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n world.Name
		if err := rows.Scan(&n.Value, &n.Slug); err != nil {
			return fmt.Errorf("scanning entity name: %w", err)
		}
		e.Names = append(e.Names, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := q.Query(ctx,
		`SELECT tag FROM entity_tags WHERE entity_id = $1`, e.ID)
	if err != nil {
		return fmt.Errorf("querying entity tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return fmt.Errorf("scanning entity tag: %w", err)
		}
		e.Tags = append(e.Tags, tag)
	}
	return tagRows.Err()
}

// CreateLocation adds a location to its world.
func (s *Store) CreateLocation(ctx context.Context, l *world.Location) error {
	if l.Category == "" {
		l.Category = world.CategoryOther
	}
	if err := l.Validate(); err != nil {
		return err
	}
	return s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.insertEntity(ctx, &l.Entity, world.KindLocation); err != nil {
			return err
		}
		_, err := s.q(ctx).Exec(ctx,
			`INSERT INTO locations (entity_id, category, clue) VALUES ($1, $2, $3)`,
			l.ID, l.Category, l.Clue)
		if err != nil {
			return fmt.Errorf("inserting location: %w", err)
		}
		return nil
	})
}

// Location returns the location with the given entity ID.
func (s *Store) Location(ctx context.Context, id uuid.UUID) (*world.Location, error) {
	var l world.Location
	err := s.q(ctx).QueryRow(ctx,
		`SELECT e.id, e.world_id, e.kind, e.appearance, e.description, l.category, l.clue
		 FROM locations l JOIN entities e ON e.id = l.entity_id
		 WHERE l.entity_id = $1`, id).
		Scan(&l.ID, &l.WorldID, &l.Kind, &l.Appearance, &l.Description, &l.Category, &l.Clue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("location %s: %w", id, world.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying location: %w", err)
	}
	if err := s.loadNamesAndTags(ctx, &l.Entity); err != nil {
		return nil, err
	}
	return &l, nil
}

const pathColumns = `id, world_id, start_id, end_id, preposition, noun, hidden, discoverable`

func scanPath(row pgx.Row) (*world.Path, error) {
	var p world.Path
	err := row.Scan(&p.ID, &p.WorldID, &p.StartID, &p.EndID, &p.Preposition, &p.Noun, &p.Hidden, &p.Discoverable)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePath adds a directed edge between two locations.
func (s *Store) CreatePath(ctx context.Context, p *world.Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO paths (id, world_id, start_id, end_id, preposition, noun, hidden, discoverable)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.WorldID, p.StartID, p.EndID, p.Preposition, p.Noun, p.Hidden, p.Discoverable)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("path %q: %w", p.Label(), world.ErrDuplicatePath)
		}
		return fmt.Errorf("inserting path: %w", err)
	}
	return nil
}

// PathsFrom returns the outgoing paths of a location in insertion order.
func (s *Store) PathsFrom(ctx context.Context, locationID uuid.UUID) ([]*world.Path, error) {
	return s.listPaths(ctx, `SELECT `+pathColumns+` FROM paths WHERE start_id = $1 ORDER BY seq`, locationID)
}

// PathsIn returns a world's paths in insertion order.
func (s *Store) PathsIn(ctx context.Context, worldID uuid.UUID) ([]*world.Path, error) {
	return s.listPaths(ctx, `SELECT `+pathColumns+` FROM paths WHERE world_id = $1 ORDER BY seq`, worldID)
}

func (s *Store) listPaths(ctx context.Context, sql string, arg any) ([]*world.Path, error) {
	rows, err := s.q(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying paths: %w", err)
	}
	defer rows.Close()

	var paths []*world.Path
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// CreateBlock adds a block obstructing 1 or 2 existing paths.
func (s *Store) CreateBlock(ctx context.Context, b *world.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.insertEntity(ctx, &b.Entity, world.KindBlock); err != nil {
			return err
		}
		q := s.q(ctx)
		_, err := q.Exec(ctx,
			`INSERT INTO blocks (entity_id, active, unlocked_by) VALUES ($1, $2, $3)`,
			b.ID, b.Active, nullable(b.UnlockedByID))
		if err != nil {
			return fmt.Errorf("inserting block: %w", err)
		}
		for _, pid := range b.PathIDs {
			if _, err := q.Exec(ctx,
				`INSERT INTO block_paths (block_id, path_id) VALUES ($1, $2)`, b.ID, pid); err != nil {
				return fmt.Errorf("inserting block path: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) scanBlockRows(ctx context.Context, rows pgx.Rows) ([]*world.Block, error) {
	defer rows.Close()
	var blocks []*world.Block
	for rows.Next() {
		var b world.Block
		var unlockedBy *uuid.UUID
		err := rows.Scan(&b.ID, &b.WorldID, &b.Kind, &b.Appearance, &b.Description, &b.Active, &unlockedBy)
		if err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		b.UnlockedByID = fromNullable(unlockedBy)
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if err := s.loadNamesAndTags(ctx, &b.Entity); err != nil {
			return nil, err
		}
		if err := s.loadBlockPaths(ctx, b); err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

func (s *Store) loadBlockPaths(ctx context.Context, b *world.Block) error {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT path_id FROM block_paths WHERE block_id = $1`, b.ID)
	if err != nil {
		return fmt.Errorf("querying block paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return fmt.Errorf("scanning block path: %w", err)
		}
		b.PathIDs = append(b.PathIDs, pid)
	}
	return rows.Err()
}

const blockSelect = `SELECT e.id, e.world_id, e.kind, e.appearance, e.description, b.active, b.unlocked_by
	FROM blocks b JOIN entities e ON e.id = b.entity_id`

// Block returns the block with the given entity ID.
func (s *Store) Block(ctx context.Context, id uuid.UUID) (*world.Block, error) {
	rows, err := s.q(ctx).Query(ctx, blockSelect+` WHERE b.entity_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying block: %w", err)
	}
	blocks, err := s.scanBlockRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("block %s: %w", id, world.ErrNotFound)
	}
	return blocks[0], nil
}

// SaveBlock persists a block's Active flag.
func (s *Store) SaveBlock(ctx context.Context, b *world.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE blocks SET active = $2 WHERE entity_id = $1`, b.ID, b.Active)
	if err != nil {
		return fmt.Errorf("updating block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("block %s: %w", b.ID, world.ErrNotFound)
	}
	return nil
}

// ActiveBlocksOn returns the blocks still obstructing a path.
func (s *Store) ActiveBlocksOn(ctx context.Context, pathID uuid.UUID) ([]*world.Block, error) {
	rows, err := s.q(ctx).Query(ctx, blockSelect+`
		JOIN block_paths bp ON bp.block_id = b.entity_id
		WHERE bp.path_id = $1 AND b.active ORDER BY e.seq`, pathID)
	if err != nil {
		return nil, fmt.Errorf("querying active blocks: %w", err)
	}
	return s.scanBlockRows(ctx, rows)
}

// BlocksIn returns a world's blocks in insertion order.
func (s *Store) BlocksIn(ctx context.Context, worldID uuid.UUID) ([]*world.Block, error) {
	rows, err := s.q(ctx).Query(ctx, blockSelect+` WHERE e.world_id = $1 ORDER BY e.seq`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	return s.scanBlockRows(ctx, rows)
}

// LocationsIn returns a world's locations in insertion order.
func (s *Store) LocationsIn(ctx context.Context, worldID uuid.UUID) ([]*world.Location, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT e.id, e.world_id, e.kind, e.appearance, e.description, l.category, l.clue
		 FROM locations l JOIN entities e ON e.id = l.entity_id
		 WHERE e.world_id = $1 ORDER BY e.seq`, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locs []*world.Location
	for rows.Next() {
		var l world.Location
		if err := rows.Scan(&l.ID, &l.WorldID, &l.Kind, &l.Appearance, &l.Description, &l.Category, &l.Clue); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locs = append(locs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, l := range locs {
		if err := s.loadNamesAndTags(ctx, &l.Entity); err != nil {
			return nil, err
		}
	}
	return locs, nil
}

// ResolveEntity looks up an entity by exact normalized name within a world.
func (s *Store) ResolveEntity(ctx context.Context, worldID uuid.UUID, text string) (world.Object, error) {
	var id uuid.UUID
	var kind string
	err := s.q(ctx).QueryRow(ctx,
		`SELECT e.id, e.kind FROM entity_names n JOIN entities e ON e.id = n.entity_id
		 WHERE n.world_id = $1 AND n.slug = $2`, worldID, world.Slugify(text)).
		Scan(&id, &kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("entity %q: %w", text, world.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving entity: %w", err)
	}

	switch world.Kind(kind) {
	case world.KindLocation:
		return s.Location(ctx, id)
	case world.KindCharacter:
		return s.Character(ctx, id)
	case world.KindItem:
		return s.Item(ctx, id)
	case world.KindBlock:
		return s.Block(ctx, id)
	default:
		return nil, fmt.Errorf("entity %q has unknown kind %q", text, kind)
	}
}
