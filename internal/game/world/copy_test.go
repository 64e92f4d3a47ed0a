package world

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCopySource builds a small world with every record type: two linked
// locations, a blocked path, a key, and a player character carrying an item.
func seedCopySource(t *testing.T, s Store) *World {
	t.Helper()
	ctx := context.Background()
	content := &Content{
		Locations: []AreaLocation{
			{
				Names: []string{"Living Room", "room"},
				Exits: []AreaExit{{To: "Bunker", Preposition: "through", Noun: "trapdoor"}},
				Items: []AreaItem{{Names: []string{"Bronze Key", "key"}, UnlockDescription: "Click."}},
			},
			{
				Names: []string{"Bunker"},
				Exits: []AreaExit{{To: "Living Room", Preposition: "up", Noun: "ladder"}},
			},
		},
		Blocks: []AreaBlock{
			{Names: []string{"Trapdoor"}, From: "Living Room", To: "Bunker", UnlockedBy: "Bronze Key"},
		},
		Characters: []AreaCharacter{
			{Names: []string{"Robin"}, Location: "Living Room", User: "local",
				Items: []AreaItem{{Names: []string{"crowbar"}}}},
		},
	}
	w := &World{Owner: "local", Name: "Source"}
	require.NoError(t, content.Build(ctx, s, w))
	return w
}

func TestCopyWorld(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	src := seedCopySource(t, s)

	cp, err := CopyWorld(ctx, s, src.ID, "Fork", "forker")
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Fork", cp.Name)
	assert.Equal(t, "forker", cp.Owner)

	// Same shape.
	srcLocs, err := s.LocationsIn(ctx, src.ID)
	require.NoError(t, err)
	cpLocs, err := s.LocationsIn(ctx, cp.ID)
	require.NoError(t, err)
	require.Len(t, cpLocs, len(srcLocs))
	for i := range srcLocs {
		assert.Equal(t, srcLocs[i].Name(), cpLocs[i].Name())
		assert.NotEqual(t, srcLocs[i].ID, cpLocs[i].ID)
		assert.Equal(t, cp.ID, cpLocs[i].WorldID)
	}

	// Names resolve inside the copy without crossing worlds.
	obj, err := s.ResolveEntity(ctx, cp.ID, "Trapdoor")
	require.NoError(t, err)
	block := obj.(*Block)
	assert.True(t, block.Active)
	assert.Len(t, block.PathIDs, 2)

	obj, err = s.ResolveEntity(ctx, cp.ID, "Bronze Key")
	require.NoError(t, err)
	key := obj.(*Item)
	assert.Equal(t, block.ID, key.UnlocksID, "the copied key must open the copied block")
	assert.Equal(t, key.ID, block.UnlockedByID)

	// Copied paths point at copied endpoints.
	cpPaths, err := s.PathsIn(ctx, cp.ID)
	require.NoError(t, err)
	ids := make(map[string]bool, len(cpLocs))
	for _, l := range cpLocs {
		ids[l.ID.String()] = true
	}
	for _, p := range cpPaths {
		assert.True(t, ids[p.StartID.String()])
		assert.True(t, ids[p.EndID.String()])
	}
}

func TestCopyWorld_CharactersBecomeNPCs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	src := seedCopySource(t, s)

	cp, err := CopyWorld(ctx, s, src.ID, "Fork", "forker")
	require.NoError(t, err)

	obj, err := s.ResolveEntity(ctx, cp.ID, "Robin")
	require.NoError(t, err)
	robin := obj.(*Character)
	assert.Empty(t, robin.User, "copied characters lose their user binding")

	carried, err := s.ItemsCarriedBy(ctx, robin.ID)
	require.NoError(t, err)
	require.Len(t, carried, 1)
	assert.Equal(t, "crowbar", carried[0].Name())
}

func TestCopyWorld_SourceMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := CopyWorld(context.Background(), s, uuid.New(), "Fork", "forker")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCopyWorld_SourceUntouched(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	src := seedCopySource(t, s)

	_, err := CopyWorld(ctx, s, src.ID, "Fork", "forker")
	require.NoError(t, err)

	obj, err := s.ResolveEntity(ctx, src.ID, "Bronze Key")
	require.NoError(t, err)
	key := obj.(*Item)
	srcBlock, err := s.ResolveEntity(ctx, src.ID, "Trapdoor")
	require.NoError(t, err)
	assert.Equal(t, srcBlock.Ent().ID, key.UnlocksID, "the source key still opens the source block")
}
