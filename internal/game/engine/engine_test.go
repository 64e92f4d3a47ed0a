package engine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/havenbrook/lowfi-mmo/internal/game/command"
	"github.com/havenbrook/lowfi-mmo/internal/game/engine"
	"github.com/havenbrook/lowfi-mmo/internal/game/journal"
	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// fixture is a small but complete world: the lawn is the hub, the mansion
// living room hides a bunker behind a locked trapdoor, and the pawn shop
// holds the bronze key. Robin is the player; Marlow lurks at the mansion.
type fixture struct {
	store  *world.MemoryStore
	jnl    *journal.Memory
	engine *engine.Engine
	world  *world.World
	robin  *world.Character
	marlow *world.Character
}

func intp(v int) *int { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	content := &world.Content{
		Locations: []world.AreaLocation{
			{
				Names:       []string{"Library Front Lawn", "library"},
				Description: "The serene front lawn of a quaint little library.",
				Category:    "other",
				Exits: []world.AreaExit{
					{To: "Ruined Mansion Entrance", Preposition: "to", Noun: "ruined mansion"},
					{To: "Curiosity Corner", Preposition: "to", Noun: "pawn shop"},
				},
				Items: []world.AreaItem{
					{Names: []string{"crumpled flyer", "flyer"}, Message: "ESTATE CLEARANCE at Curiosity Corner."},
				},
			},
			{
				Names:       []string{"Ruined Mansion Entrance", "mansion"},
				Description: "An eerie entrance to a crumbling mansion.",
				Category:    "house",
				Exits: []world.AreaExit{
					{To: "Library Front Lawn", Preposition: "to", Noun: "library"},
					{To: "Ruined Mansion Living Room", Preposition: "inside"},
				},
			},
			{
				Names:       []string{"Ruined Mansion Living Room", "living room"},
				Description: "A once-grand living room now consumed by nature.",
				Category:    "house",
				Exits: []world.AreaExit{
					{To: "Ruined Mansion Entrance", Preposition: "outside"},
					{To: "Secret Bunker", Preposition: "through", Noun: "trapdoor"},
				},
			},
			{
				Names:       []string{"Secret Bunker", "bunker"},
				Description: "A hidden underground bunker filled with mysterious treasures.",
				Category:    "secret",
				Exits: []world.AreaExit{
					{To: "Ruined Mansion Living Room", Preposition: "up", Noun: "ladder"},
				},
			},
			{
				Names:       []string{"Curiosity Corner", "pawn shop"},
				Description: "An old pawn shop in the middle of town.",
				Category:    "store",
				Exits: []world.AreaExit{
					{To: "Library Front Lawn", Preposition: "to", Noun: "library"},
				},
				Items: []world.AreaItem{
					{Names: []string{"Bronze Key", "key"},
						UnlockDescription: "The padlock pops open with a satisfying click."},
					{Names: []string{"rusty crowbar", "crowbar"}, Attack: intp(2)},
				},
			},
		},
		Blocks: []world.AreaBlock{
			{Names: []string{"Trapdoor", "Locked Trapdoor"},
				From: "Ruined Mansion Living Room", To: "Secret Bunker",
				UnlockedBy:  "Bronze Key",
				Description: "A large bronze padlock holds the trapdoor firmly in place."},
		},
		Characters: []world.AreaCharacter{
			{Names: []string{"Robin Vale", "Robin"}, Location: "Library Front Lawn", User: "local"},
			{Names: []string{"Marlow Finch", "Marlow"}, Location: "Ruined Mansion Entrance",
				Items: []world.AreaItem{{Names: []string{"leather satchel", "satchel"}, Defense: intp(1)}}},
		},
	}

	store := world.NewMemoryStore()
	w := &world.World{Owner: "local", Name: "Havenbrook"}
	require.NoError(t, content.Build(ctx, store, w))

	jnl := journal.NewMemory()
	eng := engine.New(store, jnl, command.New(command.DefaultRules()), zap.NewNop())

	f := &fixture{store: store, jnl: jnl, engine: eng, world: w}
	f.robin = f.character(t, "Robin")
	f.marlow = f.character(t, "Marlow")
	return f
}

func (f *fixture) character(t *testing.T, name string) *world.Character {
	t.Helper()
	obj, err := f.store.ResolveEntity(context.Background(), f.world.ID, name)
	require.NoError(t, err)
	c, ok := obj.(*world.Character)
	require.True(t, ok, "%q is not a character", name)
	return c
}

// run executes one command for Robin and returns the result.
func (f *fixture) run(t *testing.T, raw string) engine.Result {
	t.Helper()
	res, err := f.engine.HandleCommand(context.Background(), f.robin.ID, raw)
	require.NoError(t, err)
	return res
}

func TestHandleCommand_Invalid(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "dance wildly")
	assert.False(t, res.Success)
	assert.Equal(t, `"dance wildly" is not a valid command.`, res.Message)

	// The failed attempt is journaled.
	last, err := f.jnl.LastFailure(context.Background(), f.robin.ID)
	require.NoError(t, err)
	assert.Equal(t, "dance wildly", last.Raw)
}

func TestHandleCommand_UnknownCharacter(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.HandleCommand(context.Background(), f.world.ID, "look")
	assert.Error(t, err)
}

func TestLook(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "look")
	require.True(t, res.Success)
	lines := strings.Split(res.Message, "\n")
	assert.Equal(t, "You look around. You see the serene front lawn of a quaint little library.", lines[0])
	assert.Contains(t, lines, "You can go to ruined mansion.")
	assert.Contains(t, lines, "You can go to pawn shop.")
	assert.Contains(t, lines, "There is a crumpled flyer here.")
}

func TestLook_HiddenPathsUnlisted(t *testing.T) {
	ctx := context.Background()
	content := &world.Content{
		Locations: []world.AreaLocation{
			{
				Names:       []string{"Meadow"},
				Description: "A meadow.",
				Exits: []world.AreaExit{
					{To: "Grove", Preposition: "to", Noun: "grove"},
					{To: "Cave", Preposition: "into", Noun: "cave", Hidden: true},
				},
			},
			{Names: []string{"Grove"}, Description: "A grove.",
				Exits: []world.AreaExit{{To: "Meadow", Preposition: "to", Noun: "meadow"}}},
			{Names: []string{"Cave"}, Description: "A cave.",
				Exits: []world.AreaExit{{To: "Meadow", Preposition: "to", Noun: "meadow"}}},
		},
		Characters: []world.AreaCharacter{
			{Names: []string{"Robin"}, Location: "Meadow", User: "local"},
		},
	}
	store := world.NewMemoryStore()
	w := &world.World{Owner: "local", Name: "Hidden"}
	require.NoError(t, content.Build(ctx, store, w))

	obj, err := store.ResolveEntity(ctx, w.ID, "Robin")
	require.NoError(t, err)
	robin := obj.(*world.Character)

	eng := engine.New(store, journal.NewMemory(), command.New(command.DefaultRules()), zap.NewNop())

	res, err := eng.HandleCommand(ctx, robin.ID, "look")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "You can go to grove.")
	assert.NotContains(t, res.Message, "cave", "hidden paths stay out of the listing")

	// Hidden paths remain traversable by an exact match.
	res, err = eng.HandleCommand(ctx, robin.ID, "go cave")
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
}

func TestGo_NoDestination(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "go")
	assert.False(t, res.Success)
	assert.Equal(t, "You must specify where you want to go.", res.Message)
}

func TestGo_UnknownDestination(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "go to observatory")
	assert.False(t, res.Success)
	assert.Equal(t, "You cannot go to observatory.", res.Message)
}

func TestGo_ByPrepositionAndNoun(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "go to ruined mansion")
	require.True(t, res.Success, res.Message)
	assert.True(t, strings.HasPrefix(res.Message, "You go to ruined mansion.\n"), res.Message)
	assert.Contains(t, res.Message, "You see an eerie entrance to a crumbling mansion.")

	moved := f.character(t, "Robin")
	obj, err := f.store.ResolveEntity(context.Background(), f.world.ID, "mansion")
	require.NoError(t, err)
	assert.Equal(t, obj.Ent().ID, moved.PositionID)
}

func TestGo_ByDestinationName(t *testing.T) {
	f := newFixture(t)

	// "pawn shop" is both the path noun and the location name; a bare noun
	// works without a preposition.
	res := f.run(t, "go pawn shop")
	require.True(t, res.Success, res.Message)

	// From the shop, "go library" matches the destination's name.
	res = f.run(t, "go library")
	require.True(t, res.Success, res.Message)
}

func TestGo_LonePreposition(t *testing.T) {
	f := newFixture(t)

	f.run(t, "go to ruined mansion")
	res := f.run(t, "go inside")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "You go inside.")
	assert.Contains(t, res.Message, "once-grand living room")
}

func TestGo_Back(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "go back")
	assert.False(t, res.Success, "no previous position yet")
	assert.Equal(t, "You cannot go back.", res.Message)

	f.run(t, "go to ruined mansion")
	res = f.run(t, "go back")
	require.True(t, res.Success, res.Message)
	moved := f.character(t, "Robin")
	obj, err := f.store.ResolveEntity(context.Background(), f.world.ID, "library")
	require.NoError(t, err)
	assert.Equal(t, obj.Ent().ID, moved.PositionID)
}

func TestGo_Blocked(t *testing.T) {
	f := newFixture(t)

	f.run(t, "go to ruined mansion")
	f.run(t, "go inside")
	res := f.run(t, "go through trapdoor")
	assert.False(t, res.Success)
	assert.Equal(t,
		"You could not go through trapdoor. A large bronze padlock holds the trapdoor firmly in place.",
		res.Message)

	// Still in the living room.
	moved := f.character(t, "Robin")
	obj, err := f.store.ResolveEntity(context.Background(), f.world.ID, "living room")
	require.NoError(t, err)
	assert.Equal(t, obj.Ent().ID, moved.PositionID)
}

func TestGo_MultipleBlocks(t *testing.T) {
	ctx := context.Background()
	content := &world.Content{
		Locations: []world.AreaLocation{
			{
				Names:       []string{"Yard"},
				Description: "A yard.",
				Exits:       []world.AreaExit{{To: "Vault", Preposition: "through", Noun: "vault"}},
				Items: []world.AreaItem{
					{Names: []string{"chain key"}, UnlockDescription: "The chain falls away."},
					{Names: []string{"bar key"}, UnlockDescription: "The bar clatters to the floor."},
				},
			},
			{Names: []string{"Vault"}, Description: "A vault.",
				Exits: []world.AreaExit{{To: "Yard", Preposition: "to", Noun: "yard"}}},
		},
		Blocks: []world.AreaBlock{
			{Names: []string{"Heavy Chain"}, From: "Yard", To: "Vault", OneWay: true,
				UnlockedBy: "chain key", Description: "A heavy chain seals the door."},
			{Names: []string{"Iron Bar"}, From: "Yard", To: "Vault", OneWay: true,
				UnlockedBy: "bar key", Description: "An iron bar is wedged across it."},
		},
		Characters: []world.AreaCharacter{
			{Names: []string{"Robin"}, Location: "Yard", User: "local"},
		},
	}
	store := world.NewMemoryStore()
	w := &world.World{Owner: "local", Name: "Vaultworld"}
	require.NoError(t, content.Build(ctx, store, w))

	obj, err := store.ResolveEntity(ctx, w.ID, "Robin")
	require.NoError(t, err)
	robin := obj.(*world.Character)

	eng := engine.New(store, journal.NewMemory(), command.New(command.DefaultRules()), zap.NewNop())

	res, err := eng.HandleCommand(ctx, robin.ID, "go through vault")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t,
		"You could not go through vault. A heavy chain seals the door. Additionally, An iron bar is wedged across it.",
		res.Message)

	// Clearing one obstruction still leaves the other in the way.
	res, err = eng.HandleCommand(ctx, robin.ID, "take chain key")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	res, err = eng.HandleCommand(ctx, robin.ID, "use chain key on heavy chain")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	res, err = eng.HandleCommand(ctx, robin.ID, "go through vault")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t,
		"You could not go through vault. An iron bar is wedged across it.",
		res.Message)
}

func TestTakeAndDrop(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "take flyer")
	require.True(t, res.Success)
	assert.Equal(t, "You pick up crumpled flyer.", res.Message)

	carried, err := f.store.ItemsCarriedBy(context.Background(), f.robin.ID)
	require.NoError(t, err)
	require.Len(t, carried, 1)

	res = f.run(t, "take flyer")
	assert.False(t, res.Success)
	assert.Equal(t, `You don't see a nearby "flyer."`, res.Message)

	res = f.run(t, "drop flyer")
	require.True(t, res.Success)
	assert.Equal(t, "You drop crumpled flyer.", res.Message)

	res = f.run(t, "drop flyer")
	assert.False(t, res.Success)
	assert.Equal(t, `You are not carrying an item named "flyer."`, res.Message)
}

func TestTake_CarryLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Fill Robin's hands by shrinking the limit to what is already carried.
	robin := f.character(t, "Robin")
	robin.CarryLimit = 0
	require.NoError(t, f.store.SaveCharacter(ctx, robin))

	res := f.run(t, "take flyer")
	assert.False(t, res.Success)
	assert.Equal(t, "You cannot carry anything more.", res.Message)
}

func TestRead(t *testing.T) {
	f := newFixture(t)

	// Readable where it lies.
	res := f.run(t, "read flyer")
	require.True(t, res.Success)
	assert.Equal(t,
		"Robin Vale read crumpled flyer. It said: ESTATE CLEARANCE at Curiosity Corner.",
		res.Message)

	// Readable while carried.
	f.run(t, "take flyer")
	res = f.run(t, "read flyer")
	assert.True(t, res.Success)

	// Not everything has writing on it.
	f.run(t, "go pawn shop")
	res = f.run(t, "read crowbar")
	assert.False(t, res.Success)
	assert.Equal(t, "There is nothing to read on rusty crowbar.", res.Message)

	res = f.run(t, "read novel")
	assert.False(t, res.Success)
	assert.Equal(t, `You don't see a nearby "novel."`, res.Message)
}

func TestUse_KeyOnBlock(t *testing.T) {
	f := newFixture(t)

	// Fetch the key, then stand before the trapdoor.
	f.run(t, "go pawn shop")
	res := f.run(t, "take key")
	require.True(t, res.Success, res.Message)
	f.run(t, "go library")
	f.run(t, "go to ruined mansion")
	f.run(t, "go inside")

	res = f.run(t, "use key on trapdoor")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "The padlock pops open with a satisfying click.", res.Message)

	// Unlocking is permanent and happens exactly once.
	res = f.run(t, "use key on trapdoor")
	assert.False(t, res.Success)
	assert.Equal(t, "Trapdoor was already unlocked.", res.Message)

	// The way down is open now.
	res = f.run(t, "go through trapdoor")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "hidden underground bunker")

	// And back up.
	res = f.run(t, "go ladder")
	require.True(t, res.Success, res.Message)
}

func TestUse_Failures(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, "use key on trapdoor")
	assert.False(t, res.Success)
	assert.Equal(t, `You are not carrying an item named "key."`, res.Message)

	f.run(t, "take flyer")
	res = f.run(t, "use flyer on ghost")
	assert.False(t, res.Success)
	assert.Equal(t, `There is no entity named "ghost" nearby.`, res.Message)

	// The trapdoor is across town; the block is out of reach from the lawn.
	res = f.run(t, "use flyer on trapdoor")
	assert.False(t, res.Success)
	assert.Equal(t, `There is no entity named "trapdoor" nearby.`, res.Message)

	// A non-key item on a reachable character.
	res = f.run(t, "use flyer on Robin Vale")
	assert.False(t, res.Success)
	assert.Equal(t, "crumpled flyer cannot be used on Robin Vale.", res.Message)
}

func TestAttack(t *testing.T) {
	f := newFixture(t)

	f.run(t, "go to ruined mansion")
	res := f.run(t, "attack Marlow")
	require.True(t, res.Success, res.Message)
	assert.Equal(t,
		"Robin Vale attacked with their fists.\n"+
			"Marlow Finch defended with leather satchel.\n"+
			"Marlow Finch took 1 damage.\n"+
			"Marlow Finch retaliated with their fists.\n"+
			"Robin Vale defended with their fists.\n"+
			"Robin Vale took 1 damage.",
		res.Message)

	// Both sides' hit points are persisted.
	assert.Equal(t, 9, f.character(t, "Robin").HP)
	assert.Equal(t, 9, f.character(t, "Marlow").HP)
}

func TestAttack_NobodyThere(t *testing.T) {
	f := newFixture(t)

	// Marlow exists but is elsewhere.
	res := f.run(t, "attack Marlow")
	assert.False(t, res.Success)
	assert.Equal(t,
		"Robin Vale looked around for Marlow, but couldn't find anyone by that name to attack.",
		res.Message)

	res = f.run(t, "attack the mayor")
	assert.False(t, res.Success)
	assert.Equal(t,
		"Robin Vale looked around for the mayor, but couldn't find anyone by that name to attack.",
		res.Message)
}

func TestAttack_DeadDefender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	marlow := f.character(t, "Marlow")
	marlow.HP = 0
	require.NoError(t, f.store.SaveCharacter(ctx, marlow))

	f.run(t, "go to ruined mansion")
	res := f.run(t, "attack Marlow")
	assert.True(t, res.Success)
	assert.Equal(t,
		"Marlow Finch is already dead, but Robin Vale kicked them a few times just to be sure.",
		res.Message)
	assert.Equal(t, 10, f.character(t, "Robin").HP, "kicking the dead costs nothing")
}

func TestAttack_ToTheDeath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	marlow := f.character(t, "Marlow")
	marlow.HP = 1
	require.NoError(t, f.store.SaveCharacter(ctx, marlow))

	f.run(t, "go to ruined mansion")
	res := f.run(t, "attack Marlow")
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "Marlow Finch took 1 damage and died.")
	assert.NotContains(t, res.Message, "retaliated")
	assert.Equal(t, 0, f.character(t, "Marlow").HP)
	assert.Equal(t, 10, f.character(t, "Robin").HP)
}

func TestJournal_RecordsEveryAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.run(t, "look")
	f.run(t, "go nowhere at all")
	f.run(t, "take flyer")

	history, err := f.jnl.History(ctx, f.robin.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "look", history[0].Raw)
	assert.True(t, history[0].Success)
	assert.Equal(t, "go nowhere at all", history[1].Raw)
	assert.False(t, history[1].Success)
	assert.Equal(t, "take flyer", history[2].Raw)
	assert.True(t, history[2].Success)
}
