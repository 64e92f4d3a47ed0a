package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func defaultParser() *Parser {
	return New(DefaultRules())
}

func TestParse_Look(t *testing.T) {
	p := defaultParser()

	for _, in := range []string{"look", "LOOK", "look around", "  look  "} {
		cmd, ok := p.Parse(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, VerbLook, cmd.Verb)
	}

	// "look" with trailing junk is not a look.
	_, ok := p.Parse("look at me")
	assert.False(t, ok)
}

func TestParse_Go(t *testing.T) {
	p := defaultParser()

	tests := []struct {
		in   string
		prep string
		noun string
	}{
		{"go to library", "to", "library"},
		{"go to ruined mansion", "to", "ruined mansion"},
		{"go through trapdoor", "through", "trapdoor"},
		{"go inside", "inside", ""},
		{"go outside", "outside", ""},
		{"go back", "back", ""},
		{"go ladder", "", "ladder"},
		{"GO TO Library", "TO", "Library"},
		{"go", "", ""},
	}
	for _, tt := range tests {
		cmd, ok := p.Parse(tt.in)
		require.True(t, ok, "input %q", tt.in)
		assert.Equal(t, VerbGo, cmd.Verb)
		assert.Equal(t, tt.prep, cmd.Arg(0), "input %q preposition", tt.in)
		assert.Equal(t, tt.noun, cmd.Arg(1), "input %q noun", tt.in)
	}
}

func TestParse_GoPrepositionNeedsWordBoundary(t *testing.T) {
	p := defaultParser()

	// "towards" must not split into "to" + "wards".
	cmd, ok := p.Parse("go towards the hills")
	require.True(t, ok)
	assert.Equal(t, "", cmd.Arg(0))
	assert.Equal(t, "towards the hills", cmd.Arg(1))
}

func TestParse_TakeAndDrop(t *testing.T) {
	p := defaultParser()

	cmd, ok := p.Parse(`take "Bronze Key"`)
	require.True(t, ok)
	assert.Equal(t, VerbTake, cmd.Verb)
	assert.Equal(t, "Bronze Key", cmd.Arg(0))

	cmd, ok = p.Parse("pick up crowbar")
	require.True(t, ok)
	assert.Equal(t, VerbTake, cmd.Verb)
	assert.Equal(t, "crowbar", cmd.Arg(0))

	cmd, ok = p.Parse("drop crowbar")
	require.True(t, ok)
	assert.Equal(t, VerbDrop, cmd.Verb)
	assert.Equal(t, "crowbar", cmd.Arg(0))

	_, ok = p.Parse("take")
	assert.False(t, ok)
}

func TestParse_Use(t *testing.T) {
	p := defaultParser()

	cmd, ok := p.Parse(`use "Bronze Key" on "Locked Trapdoor"`)
	require.True(t, ok)
	assert.Equal(t, VerbUse, cmd.Verb)
	assert.Equal(t, "Bronze Key", cmd.Arg(0))
	assert.Equal(t, "Locked Trapdoor", cmd.Arg(1))

	cmd, ok = p.Parse("use key on trapdoor")
	require.True(t, ok)
	assert.Equal(t, "key", cmd.Arg(0))
	assert.Equal(t, "trapdoor", cmd.Arg(1))

	_, ok = p.Parse("use key")
	assert.False(t, ok)
}

func TestParse_Read(t *testing.T) {
	p := defaultParser()

	cmd, ok := p.Parse("read flyer")
	require.True(t, ok)
	assert.Equal(t, VerbRead, cmd.Verb)
	assert.Equal(t, "flyer", cmd.Arg(0))
}

func TestParse_Attack(t *testing.T) {
	p := defaultParser()

	cmd, ok := p.Parse("attack Marlow Finch")
	require.True(t, ok)
	assert.Equal(t, VerbAttack, cmd.Verb)
	assert.Equal(t, "Marlow Finch", cmd.Arg(0))
}

func TestParse_Invalid(t *testing.T) {
	p := defaultParser()

	for _, in := range []string{"", "   ", "dance", "lookgo", "attack"} {
		_, ok := p.Parse(in)
		assert.False(t, ok, "input %q should not parse", in)
	}
}

func TestArg_OutOfRange(t *testing.T) {
	cmd := Command{Verb: VerbGo, Args: []string{"to"}}
	assert.Equal(t, "to", cmd.Arg(0))
	assert.Equal(t, "", cmd.Arg(1))
	assert.Equal(t, "", cmd.Arg(-1))
}

// Property: Parse never panics and any parsed command carries a known verb
// with trimmed arguments.
func TestPropertyParseIsTotal(t *testing.T) {
	known := map[string]bool{
		VerbLook: true, VerbGo: true, VerbTake: true, VerbDrop: true,
		VerbUse: true, VerbRead: true, VerbAttack: true,
	}
	p := defaultParser()
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.String().Draw(t, "line")
		cmd, ok := p.Parse(line)
		if !ok {
			return
		}
		if !known[cmd.Verb] {
			t.Fatalf("unknown verb %q from input %q", cmd.Verb, line)
		}
		for i, a := range cmd.Args {
			if a != "" && (a[0] == ' ' || a[len(a)-1] == ' ') {
				t.Fatalf("arg %d untrimmed: %q", i, a)
			}
		}
	})
}
