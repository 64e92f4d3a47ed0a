// Package engine resolves parsed commands against the world graph: movement,
// item pickup and use, reading, and combat. It is the single inbound surface
// for the view layer.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/havenbrook/lowfi-mmo/internal/game/command"
	"github.com/havenbrook/lowfi-mmo/internal/game/journal"
	"github.com/havenbrook/lowfi-mmo/internal/game/world"
)

// Result is the player-facing outcome of one command. Expected game-logic
// failures (bad input, missing targets, blocked paths) are failed Results,
// never errors; errors are reserved for invariant violations and storage
// faults, which abort the whole command transaction.
type Result struct {
	// Success reports whether the command took effect.
	Success bool
	// Message is the text shown to the player.
	Message string
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

func succeed(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Engine executes commands for characters. Each command runs inside a
// single store transaction covering every state change and the log entry.
type Engine struct {
	store   world.Store
	journal journal.Journal
	parser  *command.Parser
	logger  *zap.Logger
}

// New creates an Engine.
//
// Precondition: all dependencies must be non-nil.
func New(store world.Store, jnl journal.Journal, parser *command.Parser, logger *zap.Logger) *Engine {
	return &Engine{store: store, journal: jnl, parser: parser, logger: logger}
}

// HandleCommand parses and resolves one raw input line for a character.
// Every attempt, successful or not, is recorded in the journal. A returned
// error means the command transaction aborted with no state change and no
// log entry; the caller should show a generic error to the player.
func (e *Engine) HandleCommand(ctx context.Context, characterID uuid.UUID, raw string) (Result, error) {
	var res Result
	err := e.store.Atomic(ctx, func(ctx context.Context) error {
		char, err := e.store.Character(ctx, characterID)
		if err != nil {
			return fmt.Errorf("loading character: %w", err)
		}

		cmd, ok := e.parser.Parse(raw)
		if !ok {
			res = fail("\"%s\" is not a valid command.", raw)
		} else {
			res, err = e.dispatch(ctx, char, cmd)
			if err != nil {
				return err
			}
		}

		return e.journal.Append(ctx, &journal.Entry{
			CharacterID: char.ID,
			Raw:         raw,
			Success:     res.Success,
			Message:     res.Message,
		})
	})
	if err != nil {
		e.logger.Error("command aborted",
			zap.String("character_id", characterID.String()),
			zap.String("raw", raw),
			zap.Error(err))
		return Result{}, err
	}

	e.logger.Debug("command handled",
		zap.String("character_id", characterID.String()),
		zap.String("raw", raw),
		zap.Bool("success", res.Success))
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, char *world.Character, cmd command.Command) (Result, error) {
	switch cmd.Verb {
	case command.VerbLook:
		return e.look(ctx, char)
	case command.VerbGo:
		return e.move(ctx, char, cmd.Arg(0), cmd.Arg(1))
	case command.VerbTake:
		return e.take(ctx, char, cmd.Arg(0))
	case command.VerbDrop:
		return e.drop(ctx, char, cmd.Arg(0))
	case command.VerbUse:
		return e.use(ctx, char, cmd.Arg(0), cmd.Arg(1))
	case command.VerbRead:
		return e.read(ctx, char, cmd.Arg(0))
	case command.VerbAttack:
		return e.attack(ctx, char, cmd.Arg(0))
	default:
		return fail("\"%s\" is not a valid command.", cmd.Verb), nil
	}
}
