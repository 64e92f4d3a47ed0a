// Package main provides the interactive play binary: it loads a world,
// binds a character, and feeds stdin lines through the command engine.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/havenbrook/lowfi-mmo/internal/config"
	"github.com/havenbrook/lowfi-mmo/internal/game/command"
	"github.com/havenbrook/lowfi-mmo/internal/game/engine"
	"github.com/havenbrook/lowfi-mmo/internal/game/journal"
	"github.com/havenbrook/lowfi-mmo/internal/game/world"
	"github.com/havenbrook/lowfi-mmo/internal/observability"
	"github.com/havenbrook/lowfi-mmo/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	worldName := flag.String("world", "Havenbrook", "world to play in")
	owner := flag.String("owner", "local", "world owner")
	characterName := flag.String("character", "", "character to play as")
	flag.Parse()

	if *characterName == "" {
		fmt.Fprintln(os.Stderr, "usage: play -character <name> [-config <file>] [-world <name>] [-owner <name>]")
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	store, jnl, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	w, err := store.WorldByName(ctx, *owner, *worldName)
	if errors.Is(err, world.ErrNotFound) && cfg.Game.Store == "memory" {
		w, err = buildWorld(ctx, store, cfg.Game.ContentDir, *owner, *worldName, logger)
	}
	if err != nil {
		logger.Fatal("loading world", zap.String("world", *worldName), zap.Error(err))
	}

	char, err := findCharacter(ctx, store, w.ID, *characterName)
	if err != nil {
		logger.Fatal("binding character", zap.String("character", *characterName), zap.Error(err))
	}

	logger.Info("world ready",
		zap.String("world", w.Name),
		zap.String("character", char.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)

	eng := engine.New(store, jnl, command.New(command.DefaultRules()), logger)
	repl(ctx, eng, jnl, char.ID, cfg.Game.HistoryLimit)
}

// openStore builds the configured backend. The postgres store doubles as
// the journal; the memory store pairs with an in-memory one.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (world.Store, journal.Journal, error) {
	switch cfg.Game.Store {
	case "postgres":
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		s := postgres.NewStore(pool)
		return s, s, nil
	default:
		return world.NewMemoryStore(), journal.NewMemory(), nil
	}
}

// buildWorld creates a fresh in-memory world from the declarative area
// files.
func buildWorld(ctx context.Context, store world.Store, contentDir, owner, name string, logger *zap.Logger) (*world.World, error) {
	loadStart := time.Now()
	content, err := world.LoadAreaDir(contentDir)
	if err != nil {
		return nil, fmt.Errorf("loading areas: %w", err)
	}

	w := &world.World{Owner: owner, Name: name}
	if err := content.Build(ctx, store, w); err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}
	logger.Info("world built",
		zap.Int("locations", len(content.Locations)),
		zap.Int("blocks", len(content.Blocks)),
		zap.Int("characters", len(content.Characters)),
		zap.Duration("elapsed", time.Since(loadStart)),
	)
	return w, nil
}

func findCharacter(ctx context.Context, store world.Store, worldID uuid.UUID, name string) (*world.Character, error) {
	obj, err := store.ResolveEntity(ctx, worldID, name)
	if err != nil {
		return nil, err
	}
	char, ok := obj.(*world.Character)
	if !ok {
		return nil, fmt.Errorf("%q is not a character", name)
	}
	return char, nil
}

func repl(ctx context.Context, eng *engine.Engine, jnl journal.Journal, characterID uuid.UUID, historyLimit int) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`Type a command ("look" is a good start). "history" shows your log, "quit" leaves.`)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return
		case "history":
			printHistory(ctx, jnl, characterID, historyLimit)
			continue
		}

		result, err := eng.HandleCommand(ctx, characterID, line)
		if err != nil {
			fmt.Println("Something went wrong. Try again.")
			continue
		}
		fmt.Println(result.Message)
	}
}

func printHistory(ctx context.Context, jnl journal.Journal, characterID uuid.UUID, limit int) {
	entries, err := jnl.History(ctx, characterID, limit)
	if err != nil {
		fmt.Printf("history unavailable: %v\n", err)
		return
	}
	for _, e := range entries {
		mark := "ok"
		if !e.Success {
			mark = "failed"
		}
		fmt.Printf("[%s] %-6s %s\n", e.CreatedAt.Format(time.TimeOnly), mark, e.Raw)
	}
}
