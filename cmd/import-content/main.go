// Package main imports declarative area files into a PostgreSQL-backed
// world.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/havenbrook/lowfi-mmo/internal/config"
	"github.com/havenbrook/lowfi-mmo/internal/game/world"
	"github.com/havenbrook/lowfi-mmo/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "path to area files (default: game.content_dir)")
	worldName := flag.String("world", "", "name for the imported world")
	owner := flag.String("owner", "local", "owner of the imported world")
	flag.Parse()

	if *worldName == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content -world <name> [-config <file>] [-content <dir>] [-owner <name>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	dir := *contentDir
	if dir == "" {
		dir = cfg.Game.ContentDir
	}

	ctx := context.Background()
	start := time.Now()

	content, err := world.LoadAreaDir(dir)
	if err != nil {
		log.Fatalf("loading areas from %s: %v", dir, err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	w := &world.World{Owner: *owner, Name: *worldName}
	if err := content.Build(ctx, store, w); err != nil {
		log.Fatalf("building world: %v", err)
	}

	fmt.Printf("imported %q (%d locations, %d blocks, %d characters) in %s\n",
		w.Name, len(content.Locations), len(content.Blocks), len(content.Characters),
		time.Since(start).Round(time.Millisecond))
}
