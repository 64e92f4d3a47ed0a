// Package main provides a database migration runner.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/havenbrook/lowfi-mmo/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "path to migration files")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	dbCfg, err := loadDatabaseConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	start := time.Now()
	m, err := migrate.New("file://"+*migrationsDir, dbCfg.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, *direction, *steps); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, _ := m.Version()
	fmt.Printf("%s: version=%d dirty=%v [%s]\n",
		*direction, version, dirty, time.Since(start).Round(time.Millisecond))
}

// loadDatabaseConfig reads just the database section of the config file, so
// the runner works against configs whose other sections are incomplete.
func loadDatabaseConfig(path string) (config.DatabaseConfig, error) {
	var dbCfg config.DatabaseConfig

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return dbCfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	sub := v.Sub("database")
	if sub == nil {
		return dbCfg, fmt.Errorf("config %s has no database section", path)
	}
	if err := sub.Unmarshal(&dbCfg); err != nil {
		return dbCfg, fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg, nil
}

func run(m *migrate.Migrate, direction string, steps int) error {
	var err error
	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no changes to apply")
		return nil
	}
	return err
}
