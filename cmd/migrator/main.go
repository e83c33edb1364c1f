// Command migrator applies the embedded schema migrations the
// database-backed service plugin depends on. It is a standalone binary
// so the schema can be bootstrapped ahead of a cleanroom run; the
// database container plugin applies the same migrations itself through
// internal/schema and does not run this binary.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
)

var (
	ErrUnknownCommand    = errors.New("unknown command")
	ErrDropRequiresForce = errors.New("drop requires --force: this destroys all data")
)

func main() {
	var (
		help    = flag.Bool("help", false, "show usage")
		force   = flag.Bool("force", false, "allow destructive operations")
		command string
	)

	flag.Parse()

	if *help || flag.NArg() == 0 {
		printUsage()
		os.Exit(0)
	}

	command = flag.Arg(0)

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}

	runner, err := NewMigrationRunner(cfg)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer func() { _ = runner.Close() }()

	if err := execute(command, runner, *force); err != nil {
		log.Fatalf("migrator: %v", err)
	}
}

func execute(command string, runner MigrationRunner, force bool) error {
	switch command {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "status":
		return runner.Status()
	case "version":
		return runner.Version()
	case "drop":
		if !force {
			return ErrDropRequiresForce
		}

		return runner.Drop()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func printUsage() {
	fmt.Println(`migrator - apply embedded schema migrations

USAGE:
    migrator [OPTIONS] COMMAND

COMMANDS:
    up       apply all pending migrations
    down     roll back the most recent migration
    status   show current schema version
    version  show current schema version
    drop     drop all tables (requires --force)

OPTIONS:
    --help   show this usage text
    --force  allow the drop command to run

ENVIRONMENT:
    CLNRM_DATABASE_URL     postgres connection string (required)
    CLNRM_MIGRATION_TABLE  schema_migrations table name (default schema_migrations)`)
}
