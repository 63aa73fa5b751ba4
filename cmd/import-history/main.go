// Command import-history loads an exported history JSON file into the
// database for a given owner token. Useful for migrating a browser-exported
// history onto a fresh deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"protiq/internal/config"
	"protiq/internal/db"
	"protiq/internal/history"
)

func main() {
	owner := flag.String("owner", "", "owner token to import the history under")
	replace := flag.Bool("replace", false, "replace the owner's existing history instead of merging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: import-history [-owner token] [-replace] <history.json>")
		os.Exit(2)
	}

	if err := run(context.Background(), flag.Arg(0), *owner, *replace); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, owner string, replace bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("history file path must not be empty")
	}
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("owner token must not be empty")
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read history file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	store := history.NewStoreWithLimit(database, cfg.History.Limit)
	imported, err := store.Import(ctx, owner, blob, replace)
	if err != nil {
		return fmt.Errorf("import history: %w", err)
	}

	fmt.Printf("imported %d records for owner %s\n", imported, owner)
	return nil
}
