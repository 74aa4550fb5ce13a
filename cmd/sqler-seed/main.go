package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/database"
	"github.com/sqler/sqler/internal/demo"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up|down")
	steps := flag.Int("steps", 0, "number of migration steps; 0 means all for up, 1 for down")
	flag.Parse()

	cfg, err := config.LoadFromEnv("sqler-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runner := demo.NewRunner(db.Dialect)
	switch *direction {
	case "up":
		applied, err := runner.Up(ctx, db.DB, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		rolledBack, err := runner.Down(ctx, db.DB, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d migration(s)\n", rolledBack)
	default:
		fmt.Fprintf(os.Stderr, "invalid direction: %s\n", *direction)
		os.Exit(1)
	}
}
