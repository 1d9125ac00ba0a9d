package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"perpcrank/internal/stats"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <up|prune>")
		fmt.Println("  up    - create the funding_stats schema if missing")
		fmt.Println("  prune - delete funding snapshots older than the retention window")
		fmt.Println()
		fmt.Println("Environment:")
		fmt.Println("  CRANK_POSTGRES_DSN      - Postgres connection string (required)")
		fmt.Println("  CRANK_STATS_RETENTION   - retention for prune (default: 720h)")
		os.Exit(1)
	}

	dsn := os.Getenv("CRANK_POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("FATAL: CRANK_POSTGRES_DSN is required")
	}

	ctx := context.Background()
	store, err := stats.OpenStore(ctx, dsn)
	if err != nil {
		log.Fatalf("FATAL: open stats store: %v", err)
	}
	defer store.Close()

	switch os.Args[1] {
	case "up":
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("FATAL: ensure schema: %v", err)
		}
		log.Println("INFO: funding_stats schema ready")

	case "prune":
		retention := 720 * time.Hour
		if raw := os.Getenv("CRANK_STATS_RETENTION"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				log.Fatalf("FATAL: parse CRANK_STATS_RETENTION: %v", err)
			}
			retention = parsed
		}
		deleted, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			log.Fatalf("FATAL: prune: %v", err)
		}
		log.Printf("INFO: pruned %d snapshot(s) older than %s", deleted, retention)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (use 'up' or 'prune')\n", os.Args[1])
		os.Exit(1)
	}
}
