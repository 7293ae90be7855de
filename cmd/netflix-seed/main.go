// netflix-seed refreshes the local catalog cache from TMDB. One-shot:
// run it before first serving traffic and whenever the catalog should be
// refreshed. Partial failures are logged and skipped; an interrupted run
// keeps whatever it already committed.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/BheeshamKS/Netflix-Clone/config"
	"github.com/BheeshamKS/Netflix-Clone/db"
	"github.com/BheeshamKS/Netflix-Clone/ingest"
	"github.com/BheeshamKS/Netflix-Clone/tmdb"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file; else environment/.env")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	} else {
		cfg = config.Load()
	}
	if cfg.GetTMDBKey() == "" {
		log.Fatal("TMDB_API_KEY is required")
	}

	dbService := db.NewDBServiceWithDSN(cfg.GetDBDriver(), cfg.GetDBURL())
	if err := dbService.RunMigrations(); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := rate.NewLimiter(rate.Every(cfg.GetSeedDelay()), 1)
	total, err := ingest.Run(ctx, dbService, tmdb.NewClient(cfg.GetTMDBKey()), limiter)
	if err != nil {
		// Cancellation mid-run: committed rows stay, nothing to undo.
		log.Printf("seed interrupted: %v", err)
	}
	log.Printf("seed complete: %d new rows", total)
}
