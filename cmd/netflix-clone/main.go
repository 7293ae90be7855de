package main

import (
	"flag"
	"log"

	"github.com/BheeshamKS/Netflix-Clone/config"
	"github.com/BheeshamKS/Netflix-Clone/db"
	"github.com/BheeshamKS/Netflix-Clone/routes"
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

	dbService := db.NewDBServiceWithDSN(cfg.GetDBDriver(), cfg.GetDBURL())
	if err := dbService.RunMigrations(); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	api := &routes.API{
		DB:     dbService,
		Config: cfg,
		TMDB:   tmdb.NewClient(cfg.GetTMDBKey()),
	}
	api.Run()
}
