package main

import (
	"os"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/kamruzzaman103/library-management-server/config"
	"github.com/kamruzzaman103/library-management-server/handler"
	"github.com/kamruzzaman103/library-management-server/internal/jsonlog"
	"github.com/kamruzzaman103/library-management-server/repository"
	"github.com/kamruzzaman103/library-management-server/repository/postgres.go"
	"github.com/kamruzzaman103/library-management-server/service"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	repo    repository.Repository
	service service.Service
	handler *handler.Handler
}

func main() {
	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	// Initialize configuration
	cfg, err := config.Decode()
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	// Initialize database connection
	db, err := postgres.OpenDBConn(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", nil)

	// Other shared resources: waitgroup and the in-memory cache which
	// tracks per-borrower daily loan counts.
	var wg sync.WaitGroup
	cache := ttlcache.New(ttlcache.WithTTL[string, int64](24 * time.Hour))
	go cache.Start()

	// Application layers
	repo := repository.New(db)
	service := service.New(cfg, &wg, logger, repo)
	handler := handler.New(cfg, logger, cache, service)

	// Instantiate application
	app := &app{
		config:  cfg,
		repo:    repo,
		service: service,
		handler: handler,
	}

	// Start HTTP server
	err = app.serve(&wg, logger)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}
