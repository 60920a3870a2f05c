package main

import (
	"context"
	"fmt"

	"github.com/questlog-app/questlog/internal/config"
	handler "github.com/questlog-app/questlog/internal/handler/http"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/server"
	"github.com/questlog-app/questlog/internal/service"
	"github.com/questlog-app/questlog/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("questlog-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()

	storages, err := store.NewStorages(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if closeErr := storages.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("closing storages")
		}
	}()

	hub := handler.NewHub(log)
	services := service.NewServices(storages, hub, cfg, log)
	handlers := handler.NewHandler(services, hub, log)

	srv, err := server.NewServer(handlers.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
