package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/kavinm/tn-district-weather/internal/config"
	"github.com/kavinm/tn-district-weather/internal/pipeline"
	"github.com/kavinm/tn-district-weather/internal/registry"
	"github.com/kavinm/tn-district-weather/internal/store"
	"github.com/kavinm/tn-district-weather/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The credential is a hard precondition; fail before any network
	// activity.
	if cfg.OpenWeatherAPIKey == "" {
		fmt.Fprintln(os.Stderr, "ERROR: OPENWEATHER_API_KEY environment variable is not set.")
		os.Exit(2)
	}

	if err := registry.Validate(); err != nil {
		log.Fatalf("invalid district registry: %v", err)
	}

	// Separate clients so current and temporal fetches honor their own
	// timeouts.
	currentClient := &http.Client{Timeout: cfg.CurrentFetchTimeout}
	temporalClient := &http.Client{Timeout: cfg.TemporalFetchTimeout}
	provider := providers.NewOpenWeatherClient(currentClient, temporalClient, cfg.OpenWeatherAPIKey)

	fileStore := store.NewFileStore(cfg.OutputPath)
	job := pipeline.NewJob(registry.Districts(), provider, fileStore,
		cfg.WorkerCount, cfg.HistoryDays, cfg.ForecastDays)

	snap, err := job.Run(context.Background())
	if err != nil {
		log.Fatalf("fetch job failed: %v", err)
	}

	log.Printf("wrote snapshot to %s (districts: %d, workers: %d)",
		fileStore.Path(), len(snap.Districts), snap.Meta.WorkerCount)
}
