package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/reverie/internal/agent"
	"github.com/scrypster/reverie/internal/config"
	"github.com/scrypster/reverie/internal/oracle"
	"github.com/scrypster/reverie/internal/profile"
	"github.com/scrypster/reverie/internal/server"
	"github.com/scrypster/reverie/internal/storage"
	"github.com/scrypster/reverie/internal/storage/postgres"
	"github.com/scrypster/reverie/internal/storage/sqlite"
	"github.com/scrypster/reverie/pkg/types"
)

func main() {
	cfg := config.Load()
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	oracleCfg := oracleConfig(cfg)
	generator, err := oracle.NewTextGenerator(oracleCfg)
	if err != nil {
		log.Fatalf("Failed to create text generator: %v", err)
	}
	embedder, err := oracle.NewEmbeddingGenerator(oracleCfg)
	if err != nil {
		log.Fatalf("Failed to create embedding generator: %v", err)
	}

	gateway, index, err := openStorage(cfg, embedder)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer gateway.Close()

	profiles := profile.NewService(cfg.Agent.ProfilePath)
	watcher := profile.NewWatcher(profiles)
	if err := watcher.Start(); err != nil {
		log.Printf("Profile watcher unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := server.NewEventHub()
	a := agent.New(gateway, index, generator, profiles, agent.Options{
		SynthesisWorkers: cfg.Agent.SynthesisWorkers,
		OnSynthesisComplete: func(task *types.TaskRecord) {
			hub.Broadcast(map[string]string{
				"event":      "synthesis_complete",
				"thought_id": task.ThoughtID,
				"status":     task.Status,
			})
		},
	})
	defer a.Close()

	addr, err := server.Start(ctx, cfg, a, hub)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Reverie API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second)
}

func oracleConfig(cfg *config.Config) oracle.ClientConfig {
	provider, apiKey, model, embedModel, baseURL := cfg.Oracle.Merged()
	return oracle.ClientConfig{
		Provider:   provider,
		APIKey:     apiKey,
		Model:      model,
		EmbedModel: embedModel,
		BaseURL:    baseURL,
	}
}

// openStorage builds the gateway and vector index for the configured
// driver.
func openStorage(cfg *config.Config, embedder storage.Embedder) (storage.Gateway, storage.VectorIndex, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		gw, err := postgres.NewGateway(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return gw, postgres.NewVectorIndex(gw, embedder), nil
	default:
		gw, err := sqlite.NewGateway(cfg.Storage.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return gw, sqlite.NewVectorIndex(gw, embedder), nil
	}
}
