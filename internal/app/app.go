// Package app is the composition root: it builds every component from
// configuration and owns their lifetimes.
package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"espforge/internal/builder"
	"espforge/internal/config"
	"espforge/internal/hardware"
	"espforge/internal/history"
	"espforge/internal/llm"
	"espforge/internal/server"
	"espforge/internal/simulator"
)

type App struct {
	server  *server.Server
	client  llm.Client
	history *history.Store
}

func New(args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.ProjectsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create projects root: %w", err)
	}

	var client llm.Client
	if cfg.GeminiAPIKey == "" {
		log.Printf("GEMINI_API_KEY not set, using the offline fake client")
		client = llm.NewFakeClient()
	} else {
		client, err = llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create generation client: %w", err)
		}
	}

	b, err := builder.New(client, cfg.ProjectsRoot)
	if err != nil {
		return nil, err
	}

	hist := history.NewFromEnv(cfg.HistoryDSN, cfg.HistoryPath)

	handlers := &server.Handlers{
		Builder: b,
		Sims:    simulator.NewRegistry(simulator.SourceScan{}),
		Bridge:  hardware.NewBridge(cfg.SerialBaud),
		History: hist,
	}

	return &App{
		server:  server.New(cfg.Port, server.NewMux(handlers)),
		client:  client,
		history: hist,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	_ = a.client.Close()
	_ = a.history.Close()
	return a.server.Shutdown(ctx)
}
