// Package main provides the MCP server entry point for corpus retrieval.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hexfield/ragd/internal/config"
	"github.com/hexfield/ragd/internal/embedding"
	"github.com/hexfield/ragd/internal/ingest"
	mcpserver "github.com/hexfield/ragd/internal/mcp"
	"github.com/hexfield/ragd/internal/registry"
	"github.com/hexfield/ragd/internal/segment"
	"github.com/hexfield/ragd/internal/session"
	"github.com/hexfield/ragd/internal/source"
	"github.com/hexfield/ragd/internal/store"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	port := getEnv("PORT", "8080")
	logger := slog.Default()

	backend, err := store.NewQdrantBackend(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer backend.Close()

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)

	provider := store.NewProvider(backend, embedder, logger)
	reg := registry.New(provider, session.New(), logger)

	registryPath := filepath.Join(os.Getenv("HOME"), ".ragd", "registry.yaml")
	if err := reg.LoadFile(ctx, registryPath); err != nil {
		log.Fatalf("failed to load registry: %v", err)
	}

	sizes := segment.Sizes{
		Small:  cfg.Chunking.SmallSize,
		Medium: cfg.Chunking.MediumSize,
		Large:  cfg.Chunking.LargeSize,
	}
	fetcher := source.NewWebFetcher(cfg.RequestTimeout(), int64(cfg.Fetch.MaxContentSize), logger)
	coordinator := ingest.New(sizes, cfg.Chunking.Overlap, cfg.Fetch.MaxContentSize, fetcher, logger)

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Registry:    reg,
		Coordinator: coordinator,
	})

	// Persist tenant records on shutdown so corpora created over MCP survive
	defer func() {
		if err := reg.SaveFile(registryPath); err != nil {
			log.Printf("failed to save registry: %v", err)
		}
	}()

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(backend))

	// MCP HTTP endpoint (for remote client connections)
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting ragd MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
