package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/bowlcheck/internal/config"
	"github.com/ironsheep/bowlcheck/internal/pipeline"
	"github.com/ironsheep/bowlcheck/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := os.Getenv("BOWLCHECK_CONFIG")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bowlcheck-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("bowlcheck-mcp - MCP server that checks bowls against their receipts")
			fmt.Println()
			fmt.Println("Usage: bowlcheck-mcp [config-file]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  BOWLCHECK_CONFIG=path          Configuration file (JSON or YAML)")
			fmt.Println("  BOWLCHECK_LOG_LEVEL=debug      Log level (debug, info, warn, error)")
			fmt.Println("  OPENAI_API_KEY=...             Enables the vision service")
			fmt.Println("  BOWLCHECK_VISION_BASE_URL=...  OpenAI-compatible endpoint")
			fmt.Println("  BOWLCHECK_TESSDATA_PREFIX=...  Tesseract language data directory")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		default:
			configPath = os.Args[1]
		}
	}
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bowlcheck-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout is for MCP protocol
	log := config.NewLogger(os.Stderr, cfg.LogLevel)
	log.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit, "config", configPath)

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		log.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(p, server.Options{
		ReportTTL:   cfg.Server.ReportTTL.D(),
		Concurrency: cfg.Batch.Concurrency,
		Logger:      log.With("component", "server"),
	})
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
