package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/config"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/server"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "Server port (overrides PORT)")
	dev := flag.Bool("dev", false, "Development mode: colored debug logs")
	configFile := flag.String("config", "", "TOML config file (overrides CONFIG_FILE)")
	flag.Parse()

	if *configFile != "" {
		if err := os.Setenv("CONFIG_FILE", *configFile); err != nil {
			log.Fatalf("Failed to set config file: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
}
