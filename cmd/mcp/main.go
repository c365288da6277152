package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/config"
	"github.com/hwalsh/yasbridge/pkg/db"
	yasmcp "github.com/hwalsh/yasbridge/pkg/mcp"
	"github.com/hwalsh/yasbridge/pkg/poller"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

const maintainInterval = 250 * time.Millisecond

func main() {
	// Logging must go to stderr — stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/yasbridge/yasbridge.db)")
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Link manager over the bound rfcomm tty
	transport := bluetooth.NewSerialTransport(cfg.Bridge.Soundbar.TTY)
	manager := bluetooth.NewManager(bluetooth.Config{
		Address:        cfg.Bridge.Soundbar.Address,
		Name:           cfg.Bridge.Soundbar.Name,
		PIN:            cfg.Bridge.Soundbar.PIN,
		ReconnectDelay: time.Duration(cfg.Bridge.Poll.ReconnectDelayMs) * time.Millisecond,
		StatusTimeout:  time.Duration(cfg.Bridge.Poll.StatusTimeoutMs) * time.Millisecond,
	}, transport, database, yas.Encode)

	if err := manager.LoadBonding(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load bonding flag")
	}

	synchronizer := poller.New(poller.Config{
		Interval: time.Duration(cfg.Bridge.Poll.IntervalMs) * time.Millisecond,
	}, manager, bus.New())

	if err := manager.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial connect failed, will retry")
	}

	// Keep the link alive while tools are served.
	go func() {
		ticker := time.NewTicker(maintainInterval)
		defer ticker.Stop()
		for range ticker.C {
			manager.Maintain(ctx)
			synchronizer.Tick(ctx)
		}
	}()

	// Create and start MCP server
	mcpServer := yasmcp.NewServer(manager, synchronizer)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
