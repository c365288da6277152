package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hwalsh/yasbridge/pkg/api"
	"github.com/hwalsh/yasbridge/pkg/bluetooth"
	"github.com/hwalsh/yasbridge/pkg/bus"
	"github.com/hwalsh/yasbridge/pkg/config"
	"github.com/hwalsh/yasbridge/pkg/db"
	"github.com/hwalsh/yasbridge/pkg/mqtt"
	"github.com/hwalsh/yasbridge/pkg/poller"
	"github.com/hwalsh/yasbridge/pkg/schema"
	"github.com/hwalsh/yasbridge/pkg/yas"
)

// maintainInterval is how often the link is reconciled and the poll cycle
// gets a chance to run.
const maintainInterval = 250 * time.Millisecond

func main() {
	// Configure logging
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

	// Event fan-out for MQTT and websocket clients
	eventBus := bus.New()

	// Link manager over the bound rfcomm tty
	transport := bluetooth.NewSerialTransport(cfg.Bridge.Soundbar.TTY)
	manager := bluetooth.NewManager(bluetooth.Config{
		Address:        cfg.Bridge.Soundbar.Address,
		Name:           cfg.Bridge.Soundbar.Name,
		PIN:            cfg.Bridge.Soundbar.PIN,
		ReconnectDelay: time.Duration(cfg.Bridge.Poll.ReconnectDelayMs) * time.Millisecond,
		StatusTimeout:  time.Duration(cfg.Bridge.Poll.StatusTimeoutMs) * time.Millisecond,
	}, transport, database, yas.Encode,
		bluetooth.WithNotify(func(state bluetooth.State, detail string) {
			eventBus.PublishLinkState(string(state), detail)
		}),
	)

	if err := manager.LoadBonding(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load bonding flag")
	}

	synchronizer := poller.New(poller.Config{
		Interval: time.Duration(cfg.Bridge.Poll.IntervalMs) * time.Millisecond,
	}, manager, eventBus)

	// First connect attempt; failures are retried by the maintenance loop.
	if err := manager.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial connect failed, will retry")
	}

	// Maintenance loop: reconcile the link, then poll when due.
	go func() {
		ticker := time.NewTicker(maintainInterval)
		defer ticker.Stop()
		for range ticker.C {
			manager.Maintain(ctx)
			synchronizer.Tick(ctx)
		}
	}()

	// MQTT layer (optional)
	var mqttBridge *mqtt.Bridge
	var mqttProbe func() bool
	if cfg.Bridge.MQTT.Broker != "" {
		mqttBridge = mqtt.NewBridge(mqtt.Options{
			Broker:    cfg.Bridge.MQTT.Broker,
			Username:  cfg.Bridge.MQTT.Username,
			Password:  cfg.Bridge.MQTT.Password,
			BaseTopic: cfg.Bridge.MQTT.BaseTopic,
			ClientID:  cfg.Bridge.MQTT.ClientID,
			Restart: func() {
				log.Info().Msg("Restart requested, exiting for supervisor relaunch")
				os.Exit(0)
			},
		}, manager, synchronizer, eventBus)

		if err := mqttBridge.Start(ctx); err != nil {
			log.Error().Err(err).Msg("MQTT start failed, continuing without broker")
			mqttBridge = nil
		} else {
			mqttProbe = mqttBridge.Connected
		}
	}

	// HTTP API
	router := api.NewRouter(manager, synchronizer, eventBus, schema.NewStateValidator(), mqttProbe, cfg.Bridge.HTTP.APIKey)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		if mqttBridge != nil {
			mqttBridge.Stop()
		}
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		os.Exit(0)
	}()

	// Start server
	addr := cfg.Bridge.HTTP.Addr
	log.Info().Str("address", addr).Msg("Starting API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
