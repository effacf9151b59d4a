package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/geocode"
	"github.com/rubiojr/fuelroute/internal/metrics"
	"github.com/rubiojr/fuelroute/internal/server"
	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the route planning HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.addr)",
			},
			&cli.IntFlag{
				Name:  "rate-limit",
				Usage: "Requests per minute and client IP, 0 disables (defaults to server.rate_limit)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	level := cfg.LogLevel()
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := httplog.NewLogger("fuelroute", httplog.Options{
		JSON:            false,
		LogLevel:        level,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := stations.NewStorage(ctx, cfg.DB, logger.Logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	count, err := storage.CountStations(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		logger.Warn("Station database is empty, run the import command first", "db", cfg.DB)
	}

	maps := mapsClient(cfg)
	planner := fuelroute.NewPlanner(fuelroute.NewMapsProvider(maps), storage, cfg.PlannerConfig(), logger.Logger)

	geocoder, err := geocode.New(cfg.Geocoder, maps, cfg.NominatimServer)
	if err != nil {
		return err
	}

	rateLimit := cfg.Server.RateLimit
	if c.IsSet("rate-limit") {
		rateLimit = c.Int("rate-limit")
	}
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	srv := server.New(server.Options{
		Planner:   planner,
		Stations:  storage,
		Geocoder:  geocoder,
		Metrics:   metrics.NewCollector(),
		Logger:    logger,
		RateLimit: rateLimit,
	})

	return srv.ListenAndServe(ctx, addr)
}
