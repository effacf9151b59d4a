package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rubiojr/fuelroute/internal/config"
	"github.com/rubiojr/fuelroute/internal/geocode"
	"github.com/rubiojr/fuelroute/pkg/api"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fuelroute",
		Usage: "Estimate fuel stops and cost along a driving route",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite file or postgres:// URL (overrides the configuration)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			routeCommand(),
			importCommand(),
			listNearbyCommand(),
			serveCommand(),
			migrateCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	return cfg, nil
}

func newLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("debug") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func mapsClient(cfg *config.Config) *api.MapsAPI {
	if cfg.GoogleMapsAPIKey == "" {
		return nil
	}
	return api.NewMapsAPIWithBaseURL(cfg.GoogleMapsAPIKey, cfg.MapsBaseURL)
}

func newGeocoder(cfg *config.Config, provider string) (geocode.Geocoder, error) {
	if provider == "" {
		provider = cfg.Geocoder
	}
	if provider == geocode.ProviderGoogle {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}
	return geocode.New(provider, mapsClient(cfg), cfg.NominatimServer)
}
