package main

import (
	"fmt"
	"os"

	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import fuel stations from a CSV price list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "csv",
				Usage:    "CSV file with Truckstop Name, Address, City, State and Retail Price columns",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "geocoder",
				Usage: "Geocoding provider (google or nominatim)",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pause between geocoding requests",
			},
		},
		Action: importAction,
	}
}

func importAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	geocoder, err := newGeocoder(cfg, c.String("geocoder"))
	if err != nil {
		return err
	}

	delay := cfg.ImportDelay
	if c.IsSet("delay") {
		delay = c.Duration("delay")
	}

	f, err := os.Open(c.String("csv"))
	if err != nil {
		return fmt.Errorf("error opening CSV file: %w", err)
	}
	defer f.Close()

	storage, err := stations.NewStorage(c.Context, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	summary, err := stations.NewImporter(storage, geocoder, delay, logger).ImportCSV(c.Context, f)
	if summary != nil {
		fmt.Fprintf(c.App.Writer, "Read %d rows: %d imported, %d duplicates, %d skipped\n",
			summary.Read, summary.Imported, summary.Duplicates, summary.Skipped)
	}
	return err
}
