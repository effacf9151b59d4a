package main

import (
	"fmt"

	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the fuel station schema",
		Action: migrateAction,
	}
}

func migrateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	storage, err := stations.NewStorageMigrate(c.Context, cfg.DB, newLogger(c))
	if err != nil {
		return err
	}
	defer storage.Close()

	count, err := storage.CountStations(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Database ready: %d stations\n", count)
	return nil
}
