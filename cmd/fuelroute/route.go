package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/gpxroute"
	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/urfave/cli/v2"
)

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Plan fuel stops between two locations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Start location",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "End location",
			},
			&cli.StringFlag{
				Name:  "gpx",
				Usage: "Read the route from a GPX file instead of Google Maps",
			},
			&cli.StringFlag{
				Name:  "gpx-out",
				Usage: "Write the route and selected stations to a GPX file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
		},
		Action: routeAction,
	}
}

func routeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	storage, err := stations.NewStorage(c.Context, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	var provider fuelroute.RouteProvider
	if c.String("gpx") == "" {
		if err := cfg.RequireAPIKey(); err != nil {
			return err
		}
		provider = fuelroute.NewMapsProvider(mapsClient(cfg))
	}
	planner := fuelroute.NewPlanner(provider, storage, cfg.PlannerConfig(), logger)

	var route *fuelroute.Route
	if path := c.String("gpx"); path != "" {
		route, err = gpxroute.Load(path)
	} else {
		route, err = planner.FetchRoute(c.Context, c.String("start"), c.String("end"))
	}
	if errors.Is(err, fuelroute.ErrMissingInput) {
		return errors.New("start and end locations are required (or use --gpx)")
	}
	if err != nil {
		return err
	}

	report, err := planner.EvaluateRoute(c.Context, route)
	if err != nil {
		return err
	}

	if out := c.String("gpx-out"); out != "" {
		if err := writeGPX(out, route, report); err != nil {
			return err
		}
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(c.App.Writer, report)
	return nil
}

func writeGPX(path string, route *fuelroute.Route, report *fuelroute.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating GPX file: %w", err)
	}
	if err := gpxroute.WriteReport(f, route, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, report *fuelroute.Report) {
	fmt.Fprintf(w, "Distance: %.2f miles\n", report.DistanceMiles)
	fmt.Fprintf(w, "Fuel stop points: %d\n\n", len(report.FuelStopPoints))

	for i, st := range report.FuelStops {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, st.Name, st.Address)
		fmt.Fprintf(w, "   City: %s, %s\n", st.City, st.State)
		fmt.Fprintf(w, "   Price: $%.3f\n", st.Price)
		fmt.Fprintf(w, "   Coordinates: %.5f, %.5f\n\n", st.Lat, st.Lng)
	}
	if missing := len(report.FuelStopPoints) - len(report.FuelStops); missing > 0 {
		fmt.Fprintf(w, "%d fuel stop point(s) without a station in range\n\n", missing)
	}

	fmt.Fprintf(w, "Estimated fuel cost: $%.2f\n", report.TotalFuelCost)
}
