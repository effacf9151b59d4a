package main

import (
	"errors"
	"fmt"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/urfave/cli/v2"
)

func listNearbyCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-nearby",
		Usage: "List fuel stations near a location, cheapest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "location",
				Usage: "Location to search",
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the location",
			},
			&cli.Float64Flag{
				Name:  "lng",
				Usage: "Longitude of the location",
			},
			&cli.Float64Flag{
				Name:    "radius",
				Aliases: []string{"r"},
				Usage:   "Search radius in miles (defaults to search_radius_miles)",
			},
		},
		Action: listNearbyAction,
	}
}

func listNearbyAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)

	radius := cfg.SearchRadiusMiles
	if c.IsSet("radius") {
		radius = c.Float64("radius")
	}
	if radius <= 0 {
		return errors.New("radius must be positive")
	}

	point := fuelroute.Coordinate{Lat: c.Float64("lat"), Lng: c.Float64("lng")}
	if loc := c.String("location"); loc != "" {
		geocoder, err := newGeocoder(cfg, "")
		if err != nil {
			return err
		}
		point, err = geocoder.Geocode(c.Context, loc)
		if err != nil {
			return fmt.Errorf("error geocoding %q: %w", loc, err)
		}
		fmt.Fprintf(c.App.Writer, "Location found: %.5f, %.5f\n", point.Lat, point.Lng)
	} else if !c.IsSet("lat") || !c.IsSet("lng") {
		return errors.New("location or latitude and longitude are required")
	}

	storage, err := stations.NewStorage(c.Context, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	nearby, err := storage.NearbyStations(c.Context, point, radius)
	if err != nil {
		return fmt.Errorf("error fetching nearby stations: %w", err)
	}

	w := c.App.Writer
	for i, st := range nearby {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, st.Name, st.Address)
		fmt.Fprintf(w, "   City: %s, %s\n", st.City, st.State)
		fmt.Fprintf(w, "   Distance: %.2f mi\n", st.DistanceMiles)
		fmt.Fprintf(w, "   Price: $%.3f\n", st.Price)
		fmt.Fprintf(w, "   Coordinates: %.5f, %.5f\n\n", st.Lat, st.Lng)
	}

	fmt.Fprintf(w, "Found %d stations within %g mi radius\n", len(nearby), radius)

	return nil
}
