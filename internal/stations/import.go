package stations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/geocode"
)

const DefaultImportDelay = 100 * time.Millisecond

// CSV header names, matched case-insensitively.
const (
	columnName    = "truckstop name"
	columnAddress = "address"
	columnCity    = "city"
	columnState   = "state"
	columnPrice   = "retail price"
)

var requiredColumns = []string{columnName, columnAddress, columnCity, columnState, columnPrice}

// StationWriter is the store side of an import.
type StationWriter interface {
	HasStation(ctx context.Context, name, address string) (bool, error)
	AddStation(ctx context.Context, station fuelroute.Station) (int64, error)
}

// ImportSummary counts what happened to the rows of an import.
type ImportSummary struct {
	Read       int
	Imported   int
	Duplicates int
	Skipped    int
}

// Importer loads stations from a CSV price list, geocoding every new station.
type Importer struct {
	store    StationWriter
	geocoder geocode.Geocoder
	delay    time.Duration
	log      *slog.Logger
}

// NewImporter creates an Importer that waits delay after each geocoding call
// to stay under the provider's rate limits.
func NewImporter(store StationWriter, geocoder geocode.Geocoder, delay time.Duration, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{
		store:    store,
		geocoder: geocoder,
		delay:    delay,
		log:      logger,
	}
}

// ImportCSV reads a price list with the columns "Truckstop Name", "Address",
// "City", "State" and "Retail Price". Rows repeating a (name, address) pair
// already seen in the file or present in the store are skipped, and so are
// rows that cannot be parsed or geocoded. Only store failures abort the import.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	columns, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	seen := make(map[string]struct{})

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}
		summary.Read++

		station, err := stationFromRecord(record, columns)
		if err != nil {
			im.log.Warn("Skipping invalid row", "line", line, "error", err)
			summary.Skipped++
			continue
		}

		key := station.Name + "\x00" + station.Address
		if _, ok := seen[key]; ok {
			summary.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		exists, err := im.store.HasStation(ctx, station.Name, station.Address)
		if err != nil {
			return summary, err
		}
		if exists {
			summary.Duplicates++
			continue
		}

		query := geocodeQuery(station)
		loc, err := im.geocoder.Geocode(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			if errors.Is(err, geocode.ErrNoResults) {
				im.log.Warn("No geocoding results", "address", query)
			} else {
				im.log.Warn("Geocoding failed", "address", query, "error", err)
			}
			summary.Skipped++
			if err := im.pause(ctx); err != nil {
				return summary, err
			}
			continue
		}
		station.Coordinate = loc

		if _, err := im.store.AddStation(ctx, station); err != nil {
			return summary, err
		}
		summary.Imported++
		im.log.Info("Imported station", "name", station.Name, "lat", loc.Lat, "lng", loc.Lng)

		if err := im.pause(ctx); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (im *Importer) pause(ctx context.Context) error {
	if im.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(im.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func columnIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing CSV columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func stationFromRecord(record []string, columns map[string]int) (fuelroute.Station, error) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	station := fuelroute.Station{
		Name:    field(columnName),
		Address: field(columnAddress),
		City:    field(columnCity),
		State:   field(columnState),
	}
	if station.Name == "" || station.Address == "" {
		return station, errors.New("name and address are required")
	}

	price, err := parsePrice(field(columnPrice))
	if err != nil {
		return station, err
	}
	station.Price = price

	return station, nil
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return price, nil
}

func geocodeQuery(station fuelroute.Station) string {
	return fmt.Sprintf("%s, %s, %s, USA", station.Address, station.City, station.State)
}
