package geocode

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/fuelroute/internal/fuelroute"
)

// gominatim keeps its server in a package variable.
var nominatimMu sync.Mutex

// Nominatim geocodes addresses against an OpenStreetMap Nominatim server.
type Nominatim struct {
	server string
}

func NewNominatim(server string) *Nominatim {
	if server == "" {
		server = DefaultNominatimServer
	}
	return &Nominatim{server: server}
}

// Geocode queries Nominatim for address. gominatim has no context support,
// so ctx is only checked before the request is sent.
func (n *Nominatim) Geocode(ctx context.Context, address string) (fuelroute.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return fuelroute.Coordinate{}, err
	}

	qry := gominatim.SearchQuery{
		Q: address,
	}

	nominatimMu.Lock()
	gominatim.SetServer(n.server)
	results, err := qry.Get()
	nominatimMu.Unlock()
	if err != nil {
		return fuelroute.Coordinate{}, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return fuelroute.Coordinate{}, fmt.Errorf("%w for %s", ErrNoResults, address)
	}

	return resultToCoordinate(results[0])
}

func resultToCoordinate(result gominatim.SearchResult) (fuelroute.Coordinate, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return fuelroute.Coordinate{}, fmt.Errorf("error parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return fuelroute.Coordinate{}, fmt.Errorf("error parsing longitude: %w", err)
	}

	return fuelroute.Coordinate{Lat: lat, Lng: lng}, nil
}
