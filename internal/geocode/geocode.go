// Package geocode resolves postal addresses into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/pkg/api"
)

const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"

	DefaultNominatimServer = "https://nominatim.openstreetmap.org/"
)

// ErrNoResults is returned when the provider knows no location for an address.
var ErrNoResults = errors.New("no geocoding results")

// Geocoder converts a free-text address into a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (fuelroute.Coordinate, error)
}

// New returns the Geocoder named by provider. maps is only used by the
// Google geocoder and nominatimServer only by the Nominatim one.
func New(provider string, maps *api.MapsAPI, nominatimServer string) (Geocoder, error) {
	switch strings.ToLower(provider) {
	case "", ProviderGoogle:
		if maps == nil {
			return nil, errors.New("google geocoder requires a maps client")
		}
		return NewGoogle(maps), nil
	case ProviderNominatim:
		return NewNominatim(nominatimServer), nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q", provider)
	}
}
