// Package fuelroute estimates the fuel cost of a driving route. It splits a
// route into refuel points every few hundred miles, picks the cheapest known
// station near each point and turns the selected prices into a trip cost.
package fuelroute

import "math"

const (
	MetersPerMile    = 1609.34
	EarthRadiusMiles = 3959.0

	DefaultMaxRangeMiles     = 500.0
	DefaultSearchRadiusMiles = 50.0
	DefaultMilesPerGallon    = 10.0
)

const (
	decimalBase         = 10
	reportDecimalPlaces = 2
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is a fuel station with a known retail price.
type Station struct {
	ID      int64   `json:"id,omitempty"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Price   float64 `json:"price"`
	Coordinate
}

// Step is a single segment of a route, as reported by the mapping provider.
type Step struct {
	DistanceMeters float64    `json:"distance_meters"`
	EndLocation    Coordinate `json:"end_location"`
}

// Route is an ordered list of steps from an origin to a destination.
type Route struct {
	Start          Coordinate `json:"start"`
	DistanceMeters float64    `json:"distance_meters"`
	Steps          []Step     `json:"steps"`
}

// Miles returns the total route distance in miles.
func (r *Route) Miles() float64 {
	return r.DistanceMeters / MetersPerMile
}

// Report is the outcome of a route evaluation.
type Report struct {
	DistanceMiles  float64      `json:"distance_miles"`
	FuelStopPoints []Coordinate `json:"fuel_stop_points"`
	FuelStops      []Station    `json:"fuel_stops"`
	TotalFuelCost  float64      `json:"total_fuel_cost"`
}

// StationDistance associates a Station with its distance (miles) to a point.
type StationDistance struct {
	Station
	DistanceMiles float64 `json:"distance_miles"`
}

func roundPrecision(v float64, decimalPlaces int) float64 {
	factor := math.Pow(decimalBase, float64(decimalPlaces))
	return math.Round(v*factor) / factor
}
