package fuelroute

import "testing"

// stepsOfMiles builds a route whose steps have the given lengths in miles.
// Each step ends at a distinct latitude so emitted points can be identified.
func stepsOfMiles(miles ...float64) *Route {
	route := &Route{}
	for i, m := range miles {
		meters := m * MetersPerMile
		route.Steps = append(route.Steps, Step{
			DistanceMeters: meters,
			EndLocation:    Coordinate{Lat: float64(i + 1), Lng: -100},
		})
		route.DistanceMeters += meters
	}
	return route
}

func TestFuelStopPoints(t *testing.T) {
	tests := []struct {
		name     string
		route    *Route
		maxRange float64
		wantLats []float64
	}{
		{
			name:     "nil route",
			route:    nil,
			maxRange: 500,
		},
		{
			name:     "no steps",
			route:    &Route{},
			maxRange: 500,
		},
		{
			name:     "shorter than range",
			route:    stepsOfMiles(100, 200, 199),
			maxRange: 500,
		},
		{
			name:     "exactly one range",
			route:    stepsOfMiles(250, 250),
			maxRange: 500,
			wantLats: []float64{2},
		},
		{
			name:     "1200 miles",
			route:    stepsOfMiles(250, 250, 250, 250, 200),
			maxRange: 500,
			wantLats: []float64{2, 4},
		},
		{
			name:     "reset happens at the step boundary, not at the threshold",
			route:    stepsOfMiles(300, 300, 300, 300),
			maxRange: 500,
			wantLats: []float64{2, 4},
		},
		{
			name:     "single step longer than range emits once",
			route:    stepsOfMiles(1600),
			maxRange: 500,
			wantLats: []float64{1},
		},
		{
			name:     "many small steps",
			route:    stepsOfMiles(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100),
			maxRange: 500,
			wantLats: []float64{5, 10},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			points := FuelStopPoints(test.route, test.maxRange)
			if len(points) != len(test.wantLats) {
				t.Fatalf("got %d points (%v), want %d", len(points), points, len(test.wantLats))
			}
			for i, p := range points {
				if p.Lat != test.wantLats[i] {
					t.Errorf("point %d at lat %v, want %v", i, p.Lat, test.wantLats[i])
				}
			}
		})
	}
}

func TestFuelStopPointsOnStepBoundaries(t *testing.T) {
	route := stepsOfMiles(120, 340, 90, 410, 75, 600, 30)
	ends := make(map[Coordinate]bool, len(route.Steps))
	for _, s := range route.Steps {
		ends[s.EndLocation] = true
	}

	for _, p := range FuelStopPoints(route, 500) {
		if !ends[p] {
			t.Errorf("point %v is not a step end location", p)
		}
	}
}
