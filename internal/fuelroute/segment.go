package fuelroute

// FuelStopPoints walks the route steps in order and returns the end location
// of every step at which the distance driven since the last refuel reaches
// maxRange miles. Points always sit on step boundaries, so a route shorter
// than maxRange yields no points at all.
func FuelStopPoints(route *Route, maxRange float64) []Coordinate {
	if route == nil {
		return nil
	}

	var points []Coordinate
	var driven float64
	for _, step := range route.Steps {
		driven += step.DistanceMeters / MetersPerMile
		if driven >= maxRange {
			points = append(points, step.EndLocation)
			driven = 0
		}
	}
	return points
}
