package fuelroute

import "sort"

// CheapestStation returns the lowest priced station within radius miles of
// point. When several stations share the lowest price the first one in
// stations wins. The boolean is false when no station is in range.
func CheapestStation(point Coordinate, stations []Station, radius float64) (Station, bool) {
	var cheapest Station
	found := false
	for i := range stations {
		station := &stations[i]
		if Distance(point, station.Coordinate) > radius {
			continue
		}
		if !found || station.Price < cheapest.Price {
			cheapest = *station
			found = true
		}
	}
	return cheapest, found
}

// StationsWithin returns every station within radius miles of point, sorted
// by price (cheapest first) and then by distance.
func StationsWithin(point Coordinate, stations []Station, radius float64) []StationDistance {
	nearby := make([]StationDistance, 0)
	for i := range stations {
		distance := Distance(point, stations[i].Coordinate)
		if distance <= radius {
			nearby = append(nearby, StationDistance{
				Station:       stations[i],
				DistanceMiles: distance,
			})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].Price != nearby[j].Price {
			return nearby[i].Price < nearby[j].Price
		}
		return nearby[i].DistanceMiles < nearby[j].DistanceMiles
	})

	return nearby
}
