package fuelroute

// EstimateCost returns the fuel spend for driving totalMiles, assuming
// DefaultMilesPerGallon and paying the average price of the selected stations
// for every gallon. It returns 0 when no station was selected.
func EstimateCost(totalMiles float64, stations []Station) float64 {
	return estimateCost(totalMiles, DefaultMilesPerGallon, stations)
}

// The blended average is applied to the whole trip; gallons are not
// apportioned to the leg where each price was observed.
func estimateCost(totalMiles, milesPerGallon float64, stations []Station) float64 {
	if len(stations) == 0 {
		return 0
	}

	var sum float64
	for i := range stations {
		sum += stations[i].Price
	}
	avgPrice := sum / float64(len(stations))
	gallons := totalMiles / milesPerGallon

	return gallons * avgPrice
}
