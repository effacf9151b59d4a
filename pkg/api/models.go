package api

// LatLng is a WGS84 position as returned by Google Maps.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TextValue pairs a human readable text with its numeric value
// (meters for distances, seconds for durations).
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// DirectionsResponse represents the response structure from the Directions API.
type DirectionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []Route `json:"routes"`
}

// Route is one of the routes suggested by the Directions API.
type Route struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

// Leg is a journey between two waypoints of a route.
type Leg struct {
	Distance      TextValue `json:"distance"`
	Duration      TextValue `json:"duration"`
	StartAddress  string    `json:"start_address"`
	EndAddress    string    `json:"end_address"`
	StartLocation LatLng    `json:"start_location"`
	EndLocation   LatLng    `json:"end_location"`
	Steps         []Step    `json:"steps"`
}

// Step is a single driving instruction of a leg.
type Step struct {
	Distance         TextValue `json:"distance"`
	Duration         TextValue `json:"duration"`
	StartLocation    LatLng    `json:"start_location"`
	EndLocation      LatLng    `json:"end_location"`
	HTMLInstructions string    `json:"html_instructions"`
	TravelMode       string    `json:"travel_mode"`
}

// GeocodeResponse represents the response structure from the Geocoding API.
type GeocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []GeocodeResult `json:"results"`
}

// GeocodeResult is a single candidate location for a geocoded address.
type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Geometry         Geometry `json:"geometry"`
}

// Geometry holds the location of a geocoding result.
type Geometry struct {
	Location     LatLng `json:"location"`
	LocationType string `json:"location_type"`
}
