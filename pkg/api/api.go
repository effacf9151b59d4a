// Package api provides a small client for the Google Maps web services used to
// plan fuel stops: the Directions API for driving routes and the Geocoding API
// to locate fuel stations from their postal address.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ApiResultOK          = "OK"
	ApiResultZeroResults = "ZERO_RESULTS"
	DefaultTimeout       = 30 * time.Second
	DefaultBaseURL       = "https://maps.googleapis.com/maps/api"
)

// MapsAPI provides methods to fetch routes and coordinates from Google Maps.
type MapsAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMapsAPI creates a new MapsAPI client with default settings.
func NewMapsAPI(apiKey string) *MapsAPI {
	return NewMapsAPIWithBaseURL(apiKey, DefaultBaseURL)
}

// NewMapsAPIWithBaseURL creates a MapsAPI client talking to baseURL instead of
// the public Google endpoint.
func NewMapsAPIWithBaseURL(apiKey, baseURL string) *MapsAPI {
	return &MapsAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Directions fetches the driving route between origin and destination.
// A non-OK Status is not reported as an error; callers decide what to do with it.
func (api *MapsAPI) Directions(ctx context.Context, origin, destination string) (*DirectionsResponse, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)

	var directions DirectionsResponse
	if err := api.get(ctx, "directions/json", params, &directions); err != nil {
		return nil, err
	}
	return &directions, nil
}

// Geocode resolves a free-text address into candidate locations.
func (api *MapsAPI) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	params := url.Values{}
	params.Set("address", address)

	var geocode GeocodeResponse
	if err := api.get(ctx, "geocode/json", params, &geocode); err != nil {
		return nil, err
	}
	return &geocode, nil
}

func (api *MapsAPI) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", api.apiKey)
	u := fmt.Sprintf("%s/%s?%s", api.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	resp, err := api.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshaling JSON: %w", err)
	}

	return nil
}
