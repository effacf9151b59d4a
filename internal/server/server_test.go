package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/metrics"
)

type fakeRoutes struct {
	route *fuelroute.Route
	err   error
	calls int
}

func (f *fakeRoutes) Route(_ context.Context, start, end string) (*fuelroute.Route, error) {
	f.calls++
	return f.route, f.err
}

type fakeStations struct {
	stations []fuelroute.Station
	err      error
}

func (f *fakeStations) AllStations(context.Context) ([]fuelroute.Station, error) {
	return f.stations, f.err
}

func (f *fakeStations) NearbyStations(_ context.Context, point fuelroute.Coordinate, radius float64) ([]fuelroute.StationDistance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fuelroute.StationsWithin(point, f.stations, radius), nil
}

type fakeGeocoder struct {
	loc fuelroute.Coordinate
	err error
}

func (f *fakeGeocoder) Geocode(context.Context, string) (fuelroute.Coordinate, error) {
	return f.loc, f.err
}

var (
	pointA = fuelroute.Coordinate{Lat: 35.0, Lng: -100.0}
	pointB = fuelroute.Coordinate{Lat: 35.0, Lng: -90.0}

	testStations = []fuelroute.Station{
		{ID: 1, Name: "STOP A", Price: 3.50, Coordinate: pointA},
		{ID: 2, Name: "STOP B", Price: 3.80, Coordinate: pointB},
		{ID: 3, Name: "STOP A2", Price: 3.90, Coordinate: fuelroute.Coordinate{Lat: 35.1, Lng: -100.0}},
	}
)

func route1200() *fuelroute.Route {
	step := 600 * fuelroute.MetersPerMile
	return &fuelroute.Route{
		DistanceMeters: 2 * step,
		Steps: []fuelroute.Step{
			{DistanceMeters: step, EndLocation: pointA},
			{DistanceMeters: step, EndLocation: pointB},
		},
	}
}

func newTestServer(routes *fuelroute.Route, routeErr error, rateLimit int) (*Server, *fakeRoutes, *metrics.Collector) {
	provider := &fakeRoutes{route: routes, err: routeErr}
	store := &fakeStations{stations: testStations}
	m := metrics.NewCollector()
	srv := New(Options{
		Planner:   fuelroute.NewPlanner(provider, store, fuelroute.PlannerConfig{}, nil),
		Stations:  store,
		Geocoder:  &fakeGeocoder{loc: pointA},
		Metrics:   m,
		RateLimit: rateLimit,
	})
	return srv, provider, m
}

func postRoute(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleRoute(t *testing.T) {
	srv, provider, _ := newTestServer(route1200(), nil, 0)

	rec := postRoute(t, srv.Handler(), `{"start":"Amarillo, TX","end":"Nashville, TN"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var report fuelroute.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.DistanceMiles != 1200 {
		t.Errorf("distance_miles = %v, want 1200", report.DistanceMiles)
	}
	if report.TotalFuelCost != 438 {
		t.Errorf("total_fuel_cost = %v, want 438", report.TotalFuelCost)
	}
	if len(report.FuelStops) != 2 || report.FuelStops[0].Name != "STOP A" || report.FuelStops[1].Name != "STOP B" {
		t.Errorf("unexpected fuel stops: %+v", report.FuelStops)
	}
	if len(report.FuelStopPoints) != 2 {
		t.Errorf("expected 2 fuel stop points, got %d", len(report.FuelStopPoints))
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}

	var raw map[string]any
	json.Unmarshal(rec.Body.Bytes(), &raw)
	for _, key := range []string{"distance_miles", "fuel_stop_points", "fuel_stops", "total_fuel_cost"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	stop := raw["fuel_stops"].([]any)[0].(map[string]any)
	for _, key := range []string{"name", "price", "lat", "lng"} {
		if _, ok := stop[key]; !ok {
			t.Errorf("fuel stop missing %q", key)
		}
	}
}

func TestHandleRoute_MissingInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{"},
		{"missing end", `{"start":"Amarillo, TX"}`},
		{"blank start", `{"start":"  ","end":"Nashville, TN"}`},
		{"same locations", `{"start":"Dallas","end":"dallas"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, provider, _ := newTestServer(route1200(), nil, 0)
			rec := postRoute(t, srv.Handler(), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			want := `{"error":"Start and end locations are required"}`
			if got := strings.TrimSpace(rec.Body.String()); got != want {
				t.Errorf("body = %s, want %s", got, want)
			}
			if provider.calls != 0 {
				t.Errorf("provider called %d times", provider.calls)
			}
		})
	}
}

func TestHandleRoute_ProviderFailure(t *testing.T) {
	err := &fuelroute.ProviderError{Status: "ZERO_RESULTS"}
	srv, _, m := newTestServer(nil, err, 0)

	rec := postRoute(t, srv.Handler(), `{"start":"Honolulu","end":"Tokyo"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	want := `{"error":"Google Maps API failed"}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}

	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(metricsRec.Body.String(), `fuelroute_route_evaluations_total{outcome="provider_failure"} 1`) {
		t.Error("provider failure not counted")
	}
}

func TestHandleRoute_InternalError(t *testing.T) {
	srv, _, _ := newTestServer(nil, errors.New("connection refused"), 0)

	rec := postRoute(t, srv.Handler(), `{"start":"Amarillo, TX","end":"Nashville, TN"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error details leaked to the client")
	}
}

func TestHandleRoute_TrailingSlash(t *testing.T) {
	srv, _, _ := newTestServer(route1200(), nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/route/", strings.NewReader(`{"start":"a","end":"b"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleNearby(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil, 0)
	h := srv.Handler()

	tests := []struct {
		name     string
		query    string
		status   int
		cheapest string
		count    int
	}{
		{"coordinates", "lat=35.0&lng=-100.0", http.StatusOK, "STOP A", 2},
		{"small radius", "lat=35.0&lng=-100.0&radius=1", http.StatusOK, "STOP A", 1},
		{"location", "location=Somewhere", http.StatusOK, "STOP A", 2},
		{"no stations", "lat=40.0&lng=-120.0", http.StatusNotFound, "", 0},
		{"bad latitude", "lat=north&lng=-100.0", http.StatusBadRequest, "", 0},
		{"latitude out of range", "lat=91&lng=-100.0", http.StatusBadRequest, "", 0},
		{"missing longitude", "lat=35.0", http.StatusBadRequest, "", 0},
		{"bad radius", "lat=35.0&lng=-100.0&radius=-5", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stations/nearby?"+tt.query, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var resp NearbyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Cheapest.Name != tt.cheapest {
				t.Errorf("cheapest = %q, want %q", resp.Cheapest.Name, tt.cheapest)
			}
			if len(resp.Stations) != tt.count {
				t.Errorf("expected %d stations, got %d", tt.count, len(resp.Stations))
			}
		})
	}
}

func TestHandleNearby_GeocodingFailure(t *testing.T) {
	store := &fakeStations{stations: testStations}
	srv := New(Options{
		Planner:  fuelroute.NewPlanner(nil, store, fuelroute.PlannerConfig{}, nil),
		Stations: store,
		Geocoder: &fakeGeocoder{err: errors.New("no results")},
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stations/nearby?location=Atlantis", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil, 0)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fuelroute_route_evaluation_duration_seconds") {
		t.Errorf("metrics: %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil, 2)
	h := srv.Handler()

	var codes []int
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}

	if fmt.Sprint(codes) != fmt.Sprint([]int{200, 200, 429}) {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}
