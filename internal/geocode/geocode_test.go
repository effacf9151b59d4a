package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/muesli/gominatim"
	"github.com/rubiojr/fuelroute/pkg/api"
)

func TestGoogle_Geocode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLat   float64
		wantLng   float64
		wantErr   bool
		noResults bool
	}{
		{
			name:    "first result wins",
			body:    `{"status":"OK","results":[{"geometry":{"location":{"lat":37.0842,"lng":-94.5133}}},{"geometry":{"location":{"lat":1,"lng":2}}}]}`,
			wantLat: 37.0842,
			wantLng: -94.5133,
		},
		{
			name:      "zero results",
			body:      `{"status":"ZERO_RESULTS","results":[]}`,
			wantErr:   true,
			noResults: true,
		},
		{
			name:      "ok without results",
			body:      `{"status":"OK","results":[]}`,
			wantErr:   true,
			noResults: true,
		},
		{
			name:    "request denied",
			body:    `{"status":"REQUEST_DENIED","error_message":"invalid key","results":[]}`,
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(test.body))
			}))
			defer srv.Close()

			g := NewGoogle(api.NewMapsAPIWithBaseURL("key", srv.URL))
			got, err := g.Geocode(context.Background(), "1 Main St, Joplin, MO, USA")
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				if errors.Is(err, ErrNoResults) != test.noResults {
					t.Errorf("errors.Is(ErrNoResults) mismatch for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Lat != test.wantLat || got.Lng != test.wantLng {
				t.Errorf("got %v, want %v,%v", got, test.wantLat, test.wantLng)
			}
		})
	}
}

func TestGoogle_GeocodeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogle(api.NewMapsAPIWithBaseURL("key", srv.URL))
	_, err := g.Geocode(context.Background(), "anywhere")
	if err == nil || errors.Is(err, ErrNoResults) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNominatim_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewNominatim("").Geocode(ctx, "Madrid"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResultToCoordinate(t *testing.T) {
	tests := []struct {
		lat, lon string
		wantErr  bool
	}{
		{"40.4168", "-3.7038", false},
		{"invalid", "-3.7038", true},
		{"40.4168", "", true},
	}

	for _, test := range tests {
		got, err := resultToCoordinate(gominatim.SearchResult{Lat: test.lat, Lon: test.lon})
		if test.wantErr {
			if err == nil {
				t.Errorf("resultToCoordinate(%q, %q) expected error but got none", test.lat, test.lon)
			}
			continue
		}
		if err != nil {
			t.Errorf("resultToCoordinate(%q, %q) unexpected error: %v", test.lat, test.lon, err)
		}
		if got.Lat != 40.4168 || got.Lng != -3.7038 {
			t.Errorf("resultToCoordinate(%q, %q) = %v", test.lat, test.lon, got)
		}
	}
}

func TestNew(t *testing.T) {
	maps := api.NewMapsAPI("key")
	tests := []struct {
		provider string
		maps     *api.MapsAPI
		wantErr  bool
	}{
		{"google", maps, false},
		{"", maps, false},
		{"GOOGLE", maps, false},
		{"google", nil, true},
		{"nominatim", nil, false},
		{"bing", maps, true},
	}

	for _, test := range tests {
		g, err := New(test.provider, test.maps, "")
		if test.wantErr {
			if err == nil {
				t.Errorf("New(%q) expected error", test.provider)
			}
			continue
		}
		if err != nil || g == nil {
			t.Errorf("New(%q) = %v, %v", test.provider, g, err)
		}
	}
}
