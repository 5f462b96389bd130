package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/climash/dashboard/internal/weather"
)

const searchBody = `{"results": [
	{"name": "Valencia", "admin1": "Valencian Community", "country": "Spain", "latitude": 39.47, "longitude": -0.38},
	{"name": "Valencia", "admin1": "Carabobo", "country": "Venezuela", "latitude": 10.16, "longitude": -68.0}
]}`

func newSearchServer(t *testing.T, body string, gotQuery *map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		if gotQuery != nil {
			q := r.URL.Query()
			*gotQuery = map[string]string{
				"name":     q.Get("name"),
				"count":    q.Get("count"),
				"language": q.Get("language"),
			}
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestOpenMeteoGeocoderSearch(t *testing.T) {
	var q map[string]string
	srv := newSearchServer(t, searchBody, &q)
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.URL, "es", time.Second, 100, 10)
	places, err := g.Search(context.Background(), "Valencia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("got %d places, want 2", len(places))
	}
	if q["name"] != "Valencia" || q["count"] != "5" || q["language"] != "es" {
		t.Errorf("unexpected query %v", q)
	}
	if got := places[0].Location(); got.Name != "Valencia, Spain" || got.Latitude != 39.47 {
		t.Errorf("location = %+v", got)
	}
}

func TestOpenMeteoGeocoderFiltersByRegion(t *testing.T) {
	var q map[string]string
	srv := newSearchServer(t, searchBody, &q)
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.URL, "en", time.Second, 100, 10)
	places, err := g.Search(context.Background(), "Valencia, venezuela")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].Region != "Carabobo" {
		t.Fatalf("places = %+v, want only Carabobo", places)
	}
	if q["name"] != "Valencia" || q["count"] != "10" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestOpenMeteoGeocoderNoResults(t *testing.T) {
	srv := newSearchServer(t, `{"generationtime_ms": 0.5}`, nil)
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.URL, "es", time.Second, 100, 10)
	if _, err := g.Search(context.Background(), "Atlantis"); !errors.Is(err, weather.ErrNoPlaces) {
		t.Fatalf("expected ErrNoPlaces, got %v", err)
	}
	if _, err := g.Search(context.Background(), " , Spain"); !errors.Is(err, weather.ErrNoPlaces) {
		t.Fatalf("expected ErrNoPlaces for empty name, got %v", err)
	}
}

func TestOpenMeteoGeocoderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.URL, "es", time.Second, 100, 10)
	_, err := g.Search(context.Background(), "Madrid")
	if err == nil || errors.Is(err, weather.ErrNoPlaces) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGoogleGeocoderSearch(t *testing.T) {
	g := NewGoogleGeocoder("test-key", 100, 10)
	var got geocoder.Address
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		got = a
		if geocoder.ApiKey != "test-key" {
			t.Errorf("api key = %q", geocoder.ApiKey)
		}
		return geocoder.Location{Latitude: 41.39, Longitude: 2.17}, nil
	}

	places, err := g.Search(context.Background(), "Barcelona, Spain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.City != "Barcelona" || got.Country != "Spain" {
		t.Errorf("address = %+v", got)
	}
	if len(places) != 1 || places[0].Latitude != 41.39 {
		t.Fatalf("places = %+v", places)
	}
}

func TestGoogleGeocoderErrors(t *testing.T) {
	g := NewGoogleGeocoder("test-key", 100, 10)
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}
	if _, err := g.Search(context.Background(), "Nowhere"); !errors.Is(err, weather.ErrNoPlaces) {
		t.Fatalf("expected ErrNoPlaces, got %v", err)
	}

	if _, err := NewGoogleGeocoder("", 1, 1).Search(context.Background(), "Madrid"); err == nil {
		t.Fatal("expected error without api key")
	}
}
