package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/climash/dashboard/internal/store"
	"github.com/climash/dashboard/internal/weather"
)

type fakeRunner struct {
	err      error
	lat, lon float64
}

func (f *fakeRunner) Run(_ context.Context, lat, lon float64) (*weather.Dashboard, error) {
	f.lat, f.lon = lat, lon
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Dashboard{
		Current:  weather.CurrentSnapshot{Temperature: 18, Condition: weather.ConditionClear},
		Forecast: []weather.ForecastDay{{Date: "Hoy", Day: "Sábado"}},
	}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Name() string { return "fake" }

func (fakeGeocoder) Search(_ context.Context, q string) ([]weather.Place, error) {
	switch q {
	case "Lisboa":
		return []weather.Place{{Name: "Lisboa", Country: "Portugal", Latitude: 38.72, Longitude: -9.14}}, nil
	case "boom":
		return nil, errors.New("upstream down")
	default:
		return nil, weather.ErrNoPlaces
	}
}

var madrid = weather.Location{Name: "Madrid", Latitude: 40.4168, Longitude: -3.7038}

func newTestApp(runner Runner) (*fiber.App, *store.MemoryStore) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	sessions := store.NewMemoryStore(10, time.Hour)
	RegisterRoutes(app, Deps{
		Runner:          runner,
		Geocoder:        fakeGeocoder{},
		Sessions:        sessions,
		DefaultLocation: madrid,
	})
	return app, sessions
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

// TestDashboardValidation verifies that the dashboard endpoint rejects
// missing and out-of-range coordinates.
func TestDashboardValidation(t *testing.T) {
	app, _ := newTestApp(&fakeRunner{})

	for _, target := range []string{
		"/api/v1/dashboard",
		"/api/v1/dashboard?lat=40.4",
		"/api/v1/dashboard?lat=91&lon=0",
		"/api/v1/dashboard?lat=10&lon=-181",
		"/api/v1/dashboard?lat=north&lon=0",
	} {
		resp, body := do(t, app, http.MethodGet, target, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d (%s)", target, http.StatusBadRequest, resp.StatusCode, body)
		}
	}
}

func TestDashboard(t *testing.T) {
	runner := &fakeRunner{}
	app, _ := newTestApp(runner)

	resp, body := do(t, app, http.MethodGet, "/api/v1/dashboard?lat=40.4168&lon=-3.7038", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}
	if runner.lat != 40.4168 || runner.lon != -3.7038 {
		t.Errorf("runner got %v,%v", runner.lat, runner.lon)
	}

	var dash weather.Dashboard
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dash.Current.Temperature != 18 || dash.Forecast[0].Date != "Hoy" {
		t.Errorf("unexpected dashboard %+v", dash)
	}
}

func TestDashboardFetchFailure(t *testing.T) {
	app, _ := newTestApp(&fakeRunner{err: weather.NewFetchFailure(weather.StageStatus, errors.New("500"))})

	resp, body := do(t, app, http.MethodGet, "/api/v1/dashboard?lat=0&lon=0", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != true {
		t.Errorf("unexpected error body %s", body)
	}
	if _, ok := out["current"]; ok {
		t.Errorf("failure must not carry a partial model: %s", body)
	}
}

func TestSearch(t *testing.T) {
	app, _ := newTestApp(&fakeRunner{})

	tests := []struct {
		target string
		status int
	}{
		{"/api/v1/search?q=Lisboa", http.StatusOK},
		{"/api/v1/search?q=", http.StatusBadRequest},
		{"/api/v1/search?q=" + strings.Repeat("a", 101), http.StatusBadRequest},
		{"/api/v1/search?q=Atlantis", http.StatusNotFound},
		{"/api/v1/search?q=boom", http.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, body := do(t, app, http.MethodGet, tt.target, "")
		if resp.StatusCode != tt.status {
			t.Errorf("%s: expected status %d, got %d (%s)", tt.target, tt.status, resp.StatusCode, body)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	runner := &fakeRunner{}
	app, _ := newTestApp(runner)

	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	var sel store.Selection
	if err := json.Unmarshal(body, &sel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sel.Location != madrid {
		t.Fatalf("new session location = %+v, want %+v", sel.Location, madrid)
	}

	// select by free-text query
	resp, body = do(t, app, http.MethodPut, "/api/v1/sessions/"+sel.ID+"/location", `{"query":"Lisboa"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select: expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}

	resp, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+sel.ID+"/dashboard", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}
	var out struct {
		Location weather.Location        `json:"location"`
		Current  weather.CurrentSnapshot `json:"current"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Location.Name != "Lisboa, Portugal" || runner.lat != 38.72 {
		t.Errorf("dashboard location = %+v, runner lat = %v", out.Location, runner.lat)
	}
	if out.Current.Temperature != 18 {
		t.Errorf("current = %+v", out.Current)
	}

	// select by coordinate
	resp, body = do(t, app, http.MethodPut, "/api/v1/sessions/"+sel.ID+"/location", `{"name":"Quito","latitude":-0.18,"longitude":-78.47}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select: expected status %d, got %d (%s)", http.StatusOK, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &sel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sel.Location.Name != "Quito" || sel.Location.Latitude != -0.18 {
		t.Errorf("selection = %+v", sel.Location)
	}
}

func TestSessionErrors(t *testing.T) {
	app, sessions := newTestApp(&fakeRunner{})
	id := sessions.Create(madrid).ID

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown session dashboard", http.MethodGet, "/api/v1/sessions/nope/dashboard", "", http.StatusNotFound},
		{"unknown session select", http.MethodPut, "/api/v1/sessions/nope/location", `{"latitude":1,"longitude":1}`, http.StatusNotFound},
		{"empty body", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{}`, http.StatusBadRequest},
		{"bad latitude", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{"latitude":95,"longitude":1}`, http.StatusBadRequest},
		{"no match", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{"query":"Atlantis"}`, http.StatusNotFound},
		{"malformed json", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{"query":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, tt.method, tt.target, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d (%s)", tt.status, resp.StatusCode, body)
			}
		})
	}

	sel, err := sessions.Get(id)
	if err != nil || sel.Location != madrid {
		t.Errorf("failed requests must not change the selection: %+v, %v", sel, err)
	}
}
