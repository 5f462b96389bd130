package weather

import (
	"context"
	"errors"
)

// ErrNoPlaces is returned by a Geocoder when nothing matches the query.
var ErrNoPlaces = errors.New("no matching places")

// ForecastSource abstracts the forecast provider. Implementations issue
// exactly one outbound request per call and return *FetchFailure on error.
type ForecastSource interface {
	Name() string
	FetchForecast(ctx context.Context, latitude, longitude float64) (*RawForecast, error)
}

// Place is one geocoding candidate.
type Place struct {
	Name      string  `json:"name"`
	Region    string  `json:"region,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location converts the place into a dashboard location.
func (p Place) Location() Location {
	name := p.Name
	if p.Country != "" {
		name = name + ", " + p.Country
	}
	return Location{Name: name, Latitude: p.Latitude, Longitude: p.Longitude}
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string) ([]Place, error)
}
