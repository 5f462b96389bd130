package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/climash/dashboard/internal/store"
	"github.com/climash/dashboard/internal/weather"
)

var validate = validator.New()

// Runner builds a dashboard for a coordinate.
type Runner interface {
	Run(ctx context.Context, latitude, longitude float64) (*weather.Dashboard, error)
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Runner   Runner
	Geocoder weather.Geocoder
	Sessions *store.MemoryStore

	// DefaultLocation seeds new sessions.
	DefaultLocation weather.Location
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		dash, err := deps.Runner.Run(c.UserContext(), q.lat, q.lon)
		if err != nil {
			return runError(err)
		}
		return c.JSON(dash)
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		req := searchQuery{Query: strings.TrimSpace(c.Query("q"))}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		places, err := deps.Geocoder.Search(c.UserContext(), req.Query)
		if err != nil {
			return searchError(err)
		}
		return c.JSON(places)
	})

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		sel := deps.Sessions.Create(deps.DefaultLocation)
		return c.Status(fiber.StatusCreated).JSON(sel)
	})

	v1.Put("/sessions/:id/location", func(c *fiber.Ctx) error {
		var req selectLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		loc, err := req.resolve(c.UserContext(), deps.Geocoder)
		if err != nil {
			return err
		}

		sel, err := deps.Sessions.Select(c.Params("id"), loc)
		if err != nil {
			return sessionError(err)
		}
		return c.JSON(sel)
	})

	v1.Get("/sessions/:id/dashboard", func(c *fiber.Ctx) error {
		sel, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return sessionError(err)
		}

		dash, err := deps.Runner.Run(c.UserContext(), sel.Location.Latitude, sel.Location.Longitude)
		if err != nil {
			return runError(err)
		}
		return c.JSON(sessionDashboard{Location: sel.Location, Dashboard: dash})
	})
}

type sessionDashboard struct {
	Location weather.Location `json:"location"`
	*weather.Dashboard
}

// coordinateQuery holds the raw lat/lon query parameters.
type coordinateQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`

	lat, lon float64
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	q := coordinateQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, err
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, err
	}
	return q, nil
}

type searchQuery struct {
	Query string `validate:"required,max=100"`
}

// selectLocationRequest picks a location either by coordinate or by a
// free-text query resolved through the geocoder.
type selectLocationRequest struct {
	Name      string   `json:"name" validate:"max=100"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Query     string   `json:"query" validate:"max=100"`
}

func (r selectLocationRequest) resolve(ctx context.Context, geo weather.Geocoder) (weather.Location, error) {
	if err := validate.Struct(r); err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if q := strings.TrimSpace(r.Query); q != "" {
		places, err := geo.Search(ctx, q)
		if err != nil {
			return weather.Location{}, searchError(err)
		}
		return places[0].Location(), nil
	}

	if r.Latitude == nil || r.Longitude == nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "either query or latitude and longitude are required")
	}
	if err := validate.Var(*r.Latitude, "latitude"); err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid latitude")
	}
	if err := validate.Var(*r.Longitude, "longitude"); err != nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid longitude")
	}

	return weather.Location{
		Name:      strings.TrimSpace(r.Name),
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}, nil
}

func runError(err error) error {
	if weather.IsFetchFailure(err) {
		return fiber.NewError(fiber.StatusBadGateway, "failed to load weather data")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to build dashboard")
}

func searchError(err error) error {
	if errors.Is(err, weather.ErrNoPlaces) {
		return fiber.NewError(fiber.StatusNotFound, "no places match the query")
	}
	return fiber.NewError(fiber.StatusBadGateway, "location search failed")
}

func sessionError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "unknown session")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "session lookup failed")
}
