package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/climash/dashboard/internal/weather"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newBreaker returns the circuit breaker shared by all calls of one provider.
// It tracks provider health, not request outcome: it opens after five
// consecutive unhealthy responses and lets one request through again after timeout.
func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: providerHealthy,
	})
}

// providerHealthy reports whether err leaves the provider's health intact.
// Only transport errors, 5xx and 429 count against it; a rejected request
// (other 4xx) or a caller that gave up says nothing about the provider.
func providerHealthy(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, errUnexpected):
		return true
	}
	return false
}

// doRequest executes a single attempt of req through the circuit breaker.
// There is no retry: any failure is returned as a *weather.FetchFailure and
// the caller decides whether to ask again.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, weather.NewFetchFailure(weather.StageTransport, errNoHTTPClient)
	}

	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, weather.NewFetchFailure(weather.StageTransport, execErr)
		}

		var statusErr error
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			statusErr = errRateLimited
		case resp.StatusCode >= 500:
			statusErr = fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			statusErr = fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		if statusErr != nil {
			resp.Body.Close()
			return nil, weather.NewFetchFailure(weather.StageStatus, statusErr)
		}

		return resp, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NewFetchFailure(weather.StageTransport, fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, weather.NewFetchFailure(weather.StageTransport, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	return resp, nil
}
