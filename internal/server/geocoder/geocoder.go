// Package geocoder resolves free-text addresses with the Google Maps
// Geocoding API. Calls go through a circuit breaker so an unreachable
// provider fails fast instead of stalling every create/edit request.
package geocoder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/sony/gobreaker"
	"googlemaps.github.io/maps"
)

// ErrUnavailable is returned when no geocoding provider is configured.
var ErrUnavailable = errors.New("geocoder is not configured")

// consecutiveFailures trips the breaker.
const consecutiveFailures = 5

type mapsClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// newMapsClient is a seam for tests.
var newMapsClient = func(apiKey string) (mapsClient, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Google geocodes addresses through the Maps API.
type Google struct {
	client mapsClient
	cb     *gobreaker.CircuitBreaker
}

func NewGoogle(apiKey string, logger logging.Logger) (*Google, error) {
	client, err := newMapsClient(apiKey)
	if err != nil {
		return nil, err
	}
	return newGoogle(client, logger), nil
}

func newGoogle(client mapsClient, logger logging.Logger) *Google {
	logger = logger.With("module", "geocoder")

	st := gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Google{client: client, cb: gobreaker.NewCircuitBreaker(st)}
}

// Geocode returns the first match for address, or nil when there is none.
func (g *Google) Geocode(ctx context.Context, address string) (*models.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	})
	if err != nil {
		return nil, err
	}

	results := res.([]maps.GeocodingResult)
	if len(results) == 0 {
		return nil, nil
	}

	first := results[0]
	return &models.Place{
		FormattedAddress: first.FormattedAddress,
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
	}, nil
}

// Unavailable is used when no API key is configured: every lookup fails,
// so campgrounds cannot be created until geocoding is set up.
type Unavailable struct{}

func (Unavailable) Geocode(context.Context, string) (*models.Place, error) {
	return nil, ErrUnavailable
}
