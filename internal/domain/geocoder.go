package domain

import "context"

// PlaceSearcher queries an external geocoding provider for beach-like points
// of interest matching a free-text query.
type PlaceSearcher interface {
	// SearchPlaces returns provider results already filtered to beach-like
	// places inside the service area. Failures wrap ErrNetworkFailure or
	// ErrMalformedPayload.
	SearchPlaces(ctx context.Context, query string) ([]ExternalPlace, error)
}
