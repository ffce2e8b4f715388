package geocode

import (
	"context"
	"errors"
)

// ErrNoResults means the provider answered but could not resolve the
// address. Distinct from provider/network failure so callers can report a
// client-correctable error.
var ErrNoResults = errors.New("no results for address")

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}
