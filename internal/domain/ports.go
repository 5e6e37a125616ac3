package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type SpotRepository interface {
	// Write paths
	UpsertSpot(ctx context.Context, s TouristSpot) error
	LogMiss(ctx context.Context, key string, status int, reason string) error

	// Read paths
	GetSpot(ctx context.Context, id string) (TouristSpot, error)
	ListNear(ctx context.Context, q NearQuery) ([]TouristSpot, error)
}

type PlacesClient interface {
	SearchNearby(ctx context.Context, q NearbyQuery) ([]TouristSpot, error)
	PlaceDetails(ctx context.Context, id, lang string) (*TouristSpot, error)
}

// EncyclopediaText is the "formatted text or nothing" contract of the
// encyclopedia fetcher.
type EncyclopediaText interface {
	SearchSpotInfo(ctx context.Context, name, lang string) (string, bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Queries

type NearbyQuery struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
	Language     string
	Limit        int
}

type NearQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}
