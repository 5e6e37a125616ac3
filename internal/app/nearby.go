package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"spot_explorer/internal/domain"
)

const (
	defaultNearbyLimit  = 50
	defaultNearbyRadius = 1000

	SourcePlaces    = "places"
	SourceCatalogue = "catalogue"
)

type NearbyResult struct {
	Source string               `json:"source"`
	Spots  []domain.TouristSpot `json:"spots"`
}

// NearbyService answers "what is around me": the places API first, the
// local catalogue when that is unavailable.
type NearbyService struct {
	places   domain.PlacesClient
	repo     domain.SpotRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewNearbyService accepts a nil places client; the catalogue is then the
// only source.
func NewNearbyService(p domain.PlacesClient, r domain.SpotRepository, c domain.Cache, ttl time.Duration) *NearbyService {
	return &NearbyService{places: p, repo: r, cache: c, cacheTTL: ttl}
}

func nearbyKey(q domain.NearbyQuery) string {
	return fmt.Sprintf("nearby:%.4f:%.4f:%d:%s", q.Lat, q.Lng, q.RadiusMeters, q.Language)
}

func (s *NearbyService) Nearby(ctx context.Context, q domain.NearbyQuery) (NearbyResult, error) {
	q.Language = domain.NormalizeLanguage(q.Language)
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = defaultNearbyRadius
	}
	if q.Limit <= 0 {
		q.Limit = defaultNearbyLimit
	}

	key := nearbyKey(q)
	var out NearbyResult
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return trimSpots(out, q.Limit), nil
		}
	}

	spots, source, err := s.search(ctx, q)
	if err != nil {
		return NearbyResult{}, err
	}
	out = NearbyResult{
		Source: source,
		Spots:  domain.SortByDistance(spots, domain.Coordinates{Latitude: q.Lat, Longitude: q.Lng}),
	}
	if s.cache != nil && len(out.Spots) > 0 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return trimSpots(out, q.Limit), nil
}

func (s *NearbyService) search(ctx context.Context, q domain.NearbyQuery) ([]domain.TouristSpot, string, error) {
	if s.places != nil {
		spots, err := s.places.SearchNearby(ctx, q)
		if err == nil {
			return spots, SourcePlaces, nil
		}
		log.Warn().Err(err).Float64("lat", q.Lat).Float64("lng", q.Lng).Msg("places search failed; using catalogue")
	}
	if s.repo == nil {
		return nil, "", fmt.Errorf("nearby: no source configured")
	}
	spots, err := s.repo.ListNear(ctx, domain.NearQuery{
		Lat:      q.Lat,
		Lng:      q.Lng,
		RadiusKm: float64(q.RadiusMeters) / 1000,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("catalogue: %w", err)
	}
	return spots, SourceCatalogue, nil
}

// Spot reads one catalogue entry.
// Spot reads one spot from the catalogue. Ids the catalogue has not seen yet
// are looked up with the places client.
func (s *NearbyService) Spot(ctx context.Context, id, lang string) (domain.TouristSpot, error) {
	if s.repo != nil {
		sp, err := s.repo.GetSpot(ctx, id)
		if !errors.Is(err, domain.ErrNotFound) {
			return sp, err
		}
	}
	if s.places == nil {
		return domain.TouristSpot{}, domain.ErrNotFound
	}
	sp, err := s.places.PlaceDetails(ctx, id, domain.NormalizeLanguage(lang))
	if err != nil {
		return domain.TouristSpot{}, err
	}
	return *sp, nil
}

func trimSpots(r NearbyResult, limit int) NearbyResult {
	if r.Spots == nil {
		r.Spots = []domain.TouristSpot{}
	}
	if len(r.Spots) > limit {
		r.Spots = r.Spots[:limit]
	}
	return r
}
