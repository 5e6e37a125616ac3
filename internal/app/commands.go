package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

// IngestionService fills the catalogue from the places API and pre-computes
// profiles into the cache.
type IngestionService struct {
	places  domain.PlacesClient
	repo    domain.SpotRepository
	cache   domain.Cache
	queries *QueryService
}

func NewIngestionService(p domain.PlacesClient, r domain.SpotRepository, c domain.Cache, q *QueryService) *IngestionService {
	return &IngestionService{places: p, repo: r, cache: c, queries: q}
}

func areaKey(a shared.Area) string {
	return fmt.Sprintf("area:%.4f,%.4f,%d", a.Lat, a.Lng, a.RadiusMeters)
}

// IngestArea searches one area and upserts every spot found. A failed search
// is logged as a miss and yields no spots; a failed upsert is returned.
func (s *IngestionService) IngestArea(ctx context.Context, a shared.Area, lang string) ([]domain.TouristSpot, error) {
	if s.places == nil {
		return nil, fmt.Errorf("ingest: no places client")
	}
	lang = domain.NormalizeLanguage(lang)
	spots, err := s.places.SearchNearby(ctx, domain.NearbyQuery{
		Lat:          a.Lat,
		Lng:          a.Lng,
		RadiusMeters: a.RadiusMeters,
		Language:     lang,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		status, reason := missStatus(err)
		if lerr := s.repo.LogMiss(ctx, areaKey(a), status, reason); lerr != nil {
			log.Warn().Err(lerr).Msg("log miss failed")
		}
		log.Warn().Err(err).Str("area", areaKey(a)).Int("status", status).Msg("area search failed")
		return nil, nil
	}

	for _, sp := range spots {
		if err := s.repo.UpsertSpot(ctx, sp); err != nil {
			return nil, fmt.Errorf("upsert spot %s: %w", sp.ID, err)
		}
	}
	return spots, nil
}

// WarmProfile drops any cached profile for the spot and computes a fresh one.
func (s *IngestionService) WarmProfile(ctx context.Context, sp domain.TouristSpot, lang string) (domain.SpotProfile, error) {
	lang = domain.NormalizeLanguage(lang)
	name := sp.Name
	if lang == domain.LangJa && sp.NameJa != "" {
		name = sp.NameJa
	}
	if name == "" {
		name = sp.NameJa
	}
	q := ProfileQuery{
		Name:   name,
		Coords: &domain.LatLng{Lat: sp.Coordinates.Latitude, Lng: sp.Coordinates.Longitude},
		Lang:   lang,
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, profileKey(q.Name, lang, q.Coords))
	}
	return s.queries.GetProfile(ctx, q)
}

func missStatus(err error) (int, string) {
	low := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found"):
		return 404, "not found"
	case strings.Contains(low, "401") || strings.Contains(low, "unauthorized"):
		return 401, "unauthorized"
	case strings.Contains(low, "403") || strings.Contains(low, "forbidden"):
		return 403, "forbidden"
	case strings.Contains(low, "api key"):
		return 401, "no api key"
	default:
		return 502, "upstream"
	}
}
