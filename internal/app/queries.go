package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"spot_explorer/internal/domain"
)

type ProfileQuery struct {
	Name   string
	Coords *domain.LatLng
	Lang   string
}

type QueryService struct {
	agg      *Aggregator
	wiki     Encyclopedia
	cache    domain.Cache
	cacheTTL time.Duration
	timeout  time.Duration
}

func NewQueryService(agg *Aggregator, w Encyclopedia, c domain.Cache, ttl, timeout time.Duration) *QueryService {
	return &QueryService{agg: agg, wiki: w, cache: c, cacheTTL: ttl, timeout: timeout}
}

// profileKey includes the rounded coordinates: the nearby image search only
// runs when they are known, so a profile built without them differs.
func profileKey(name, lang string, c *domain.LatLng) string {
	sum := sha1.Sum([]byte(name))
	at := "-"
	if c != nil {
		at = fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
	}
	return fmt.Sprintf("profile:%s:%s:%s", lang, at, hex.EncodeToString(sum[:]))
}

// GetProfile is cache-aside over the aggregator. Profiles where nothing was
// found are returned but not cached.
func (s *QueryService) GetProfile(ctx context.Context, q ProfileQuery) (domain.SpotProfile, error) {
	if q.Name == "" {
		return domain.SpotProfile{}, fmt.Errorf("profile: name is required")
	}
	lang := domain.NormalizeLanguage(q.Lang)
	key := profileKey(q.Name, lang, q.Coords)

	var p domain.SpotProfile
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &p); ok {
			return p, nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	p = s.agg.GetCompleteSpotInfo(ctx, q.Name, q.Coords, lang)

	if s.cache != nil && p.HasContent() {
		_ = s.cache.Set(context.WithoutCancel(ctx), key, p, int(s.cacheTTL.Seconds()))
	}
	return p, nil
}

func (s *QueryService) AudioGuide(ctx context.Context, q ProfileQuery, tier DurationTier) (string, error) {
	p, err := s.GetProfile(ctx, q)
	if err != nil {
		return "", err
	}
	return GenerateAudioGuideScript(p, tier), nil
}

// EncyclopediaText returns the formatted article text, or false when no
// tier produced any.
func (s *QueryService) EncyclopediaText(ctx context.Context, name, lang string) (string, bool) {
	if s.wiki == nil || name == "" {
		return "", false
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.wiki.SearchSpotInfo(ctx, name, domain.NormalizeLanguage(lang))
}
