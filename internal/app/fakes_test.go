package app_test

import (
	"context"
	"errors"

	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

// ---- fakes ----

type fakeWiki struct {
	art     *domain.Article
	out     shared.Outcome
	text    string
	panics  bool
	fetches int
}

func (f *fakeWiki) FetchArticle(ctx context.Context, name, lang string) (*domain.Article, shared.Outcome) {
	f.fetches++
	if f.panics {
		panic("unexpected payload for " + name)
	}
	return f.art, f.out
}

func (f *fakeWiki) SearchSpotInfo(ctx context.Context, name, lang string) (string, bool) {
	return f.text, f.text != ""
}

type fakeGraph struct {
	ids      map[string]string
	err      error
	facts    *domain.StructuredFacts
	factsErr error
	lookups  []string
}

func (f *fakeGraph) ResolveEntityID(ctx context.Context, title, lang string) (string, error) {
	f.lookups = append(f.lookups, title)
	if f.err != nil {
		return "", f.err
	}
	return f.ids[title], nil
}

func (f *fakeGraph) StructuredFacts(ctx context.Context, id, lang string) (*domain.StructuredFacts, error) {
	return f.facts, f.factsErr
}

type fakeImages struct {
	article    []domain.Image
	articleErr error
	hits       []domain.GeoHit
	hitsErr    error
	details    map[string]*domain.Image
	nearbyAt   *domain.LatLng
}

func (f *fakeImages) ArticleImages(ctx context.Context, title, lang string) ([]domain.Image, error) {
	return f.article, f.articleErr
}

func (f *fakeImages) NearbyFiles(ctx context.Context, lat, lng float64, radiusMeters int) ([]domain.GeoHit, error) {
	f.nearbyAt = &domain.LatLng{Lat: lat, Lng: lng}
	return f.hits, f.hitsErr
}

func (f *fakeImages) ImageDetails(ctx context.Context, fileName string) (*domain.Image, error) {
	if img, ok := f.details[fileName]; ok {
		return img, nil
	}
	return nil, errors.New("no such file")
}

type fakeRepo struct {
	near     []domain.TouristSpot
	nearErr  error
	upserted []domain.TouristSpot
	misses   []string
	lastNear domain.NearQuery
}

func (f *fakeRepo) UpsertSpot(ctx context.Context, s domain.TouristSpot) error {
	f.upserted = append(f.upserted, s)
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, key string, status int, reason string) error {
	f.misses = append(f.misses, key+"|"+reason)
	return nil
}
func (f *fakeRepo) GetSpot(ctx context.Context, id string) (domain.TouristSpot, error) {
	for _, s := range f.near {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.TouristSpot{}, domain.ErrNotFound
}
func (f *fakeRepo) ListNear(ctx context.Context, q domain.NearQuery) ([]domain.TouristSpot, error) {
	f.lastNear = q
	return f.near, f.nearErr
}

type fakePlaces struct {
	spots      []domain.TouristSpot
	err        error
	calls      int
	details    map[string]domain.TouristSpot
	detailsErr error
	detailLang string
}

func (f *fakePlaces) SearchNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.TouristSpot, error) {
	f.calls++
	return f.spots, f.err
}
func (f *fakePlaces) PlaceDetails(ctx context.Context, id, lang string) (*domain.TouristSpot, error) {
	f.detailLang = lang
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if sp, ok := f.details[id]; ok {
		return &sp, nil
	}
	return nil, domain.ErrNotFound
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.SpotProfile:
		*d = v.(domain.SpotProfile)
	case *app.NearbyResult:
		*d = v.(app.NearbyResult)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
