package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

func TestIngestArea_UpsertsSpots(t *testing.T) {
	places := &fakePlaces{spots: []domain.TouristSpot{spotAt("a", 1, 1), spotAt("b", 2, 2)}}
	repo := &fakeRepo{}
	s := app.NewIngestionService(places, repo, nil, nil)

	spots, err := s.IngestArea(context.Background(), shared.Area{Lat: 35.6586, Lng: 139.7454, RadiusMeters: 3000}, "ja")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(spots) != 2 || len(repo.upserted) != 2 || repo.upserted[1].ID != "b" {
		t.Fatalf("upserted = %+v", repo.upserted)
	}
	if len(repo.misses) != 0 {
		t.Fatalf("unexpected misses: %v", repo.misses)
	}
}

func TestIngestArea_SearchFailureIsAMiss(t *testing.T) {
	places := &fakePlaces{err: errors.New("places: forbidden")}
	repo := &fakeRepo{}
	s := app.NewIngestionService(places, repo, nil, nil)

	spots, err := s.IngestArea(context.Background(), shared.Area{Lat: 35.6586, Lng: 139.7454, RadiusMeters: 3000}, "en")
	if err != nil {
		t.Fatalf("miss should not abort the run: %v", err)
	}
	if spots != nil {
		t.Fatalf("expected no spots, got %v", spots)
	}
	if len(repo.misses) != 1 || repo.misses[0] != "area:35.6586,139.7454,3000|forbidden" {
		t.Fatalf("misses = %v", repo.misses)
	}
}

func TestWarmProfile_RecomputesAndCaches(t *testing.T) {
	wiki := foundWiki("【概要】\n浅草寺は寺である。")
	cache := &fakeCache{}
	q := app.NewQueryService(app.NewAggregator(wiki, nil, nil), wiki, cache, time.Minute, 0)
	s := app.NewIngestionService(nil, &fakeRepo{}, cache, q)

	sp := domain.TouristSpot{Name: "Senso-ji", NameJa: "浅草寺", Coordinates: domain.Coordinates{Latitude: 35.7148, Longitude: 139.7967}}
	for i := 0; i < 2; i++ {
		p, err := s.WarmProfile(context.Background(), sp, "ja")
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if p.Name != "浅草寺" {
			t.Fatalf("profile name = %q", p.Name)
		}
	}
	if wiki.fetches != 2 {
		t.Fatalf("warming must bypass the cache, fetches=%d", wiki.fetches)
	}
	if len(cache.dels) != 2 || !strings.HasPrefix(cache.dels[0], "profile:ja:") || len(cache.store) != 1 {
		t.Fatalf("dels=%v store=%v", cache.dels, cache.store)
	}
}
