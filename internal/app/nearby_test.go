package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
)

var tokyoTower = domain.Coordinates{Latitude: 35.6586, Longitude: 139.7454}

func spotAt(id string, lat, lng float64) domain.TouristSpot {
	return domain.TouristSpot{ID: id, Name: id, Coordinates: domain.Coordinates{Latitude: lat, Longitude: lng}}
}

func TestNearby_PlacesSortedAndCached(t *testing.T) {
	places := &fakePlaces{spots: []domain.TouristSpot{
		spotAt("sensoji", 35.7148, 139.7967),
		spotAt("tower", tokyoTower.Latitude, tokyoTower.Longitude),
	}}
	cache := &fakeCache{}
	s := app.NewNearbyService(places, &fakeRepo{}, cache, time.Minute)
	q := domain.NearbyQuery{Lat: tokyoTower.Latitude, Lng: tokyoTower.Longitude, RadiusMeters: 5000, Language: "ja"}

	out, err := s.Nearby(context.Background(), q)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Source != app.SourcePlaces || len(out.Spots) != 2 || out.Spots[0].ID != "tower" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.Spots[1].Distance == nil || *out.Spots[1].Distance < 7 {
		t.Fatalf("distance not set: %+v", out.Spots[1])
	}
	if _, ok := cache.store["nearby:35.6586:139.7454:5000:ja"]; !ok {
		t.Fatalf("result not cached: %v", cache.store)
	}

	if _, err := s.Nearby(context.Background(), q); err != nil {
		t.Fatalf("err: %v", err)
	}
	if places.calls != 1 {
		t.Fatalf("second call should hit the cache, calls=%d", places.calls)
	}
}

func TestNearby_FallsBackToCatalogue(t *testing.T) {
	places := &fakePlaces{err: errors.New("places: forbidden")}
	repo := &fakeRepo{near: []domain.TouristSpot{spotAt("tower", tokyoTower.Latitude, tokyoTower.Longitude)}}
	s := app.NewNearbyService(places, repo, nil, time.Minute)

	out, err := s.Nearby(context.Background(), domain.NearbyQuery{Lat: 35.66, Lng: 139.75, RadiusMeters: 2500, Language: "en-US"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Source != app.SourceCatalogue || len(out.Spots) != 1 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if repo.lastNear.RadiusKm != 2.5 || repo.lastNear.Limit != 50 {
		t.Fatalf("catalogue query = %+v", repo.lastNear)
	}
}

func TestNearby_NoPlacesClient(t *testing.T) {
	s := app.NewNearbyService(nil, &fakeRepo{}, nil, time.Minute)
	out, err := s.Nearby(context.Background(), domain.NearbyQuery{Lat: 1, Lng: 1})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Source != app.SourceCatalogue || out.Spots == nil || len(out.Spots) != 0 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestNearby_CatalogueErrorSurfaces(t *testing.T) {
	s := app.NewNearbyService(nil, &fakeRepo{nearErr: errors.New("db down")}, nil, time.Minute)
	if _, err := s.Nearby(context.Background(), domain.NearbyQuery{Lat: 1, Lng: 1}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNearby_Limit(t *testing.T) {
	places := &fakePlaces{spots: []domain.TouristSpot{spotAt("a", 1, 1), spotAt("b", 1, 1.01), spotAt("c", 1, 1.02)}}
	s := app.NewNearbyService(places, nil, nil, time.Minute)
	out, err := s.Nearby(context.Background(), domain.NearbyQuery{Lat: 1, Lng: 1, Limit: 2})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.Spots) != 2 || out.Spots[1].ID != "b" {
		t.Fatalf("unexpected result: %+v", out.Spots)
	}
}

func TestSpot(t *testing.T) {
	repo := &fakeRepo{near: []domain.TouristSpot{spotAt("tower", 1, 1)}}
	s := app.NewNearbyService(nil, repo, nil, time.Minute)

	got, err := s.Spot(context.Background(), "tower", "en")
	if err != nil || got.ID != "tower" {
		t.Fatalf("got %+v, %v", got, err)
	}
	if _, err := s.Spot(context.Background(), "nope", "en"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := app.NewNearbyService(nil, nil, nil, 0).Spot(context.Background(), "tower", "en"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound without catalogue, got %v", err)
	}
}

func TestSpot_FallsBackToPlaceDetails(t *testing.T) {
	repo := &fakeRepo{near: []domain.TouristSpot{spotAt("tower", 1, 1)}}
	places := &fakePlaces{details: map[string]domain.TouristSpot{"ChIJ123": spotAt("ChIJ123", 2, 2)}}
	s := app.NewNearbyService(places, repo, nil, time.Minute)

	got, err := s.Spot(context.Background(), "ChIJ123", "ja-JP")
	if err != nil || got.ID != "ChIJ123" || places.detailLang != "ja" {
		t.Fatalf("got %+v, %v (lang %q)", got, err, places.detailLang)
	}

	places.detailLang = ""
	if got, err := s.Spot(context.Background(), "tower", "en"); err != nil || got.ID != "tower" || places.detailLang != "" {
		t.Fatalf("catalogue hit should not ask places: %+v, %v", got, err)
	}

	if _, err := s.Spot(context.Background(), "nope", "en"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	places.detailsErr = errors.New("places: forbidden")
	if _, err := s.Spot(context.Background(), "other", "en"); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want upstream error, got %v", err)
	}
}
