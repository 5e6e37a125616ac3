package app_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"

	"spot_explorer/internal/app"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

func foundWiki(text string) *fakeWiki {
	return &fakeWiki{
		art:  &domain.Article{Title: "東京タワー", Text: text},
		out:  shared.Outcome{Status: shared.StatusFound},
		text: text,
	}
}

func TestGetProfile_CacheMissThenHit(t *testing.T) {
	wiki := foundWiki("【概要】\n東京タワーは電波塔である。")
	cache := &fakeCache{}
	q := app.NewQueryService(app.NewAggregator(wiki, nil, nil), wiki, cache, 10*time.Minute, time.Second)

	p, err := q.GetProfile(context.Background(), app.ProfileQuery{Name: "東京タワー", Lang: "ja"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if deref(p.Description) != "東京タワーは電波塔である。" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	sum := sha1.Sum([]byte("東京タワー"))
	if _, ok := cache.store["profile:ja:-:"+hex.EncodeToString(sum[:])]; !ok {
		t.Fatalf("profile not cached under expected key: %v", cache.store)
	}

	// second read must come from cache
	wiki.art = &domain.Article{Title: "東京タワー", Text: "SHOULD NOT SEE THIS"}
	p2, err := q.GetProfile(context.Background(), app.ProfileQuery{Name: "東京タワー", Lang: "ja-JP"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if deref(p2.Wikipedia.Extract) != "【概要】\n東京タワーは電波塔である。" || wiki.fetches != 1 {
		t.Fatalf("expected cached profile, fetches=%d extract=%q", wiki.fetches, deref(p2.Wikipedia.Extract))
	}
}

func TestGetProfile_CoordinatesAreSeparateEntries(t *testing.T) {
	wiki := foundWiki("【概要】\n東京タワーは電波塔である。")
	imgs := &fakeImages{
		hits:    []domain.GeoHit{{Title: "File:B.jpg"}},
		details: map[string]*domain.Image{"File:B.jpg": {Title: "File:B.jpg", URL: "https://x/B.jpg"}},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(app.NewAggregator(wiki, nil, imgs), wiki, cache, time.Minute, 0)

	p, err := q.GetProfile(context.Background(), app.ProfileQuery{Name: "東京タワー", Lang: "ja"})
	if err != nil || len(p.Images) != 0 || imgs.nearbyAt != nil {
		t.Fatalf("without coordinates: err=%v images=%d", err, len(p.Images))
	}

	p, err = q.GetProfile(context.Background(), app.ProfileQuery{Name: "東京タワー", Coords: &domain.LatLng{Lat: 1, Lng: 2}, Lang: "ja"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(p.Images) != 1 || p.Images[0].Title != "File:B.jpg" || imgs.nearbyAt == nil {
		t.Fatalf("coordinate request served a profile without nearby images: %+v", p.Images)
	}

	// same point after rounding
	p, _ = q.GetProfile(context.Background(), app.ProfileQuery{Name: "東京タワー", Coords: &domain.LatLng{Lat: 1.00001, Lng: 2}, Lang: "ja"})
	if wiki.fetches != 2 || len(p.Images) != 1 || len(cache.store) != 2 {
		t.Fatalf("fetches=%d images=%d entries=%d", wiki.fetches, len(p.Images), len(cache.store))
	}
}

func TestGetProfile_EmptyProfileNotCached(t *testing.T) {
	wiki := &fakeWiki{out: shared.Outcome{Status: shared.StatusFailed}}
	cache := &fakeCache{}
	q := app.NewQueryService(app.NewAggregator(wiki, nil, nil), wiki, cache, time.Minute, 0)

	for i := 0; i < 2; i++ {
		p, err := q.GetProfile(context.Background(), app.ProfileQuery{Name: "Atlantis", Lang: "en"})
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if p.Name != "Atlantis" || p.Images == nil {
			t.Fatalf("unexpected profile: %+v", p)
		}
	}
	if len(cache.store) != 0 || wiki.fetches != 2 {
		t.Fatalf("empty profile cached: store=%v fetches=%d", cache.store, wiki.fetches)
	}
}

func TestGetProfile_RequiresName(t *testing.T) {
	q := app.NewQueryService(app.NewAggregator(nil, nil, nil), nil, nil, time.Minute, 0)
	if _, err := q.GetProfile(context.Background(), app.ProfileQuery{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAudioGuide_UsesProfile(t *testing.T) {
	wiki := foundWiki("Tokyo Tower is a tower. It is red!")
	q := app.NewQueryService(app.NewAggregator(wiki, nil, nil), wiki, nil, time.Minute, 0)

	s, err := q.AudioGuide(context.Background(), app.ProfileQuery{Name: "Tokyo Tower", Lang: "en"}, app.DurationShort)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if s != "Tokyo Tower is a tower. It is red!" {
		t.Fatalf("script = %q", s)
	}
}

func TestEncyclopediaText(t *testing.T) {
	wiki := foundWiki("【概要】\n本文")
	q := app.NewQueryService(nil, wiki, nil, time.Minute, time.Second)

	if s, ok := q.EncyclopediaText(context.Background(), "東京タワー", "ja"); !ok || s != "【概要】\n本文" {
		t.Fatalf("got %q %v", s, ok)
	}
	if _, ok := q.EncyclopediaText(context.Background(), "", "ja"); ok {
		t.Fatalf("blank name should be a miss")
	}
	if _, ok := app.NewQueryService(nil, nil, nil, 0, 0).EncyclopediaText(context.Background(), "x", "en"); ok {
		t.Fatalf("no encyclopedia should be a miss")
	}
}
