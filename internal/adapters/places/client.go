// internal/adapters/places/client.go
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spot_explorer/internal/adapters/httpx"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

const (
	svcPlaces      = "google_places"
	maxResultCount = 20
	enrichWorkers  = 4
)

var includedTypes = []string{
	"tourist_attraction", "museum", "art_gallery", "park", "church", "hindu_temple",
	"mosque", "synagogue", "historical_landmark", "zoo", "aquarium", "amusement_park",
}

var placeFields = []string{
	"id", "name", "displayName", "formattedAddress", "location", "rating", "userRatingCount",
	"googleMapsUri", "websiteUri", "internationalPhoneNumber", "regularOpeningHours",
	"priceLevel", "photos", "types", "primaryType", "editorialSummary",
}

var (
	ErrNoAPIKey     = errors.New("places: api key is required")
	ErrNotFound     = fmt.Errorf("places: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("places: unauthorized")
	ErrForbidden    = errors.New("places: forbidden")
)

// Client wraps the Places API (New). Results are enriched with encyclopedia
// text when an EncyclopediaText is supplied.
type Client struct {
	base   string
	apiKey string
	http   *httpx.Retrier
	wiki   domain.EncyclopediaText
}

func New(cfg shared.PlacesConfig, wiki domain.EncyclopediaText) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://places.googleapis.com/v1"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   httpx.NewRetrier(cfg.Timeout, cfg.RPS, cfg.MaxRetries),
		wiki:   wiki,
	}, nil
}

// ---- Public API ----

type circle struct {
	Center struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"center"`
	Radius float64 `json:"radius"`
}

type nearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle circle `json:"circle"`
	} `json:"locationRestriction"`
	LanguageCode string `json:"languageCode"`
}

type nearbyResponse struct {
	Places []place `json:"places"`
}

// SearchNearby lists tourist places inside the circle, enriched with
// encyclopedia text. Enrichment problems never fail the search.
func (c *Client) SearchNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.TouristSpot, error) {
	lang := domain.NormalizeLanguage(q.Language)
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = 1000
	}

	var body nearbyRequest
	body.IncludedTypes = includedTypes
	body.MaxResultCount = maxResultCount
	body.LocationRestriction.Circle.Center.Latitude = q.Lat
	body.LocationRestriction.Circle.Center.Longitude = q.Lng
	body.LocationRestriction.Circle.Radius = float64(radius)
	body.LanguageCode = lang

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var resp nearbyResponse
	mask := "places." + strings.Join(placeFields, ",places.")
	if err := c.do(ctx, http.MethodPost, "searchNearby", c.base+"/places:searchNearby", mask, "", b, &resp); err != nil {
		return nil, fmt.Errorf("search nearby: %w", err)
	}

	spots := make([]domain.TouristSpot, len(resp.Places))
	for i, p := range resp.Places {
		spots[i] = c.toSpot(p)
	}
	c.enrich(ctx, spots)
	return spots, nil
}

// PlaceDetails fetches one place by id.
func (c *Client) PlaceDetails(ctx context.Context, id, lang string) (*domain.TouristSpot, error) {
	var p place
	u := c.base + "/places/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, "details", u, strings.Join(placeFields, ","), domain.NormalizeLanguage(lang), nil, &p); err != nil {
		return nil, fmt.Errorf("place %s: %w", id, err)
	}
	spots := []domain.TouristSpot{c.toSpot(p)}
	c.enrich(ctx, spots)
	return &spots[0], nil
}

// enrich fills HistoricalInfo/HistoricalInfoJa in place. Each spot asks the
// encyclopedia in Japanese then English; the editorial summary is the fallback.
func (c *Client) enrich(ctx context.Context, spots []domain.TouristSpot) {
	if c.wiki == nil {
		for i := range spots {
			spots[i].HistoricalInfo = spots[i].Description
			spots[i].HistoricalInfoJa = spots[i].DescriptionJa
		}
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichWorkers)
	for i := range spots {
		i := i
		g.Go(func() error {
			s := &spots[i]
			name := s.NameJa
			if name == "" {
				name = s.Name
			}
			if text, ok := c.wiki.SearchSpotInfo(gctx, name, domain.LangJa); ok {
				s.HistoricalInfoJa = text
			} else {
				s.HistoricalInfoJa = s.DescriptionJa
			}
			if text, ok := c.wiki.SearchSpotInfo(gctx, name, domain.LangEn); ok {
				s.HistoricalInfo = text
			} else {
				s.HistoricalInfo = s.Description
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ---- Internals ----

// do sends one Places request through the shared retrier and decodes the
// JSON reply into out.
func (c *Client) do(ctx context.Context, method, endpoint, rawURL, fieldMask, lang string, body []byte, out any) error {
	err := c.http.Do(ctx, svcPlaces, endpoint, func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("X-Goog-FieldMask", fieldMask)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if lang != "" {
			req.Header.Set("X-Goog-Language-Code", lang)
		}
		return req, nil
	}, func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return nil
	})

	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	log.Debug().Int("status", se.Code).Str("endpoint", endpoint).Msg("places request rejected")
	return err
}
