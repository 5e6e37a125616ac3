package wiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spot_explorer/internal/domain"
)

const svcWikidata = "wikidata"

type langValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type entity struct {
	ID           string               `json:"id"`
	Missing      *string              `json:"missing"`
	Labels       map[string]langValue `json:"labels"`
	Descriptions map[string]langValue `json:"descriptions"`
	Claims       map[string]any       `json:"claims"`
}

type entitiesResp struct {
	Entities map[string]entity `json:"entities"`
}

// pick prefers lang and falls back to English.
func pick(m map[string]langValue, lang string) string {
	if v, ok := m[lang]; ok && v.Value != "" {
		return v.Value
	}
	return m["en"].Value
}

// ResolveEntityID maps an article title to its Wikidata item. A title with
// no item returns ("", nil).
func (c *Client) ResolveEntityID(ctx context.Context, title, lang string) (string, error) {
	var er entitiesResp
	q := url.Values{
		"action": {"wbgetentities"},
		"sites":  {lang + "wiki"},
		"titles": {title},
		"props":  {"info"},
	}
	if err := c.getJSON(ctx, svcWikidata, "resolve", c.wikidataURL(q), &er); err != nil {
		return "", fmt.Errorf("resolve %q: %w", title, err)
	}
	for k, e := range er.Entities {
		if k == "-1" || e.Missing != nil || e.ID == "" {
			continue
		}
		return e.ID, nil
	}
	return "", nil
}

func (c *Client) entity(ctx context.Context, endpoint, id, props, lang string) (*entity, error) {
	var er entitiesResp
	q := url.Values{
		"action":    {"wbgetentities"},
		"ids":       {id},
		"props":     {props},
		"languages": {lang + "|en"},
	}
	if err := c.getJSON(ctx, svcWikidata, endpoint, c.wikidataURL(q), &er); err != nil {
		return nil, err
	}
	e, ok := er.Entities[id]
	if !ok || e.Missing != nil {
		return nil, ErrNotFound
	}
	return &e, nil
}

// label returns the display label of a referenced entity.
func (c *Client) label(ctx context.Context, id, lang string) (string, error) {
	e, err := c.entity(ctx, "labels", id, "labels", lang)
	if err != nil {
		return "", err
	}
	return pick(e.Labels, lang), nil
}

// StructuredFacts extracts the known properties of entity id. Referenced
// entities (architect, style, heritage) are resolved to labels concurrently;
// a failed label lookup leaves just that field nil.
func (c *Client) StructuredFacts(ctx context.Context, id, lang string) (*domain.StructuredFacts, error) {
	e, err := c.entity(ctx, "entity", id, "labels|descriptions|claims", lang)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", id, err)
	}

	facts := &domain.StructuredFacts{
		EntityID:    id,
		Name:        pick(e.Labels, lang),
		Description: pick(e.Descriptions, lang),
		Height:      claimAmount(e.Claims, propHeight),
		Area:        claimAmount(e.Claims, propArea),
	}
	if t := claimTime(e.Claims, propFounded); t != "" {
		facts.Founded = ptrStr(FormatWikidataTime(t, lang))
	}
	if lat, lng, ok := claimCoords(e.Claims, propCoords); ok {
		facts.Coordinates = &domain.LatLng{Lat: lat, Lng: lng}
	}
	facts.OfficialWebsite = ptrStr(claimString(e.Claims, propWebsite))
	facts.Address = ptrStr(claimMonolingual(e.Claims, propAddress))

	refs := []struct {
		prop string
		dst  **string
	}{
		{propArchitect, &facts.Architect},
		{propStyle, &facts.ArchitecturalStyle},
		{propHeritage, &facts.Heritage},
	}
	labels := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range refs {
		ref := claimRef(e.Claims, r.prop)
		if ref == "" {
			continue
		}
		i, r := i, r
		g.Go(func() error {
			l, err := c.label(gctx, ref, lang)
			if err != nil {
				log.Debug().Err(err).Str("property", r.prop).Str("ref", ref).Msg("label lookup failed")
				return nil
			}
			labels[i] = l
			return nil
		})
	}
	_ = g.Wait()
	for i, r := range refs {
		*r.dst = ptrStr(labels[i])
	}
	return facts, nil
}
