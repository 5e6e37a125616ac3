package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spot_explorer/internal/adapters/observability"
	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

const (
	TierDetailed = "detailed"
	TierMobile   = "mobile"
	TierLegacy   = "legacy"

	chainEncyclopedia = "encyclopedia"
	svcWikipedia      = "wikipedia"
)

type Section struct {
	Index   string
	Title   string
	Level   int
	Content string
}

type DetailedArticle struct {
	Title        string
	PageID       int64
	Description  string
	Introduction string
	Sections     []Section
	Categories   []string
	Coordinates  *domain.LatLng
}

type MobileArticle struct {
	Title        string
	Description  string
	Extract      string
	Sections     []Section
	LeadImageURL string
}

type LegacyArticle struct {
	Title string
	Text  string
}

// ---- API payloads ----

type searchResp struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int64  `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

type page struct {
	PageID     int64   `json:"pageid"`
	Title      string  `json:"title"`
	Missing    *string `json:"missing"`
	Extract    string  `json:"extract"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Coordinates []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
	Images []struct {
		Title string `json:"title"`
	} `json:"images"`
	ImageInfo []imageInfo `json:"imageinfo"`
}

type pagesResp struct {
	Query struct {
		Pages map[string]page `json:"pages"`
	} `json:"query"`
}

// first returns the first present page; "-1" keys and missing flags are skipped.
func (r pagesResp) first() (page, bool) {
	for k, p := range r.Query.Pages {
		if k == "-1" || p.Missing != nil {
			continue
		}
		return p, true
	}
	return page{}, false
}

type sectionsResp struct {
	Parse struct {
		Sections []struct {
			Index string `json:"index"`
			Line  string `json:"line"`
			Level string `json:"level"`
		} `json:"sections"`
	} `json:"parse"`
}

type parseTextResp struct {
	Parse struct {
		Title string `json:"title"`
		Text  struct {
			Body string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
}

type summaryResp struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

type mobileSection struct {
	ID   int    `json:"id"`
	Line string `json:"line"`
	Text string `json:"text"`
}

type mobileSectionsResp struct {
	Lead struct {
		Image *struct {
			URLs map[string]string `json:"urls"`
		} `json:"image"`
	} `json:"lead"`
	Remaining struct {
		Sections []mobileSection `json:"sections"`
	} `json:"remaining"`
	Sections []mobileSection `json:"sections"`
}

// ---- Detailed tier ----

// DetailedInfo searches for name and assembles the article from the search
// snippet, the intro extract and up to ten rendered sections. A search with
// no hits returns (nil, nil).
func (c *Client) DetailedInfo(ctx context.Context, name, lang string) (*DetailedArticle, error) {
	var sr searchResp
	q := url.Values{
		"action": {"query"}, "list": {"search"}, "srsearch": {name}, "srlimit": {"1"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "search", c.wikipediaURL(lang, q), &sr); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(sr.Query.Search) == 0 {
		return nil, nil
	}
	hit := sr.Query.Search[0]
	art := &DetailedArticle{
		Title:       hit.Title,
		PageID:      hit.PageID,
		Description: stripTags(hit.Snippet),
	}

	detailsErr := c.pageDetails(ctx, art, lang)
	if detailsErr != nil {
		log.Debug().Err(detailsErr).Str("title", art.Title).Msg("page details failed")
	}
	sections, sectionsErr := c.sectionList(ctx, art.PageID, lang)
	if sectionsErr != nil {
		log.Debug().Err(sectionsErr).Str("title", art.Title).Msg("section list failed")
	}
	if detailsErr != nil && sectionsErr != nil {
		return nil, errors.Join(detailsErr, sectionsErr)
	}

	art.Sections = c.sectionBodies(ctx, art.PageID, lang, sections)
	return art, nil
}

func (c *Client) pageDetails(ctx context.Context, art *DetailedArticle, lang string) error {
	var pr pagesResp
	q := url.Values{
		"action":      {"query"},
		"pageids":     {strconv.FormatInt(art.PageID, 10)},
		"prop":        {"extracts|categories|coordinates"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"cllimit":     {"20"},
		"clshow":      {"!hidden"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "details", c.wikipediaURL(lang, q), &pr); err != nil {
		return err
	}
	p, ok := pr.first()
	if !ok {
		return ErrNotFound
	}
	if intro := firstParagraph(p.Extract); intro != "" {
		art.Introduction = truncateRunes(intro, maxIntroRunes)
	}
	for _, cat := range p.Categories {
		t := cat.Title
		if i := strings.Index(t, ":"); i >= 0 {
			t = t[i+1:]
		}
		art.Categories = append(art.Categories, t)
	}
	if len(p.Coordinates) > 0 {
		art.Coordinates = &domain.LatLng{Lat: p.Coordinates[0].Lat, Lng: p.Coordinates[0].Lon}
	}
	return nil
}

func (c *Client) sectionList(ctx context.Context, pageID int64, lang string) ([]Section, error) {
	var sr sectionsResp
	q := url.Values{
		"action": {"parse"}, "pageid": {strconv.FormatInt(pageID, 10)}, "prop": {"sections"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "sections", c.wikipediaURL(lang, q), &sr); err != nil {
		return nil, err
	}
	var out []Section
	for _, s := range sr.Parse.Sections {
		if len(out) == maxSections {
			break
		}
		if s.Index == "" || s.Line == "" {
			continue
		}
		lvl, _ := strconv.Atoi(s.Level)
		out = append(out, Section{Index: s.Index, Title: stripTags(s.Line), Level: lvl})
	}
	return out, nil
}

// sectionBodies fetches every section concurrently. Order is preserved and
// failed or empty sections are dropped.
func (c *Client) sectionBodies(ctx context.Context, pageID int64, lang string, sections []Section) []Section {
	bodies := make([]string, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range sections {
		i, s := i, s
		g.Go(func() error {
			var pr parseTextResp
			q := url.Values{
				"action":             {"parse"},
				"pageid":             {strconv.FormatInt(pageID, 10)},
				"section":            {s.Index},
				"prop":               {"text"},
				"disableeditsection": {"1"},
				"disabletoc":         {"1"},
			}
			if err := c.getJSON(gctx, svcWikipedia, "section", c.wikipediaURL(lang, q), &pr); err != nil {
				log.Debug().Err(err).Str("section", s.Title).Msg("section fetch failed")
				return nil
			}
			bodies[i] = htmlToText(pr.Parse.Text.Body, true)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Section, 0, len(sections))
	for i, s := range sections {
		if bodies[i] == "" {
			continue
		}
		s.Content = bodies[i]
		out = append(out, s)
	}
	return out
}

// ---- Mobile tier ----

// MobileSummary reads the REST summary and, when available, the mobile
// sections of the same page. A missing page returns (nil, nil).
func (c *Client) MobileSummary(ctx context.Context, name, lang string) (*MobileArticle, error) {
	var sum summaryResp
	if err := c.getJSON(ctx, svcWikipedia, "summary", c.restURL(lang, "page", "summary", name), &sum); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("summary: %w", err)
	}
	if sum.Title == "" {
		return nil, nil
	}
	art := &MobileArticle{
		Title:       sum.Title,
		Description: sum.Description,
		Extract:     strings.TrimSpace(sum.Extract),
	}
	if sum.Thumbnail != nil {
		art.LeadImageURL = sum.Thumbnail.Source
	}

	var ms mobileSectionsResp
	if err := c.getJSON(ctx, svcWikipedia, "mobile-sections", c.restURL(lang, "page", "mobile-sections", sum.Title), &ms); err != nil {
		log.Debug().Err(err).Str("title", sum.Title).Msg("mobile sections unavailable, using summary only")
		return art, nil
	}
	if art.LeadImageURL == "" && ms.Lead.Image != nil {
		art.LeadImageURL = ms.Lead.Image.URLs["640"]
	}

	raw := ms.Remaining.Sections
	if len(raw) == 0 {
		raw = ms.Sections
	}
	if len(raw) > 20 {
		raw = raw[:20]
	}
	for _, s := range raw {
		if s.Line == "" || s.Text == "" {
			continue
		}
		if !isImportantSection(s.Line) && len(art.Sections) >= 5 {
			continue
		}
		body := cleanMobileText(s.Text)
		if body == "" {
			continue
		}
		art.Sections = append(art.Sections, Section{
			Index: strconv.Itoa(s.ID), Title: stripTags(s.Line), Level: 2, Content: body,
		})
	}
	return art, nil
}

// ---- Legacy tier ----

// LegacyExtract resolves the exact title with opensearch and reads the plain
// extract, falling back to the rendered lead section.
func (c *Client) LegacyExtract(ctx context.Context, name, lang string) (*LegacyArticle, error) {
	title := name
	var raw []json.RawMessage
	q := url.Values{
		"action": {"opensearch"}, "search": {name}, "limit": {"1"}, "namespace": {"0"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "opensearch", c.wikipediaURL(lang, q), &raw); err != nil {
		log.Debug().Err(err).Str("name", name).Msg("opensearch failed, using name as title")
	} else {
		var titles []string
		if len(raw) > 1 {
			_ = json.Unmarshal(raw[1], &titles)
		}
		if len(titles) == 0 {
			return nil, nil
		}
		title = titles[0]
	}

	var pr pagesResp
	q = url.Values{
		"action":          {"query"},
		"prop":            {"extracts"},
		"explaintext":     {"1"},
		"exsectionformat": {"wiki"},
		"titles":          {title},
		"redirects":       {"1"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "extract", c.wikipediaURL(lang, q), &pr); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if p, ok := pr.first(); ok && strings.TrimSpace(p.Extract) != "" {
		return &LegacyArticle{Title: p.Title, Text: limitParagraphs(p.Extract, legacyParagraph)}, nil
	}

	var pt parseTextResp
	q = url.Values{
		"action":             {"parse"},
		"page":               {title},
		"prop":               {"text"},
		"section":            {"0"},
		"redirects":          {"1"},
		"disableeditsection": {"1"},
	}
	if err := c.getJSON(ctx, svcWikipedia, "parse", c.wikipediaURL(lang, q), &pt); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	text := limitParagraphs(htmlToText(pt.Parse.Text.Body, false), legacyParagraph)
	if text == "" {
		return nil, nil
	}
	if pt.Parse.Title != "" {
		title = pt.Parse.Title
	}
	return &LegacyArticle{Title: title, Text: text}, nil
}

// ---- Chain ----

// FetchArticle runs the detailed, mobile and legacy tiers in order and
// returns the first one with content.
func (c *Client) FetchArticle(ctx context.Context, name, lang string) (*domain.Article, shared.Outcome) {
	isNil := func(a *domain.Article) bool { return a == nil || a.Text == "" }

	art, out := shared.FirstOf(ctx,
		shared.Tier[*domain.Article]{Name: TierDetailed, Empty: isNil, Fetch: func(ctx context.Context) (*domain.Article, error) {
			d, err := c.DetailedInfo(ctx, name, lang)
			if err != nil || d == nil || (len(d.Sections) == 0 && d.Description == "") {
				return nil, err
			}
			return &domain.Article{
				Tier: TierDetailed, Title: d.Title, Description: d.Description,
				Text: formatDetailed(d, lang), Coordinates: d.Coordinates,
			}, nil
		}},
		shared.Tier[*domain.Article]{Name: TierMobile, Empty: isNil, Fetch: func(ctx context.Context) (*domain.Article, error) {
			m, err := c.MobileSummary(ctx, name, lang)
			if err != nil || m == nil || m.Extract == "" {
				return nil, err
			}
			return &domain.Article{
				Tier: TierMobile, Title: m.Title, Description: m.Description,
				Text: formatMobile(m, lang), LeadImageURL: m.LeadImageURL,
			}, nil
		}},
		shared.Tier[*domain.Article]{Name: TierLegacy, Empty: isNil, Fetch: func(ctx context.Context) (*domain.Article, error) {
			l, err := c.LegacyExtract(ctx, name, lang)
			if err != nil || l == nil {
				return nil, err
			}
			return &domain.Article{Tier: TierLegacy, Title: l.Title, Text: formatLegacy(l.Text, lang)}, nil
		}},
	)

	for _, a := range out.Attempts {
		observability.ObserveTier(chainEncyclopedia, a.Tier, string(a.Status))
		if a.Err != nil {
			log.Debug().Err(a.Err).Str("tier", a.Tier).Str("lang", lang).Str("name", name).Msg("encyclopedia tier failed")
		}
	}
	if art != nil {
		art.Text = RewriteYears(art.Text, lang)
	}
	return art, out
}

// SearchSpotInfo returns formatted encyclopedia text for name, or false when
// no tier had anything. Failures are logged, never returned.
func (c *Client) SearchSpotInfo(ctx context.Context, name, lang string) (string, bool) {
	art, out := c.FetchArticle(ctx, name, lang)
	if art == nil {
		if out.Status == shared.StatusFailed {
			log.Warn().Err(out.Err()).Str("name", name).Str("lang", lang).Msg("encyclopedia lookup failed")
		}
		return "", false
	}
	return art.Text, true
}
