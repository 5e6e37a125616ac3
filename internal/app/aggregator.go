package app

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"spot_explorer/internal/domain"
	"spot_explorer/internal/shared"
)

const (
	minArticleImages   = 3
	maxProfileImages   = 5
	nearbyImageRadiusM = 500
	nearbyImageScan    = 5
	shortDescRunes     = 100
)

var (
	reBracketHeader = regexp.MustCompile(`【[^】]*】`)
	reFirstSentence = regexp.MustCompile(`^[^。.!?！？]+[。.!?！？]`)
	reThumbPrefix   = regexp.MustCompile(`^\d+px-`)
)

// Aggregator assembles a SpotProfile from the encyclopedia, the knowledge
// graph and the image sources. Any of them may be nil.
type Aggregator struct {
	wiki     Encyclopedia
	facts    KnowledgeGraph
	images   ImageSource
	variants map[string][]NameVariant
}

func NewAggregator(w Encyclopedia, f KnowledgeGraph, i ImageSource) *Aggregator {
	return &Aggregator{wiki: w, facts: f, images: i, variants: defaultVariants()}
}

// RegisterVariant adds a name-variant generator for lang.
func (a *Aggregator) RegisterVariant(lang string, v NameVariant) {
	a.variants[lang] = append(a.variants[lang], v)
}

// GetCompleteSpotInfo never fails: sources that error or have nothing leave
// their fields nil and are reported in profile.Sources.
func (a *Aggregator) GetCompleteSpotInfo(ctx context.Context, name string, coords *domain.LatLng, lang string) domain.SpotProfile {
	lang = domain.NormalizeLanguage(lang)
	p := domain.NewSpotProfile(name, lang)

	var title, leadImage string
	a.stage(&p, domain.SourceWikipedia, func() domain.SourceStatus {
		if a.wiki == nil {
			return domain.SourceSkipped
		}
		art, out := a.wiki.FetchArticle(ctx, name, lang)
		if art == nil {
			return sourceStatus(out.Status)
		}
		title, leadImage = art.Title, art.LeadImageURL
		p.Wikipedia = domain.WikipediaInfo{
			Extract:   ptrStr(art.Text),
			PageTitle: ptrStr(art.Title),
			URL:       ptrStr(domain.WikipediaURL(lang, firstNonEmpty(art.Title, name))),
		}
		if art.Description != "" {
			p.Description = ptrStr(art.Description)
		} else {
			p.Description = ptrStr(ExtractShortDescription(art.Text))
		}
		if coords == nil && art.Coordinates != nil {
			c := *art.Coordinates
			coords = &c
		}
		return domain.SourceFound
	})

	a.stage(&p, domain.SourceWikidata, func() domain.SourceStatus {
		if a.facts == nil {
			return domain.SourceSkipped
		}
		return a.structuredFacts(ctx, &p, title, name, lang)
	})

	a.stage(&p, domain.SourceImages, func() domain.SourceStatus {
		if a.images == nil {
			return domain.SourceSkipped
		}
		return a.collectImages(ctx, &p, firstNonEmpty(title, name), leadImage, coords, lang)
	})

	if p.HasContent() {
		p.Tourism = estimateTourism(name, lang, p.StructuredData)
	}
	return p
}

// stage runs one source and records its status. A panic is logged and
// recorded as a failure.
func (a *Aggregator) stage(p *domain.SpotProfile, source string, fn func() domain.SourceStatus) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("source", source).Str("name", p.Name).Msg("profile stage panicked")
			p.Sources[source] = domain.SourceFailed
		}
	}()
	p.Sources[source] = fn()
}

func (a *Aggregator) structuredFacts(ctx context.Context, p *domain.SpotProfile, title, name, lang string) domain.SourceStatus {
	var (
		id       string
		lastErr  error
		failures int
	)
	candidates := nameCandidates(title, name, a.variants[lang])
	for _, c := range candidates {
		got, err := a.facts.ResolveEntityID(ctx, c, lang)
		if err != nil {
			failures++
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if got != "" {
			id = got
			break
		}
	}
	if id == "" {
		if lastErr != nil && (failures == len(candidates) || errors.Is(lastErr, ctx.Err())) {
			log.Debug().Err(lastErr).Str("name", name).Msg("entity resolution failed")
			return domain.SourceFailed
		}
		return domain.SourceEmpty
	}

	facts, err := a.facts.StructuredFacts(ctx, id, lang)
	if err != nil {
		log.Debug().Err(err).Str("entity", id).Msg("structured facts failed")
		return domain.SourceFailed
	}
	if facts == nil {
		return domain.SourceEmpty
	}
	p.StructuredData = facts
	p.History = domain.History{Founded: facts.Founded, CulturalSignificance: facts.Heritage}
	return domain.SourceFound
}

func (a *Aggregator) collectImages(ctx context.Context, p *domain.SpotProfile, title, leadImage string, coords *domain.LatLng, lang string) domain.SourceStatus {
	seen := map[string]bool{}
	imgs := make([]domain.Image, 0, maxProfileImages)
	add := func(img domain.Image) bool {
		k := fileKey(img.Title)
		if len(imgs) == maxProfileImages || seen[k] {
			return false
		}
		seen[k] = true
		imgs = append(imgs, img)
		return true
	}

	if leadImage != "" {
		add(domain.Image{Title: leadFileTitle(leadImage), URL: leadImage})
	}

	failed := 0
	found, err := a.images.ArticleImages(ctx, title, lang)
	if err != nil {
		failed++
		log.Debug().Err(err).Str("title", title).Msg("article images failed")
	}
	for _, img := range found {
		add(img)
	}

	if len(imgs) < minArticleImages && coords != nil {
		hits, err := a.images.NearbyFiles(ctx, coords.Lat, coords.Lng, nearbyImageRadiusM)
		if err != nil {
			failed++
			log.Debug().Err(err).Msg("nearby images failed")
		}
		for i, h := range hits {
			if i == nearbyImageScan || len(imgs) == maxProfileImages {
				break
			}
			if seen[fileKey(h.Title)] {
				continue
			}
			img, err := a.images.ImageDetails(ctx, h.Title)
			if err != nil {
				continue
			}
			add(*img)
		}
	}

	p.Images = imgs
	switch {
	case len(imgs) > 0:
		return domain.SourceFound
	case failed > 0:
		return domain.SourceFailed
	default:
		return domain.SourceEmpty
	}
}

// leadFileTitle recovers "File:Name.jpg" from an upload URL. Thumbnail URLs
// carry the original name in the segment after /thumb/x/xx/.
func leadFileTitle(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	name := segs[len(segs)-1]
	for i, s := range segs {
		if s == "thumb" && i+3 < len(segs) {
			name = segs[i+3]
			break
		}
	}
	if n, err := url.PathUnescape(name); err == nil {
		name = n
	}
	return "File:" + name
}

// fileKey normalizes a Commons file title for dedupe: namespace, thumbnail
// width prefix and underscores are ignored.
func fileKey(title string) string {
	t := strings.TrimPrefix(strings.TrimPrefix(title, "File:"), "ファイル:")
	t = reThumbPrefix.ReplaceAllString(t, "")
	return strings.ReplaceAll(t, "_", " ")
}

// ExtractShortDescription returns the first sentence of a formatted text,
// or its first 100 characters when no sentence end is found.
func ExtractShortDescription(text string) string {
	plain := strings.Join(strings.Fields(reBracketHeader.ReplaceAllString(text, " ")), " ")
	if plain == "" {
		return ""
	}
	if m := reFirstSentence.FindString(plain); m != "" {
		return strings.TrimSpace(m)
	}
	if utf8.RuneCountInString(plain) <= shortDescRunes {
		return plain
	}
	return string([]rune(plain)[:shortDescRunes]) + "..."
}

func sourceStatus(s shared.Status) domain.SourceStatus {
	switch s {
	case shared.StatusFound:
		return domain.SourceFound
	case shared.StatusFailed:
		return domain.SourceFailed
	default:
		return domain.SourceEmpty
	}
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
