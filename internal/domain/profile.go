package domain

import (
	"net/url"
	"strings"
)

// SpotProfile is the best-effort union of whatever sources answered for one
// spot. Absent data stays nil; Images is never nil.
type SpotProfile struct {
	Name           string                  `json:"name"`
	Language       string                  `json:"language"`
	Description    *string                 `json:"description"`
	Wikipedia      WikipediaInfo           `json:"wikipedia"`
	Images         []Image                 `json:"images"`
	StructuredData *StructuredFacts        `json:"structuredData"`
	History        History                 `json:"history"`
	Tourism        Tourism                 `json:"tourism"`
	Sources        map[string]SourceStatus `json:"sources,omitempty"`
}

type WikipediaInfo struct {
	Extract   *string `json:"extract"`
	PageTitle *string `json:"pageTitle"`
	URL       *string `json:"url"`
}

type History struct {
	Founded              *string `json:"founded,omitempty"`
	CulturalSignificance *string `json:"culturalSignificance,omitempty"`
}

type Tourism struct {
	EstimatedDuration *string `json:"estimatedDuration,omitempty"`
	BestTimeToVisit   *string `json:"bestTimeToVisit,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StructuredFacts is built once per knowledge-graph entity.
type StructuredFacts struct {
	EntityID           string   `json:"wikidataId"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Founded            *string  `json:"founded,omitempty"`
	Height             *float64 `json:"height,omitempty"` // meters
	Area               *float64 `json:"area,omitempty"`   // m²
	Architect          *string  `json:"architect,omitempty"`
	ArchitecturalStyle *string  `json:"architecturalStyle,omitempty"`
	Heritage           *string  `json:"heritage,omitempty"`
	Coordinates        *LatLng  `json:"coordinates,omitempty"`
	OfficialWebsite    *string  `json:"officialWebsite,omitempty"`
	Address            *string  `json:"address,omitempty"`
}

type Image struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	ThumbURL       *string `json:"thumbUrl,omitempty"`
	Description    *string `json:"description,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Mime           *string `json:"mime,omitempty"`
	DescriptionURL *string `json:"descriptionUrl,omitempty"`
}

// SourceStatus tells "source had nothing" apart from "source was unreachable".
type SourceStatus string

const (
	SourceFound   SourceStatus = "found"
	SourceEmpty   SourceStatus = "empty"
	SourceFailed  SourceStatus = "failed"
	SourceSkipped SourceStatus = "skipped"
)

// Source keys used in SpotProfile.Sources.
const (
	SourceWikipedia = "wikipedia"
	SourceWikidata  = "wikidata"
	SourceImages    = "images"
)

// NewSpotProfile returns the minimal profile: only the name is known.
func NewSpotProfile(name, lang string) SpotProfile {
	return SpotProfile{
		Name:     name,
		Language: lang,
		Images:   []Image{},
		Sources:  map[string]SourceStatus{},
	}
}

// HasContent reports whether any source contributed data.
func (p SpotProfile) HasContent() bool {
	for _, s := range p.Sources {
		if s == SourceFound {
			return true
		}
	}
	return false
}

// Article is the formatted encyclopedia text of whichever tier answered.
type Article struct {
	Tier         string
	Title        string
	Description  string
	Text         string
	LeadImageURL string
	Coordinates  *LatLng
}

// GeoHit is one media file found near a coordinate.
type GeoHit struct {
	PageID int64   `json:"pageid"`
	Title  string  `json:"title"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Dist   float64 `json:"dist"`
}

// WikipediaURL is the canonical page URL shown to users.
func WikipediaURL(lang, title string) string {
	return "https://" + lang + ".wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
