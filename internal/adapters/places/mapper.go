package places

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spot_explorer/internal/domain"
)

const placeholderImage = "https://via.placeholder.com/800x600?text=No+Image"

type localized struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type openingHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

type photo struct {
	Name string `json:"name"`
}

type place struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	DisplayName              *localized    `json:"displayName"`
	FormattedAddress         string        `json:"formattedAddress"`
	Location                 latLng        `json:"location"`
	Rating                   float64       `json:"rating"`
	WebsiteURI               string        `json:"websiteUri"`
	InternationalPhoneNumber string        `json:"internationalPhoneNumber"`
	RegularOpeningHours      *openingHours `json:"regularOpeningHours"`
	PriceLevel               string        `json:"priceLevel"`
	Photos                   []photo       `json:"photos"`
	Types                    []string      `json:"types"`
	PrimaryType              string        `json:"primaryType"`
	EditorialSummary         *localized    `json:"editorialSummary"`
}

var priceLevels = map[string]int{
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// categoryOf maps place types onto the app's five categories.
func categoryOf(types []string, primary string) domain.Category {
	all := append([]string{primary}, types...)
	has := func(subs ...string) bool {
		for _, t := range all {
			for _, s := range subs {
				if t != "" && strings.Contains(t, s) {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has("museum", "gallery"):
		return domain.CategoryCulture
	case has("park", "natural"):
		return domain.CategoryNature
	case has("shopping"):
		return domain.CategoryShopping
	default:
		return domain.CategoryAttraction
	}
}

// priceSymbols renders a price level as repeated currency symbols. Unknown
// or free levels render nothing.
func priceSymbols(level, symbol string) *string {
	n, ok := priceLevels[level]
	if !ok {
		return nil
	}
	s := strings.Repeat(symbol, n)
	return &s
}

// SpotID is the place id, or a stable UUIDv5 of the name when the API did
// not return one.
func SpotID(id, name string) string {
	if id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("spot:"+name)).String()
}

func (c *Client) photoURL(name string) string {
	return fmt.Sprintf("%s/%s/media?maxHeightPx=800&maxWidthPx=800&key=%s", c.base, name, c.apiKey)
}

func (c *Client) toSpot(p place) domain.TouristSpot {
	name := p.Name
	if p.DisplayName != nil && p.DisplayName.Text != "" {
		name = p.DisplayName.Text
	}
	if name == "" {
		name = "Unknown Place"
	}
	desc := ""
	if p.EditorialSummary != nil {
		desc = p.EditorialSummary.Text
	}

	images := make([]string, 0, 3)
	for _, ph := range p.Photos {
		if len(images) == 3 {
			break
		}
		if ph.Name != "" {
			images = append(images, c.photoURL(ph.Name))
		}
	}
	if len(images) == 0 {
		images = append(images, placeholderImage)
	}

	var hours *string
	if p.RegularOpeningHours != nil {
		hours = ptrStr(strings.Join(p.RegularOpeningHours.WeekdayDescriptions, "\n"))
	}

	features := p.Types
	if len(features) > 3 {
		features = features[:3]
	}
	features = append([]string{}, features...)

	return domain.TouristSpot{
		ID:             SpotID(p.ID, name),
		Name:           name,
		NameJa:         name,
		Description:    desc,
		DescriptionJa:  desc,
		Category:       categoryOf(p.Types, p.PrimaryType),
		Coordinates:    domain.Coordinates{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude},
		Images:         images,
		Rating:         p.Rating,
		Address:        p.FormattedAddress,
		AddressJa:      p.FormattedAddress,
		OpeningHours:   hours,
		OpeningHoursJa: hours,
		Price:          priceSymbols(p.PriceLevel, "$"),
		PriceJa:        priceSymbols(p.PriceLevel, "¥"),
		Website:        ptrStr(p.WebsiteURI),
		Phone:          ptrStr(p.InternationalPhoneNumber),
		Features:       features,
		FeaturesJa:     append([]string{}, features...),
	}
}
