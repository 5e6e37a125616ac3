package domain

import "strings"

type Category string

const (
	CategoryAttraction Category = "attraction"
	CategoryFood       Category = "food"
	CategoryShopping   Category = "shopping"
	CategoryNature     Category = "nature"
	CategoryCulture    Category = "culture"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TouristSpot is the list/map facing record. Name/Description/Address carry
// the English display text, the *Ja fields the Japanese one.
type TouristSpot struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	NameJa           string      `json:"nameJa"`
	Description      string      `json:"description"`
	DescriptionJa    string      `json:"descriptionJa"`
	HistoricalInfo   string      `json:"historicalInfo"`
	HistoricalInfoJa string      `json:"historicalInfoJa"`
	Category         Category    `json:"category"`
	Coordinates      Coordinates `json:"coordinates"`
	Images           []string    `json:"images"`
	Rating           float64     `json:"rating"`
	Distance         *float64    `json:"distance,omitempty"` // km, set by SortByDistance
	Address          string      `json:"address"`
	AddressJa        string      `json:"addressJa"`
	OpeningHours     *string     `json:"openingHours,omitempty"`
	OpeningHoursJa   *string     `json:"openingHoursJa,omitempty"`
	Price            *string     `json:"price,omitempty"`
	PriceJa          *string     `json:"priceJa,omitempty"`
	Website          *string     `json:"website,omitempty"`
	Phone            *string     `json:"phone,omitempty"`
	Features         []string    `json:"features"`
	FeaturesJa       []string    `json:"featuresJa"`
}

// Supported display languages.
const (
	LangJa = "ja"
	LangEn = "en"
)

// NormalizeLanguage maps any tag ("ja-JP", "EN", "") to ja or en.
func NormalizeLanguage(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "ja") {
		return LangJa
	}
	return LangEn
}
