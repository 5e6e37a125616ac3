package app

import (
	"strings"

	"spot_explorer/internal/domain"
)

type tourismText struct {
	long, short, quietHours string
}

var tourismTexts = map[string]tourismText{
	"ja": {long: "60-90分", short: "30-45分", quietHours: "早朝または夕方（混雑を避けるため）"},
	"en": {long: "60-90 min", short: "30-45 min", quietHours: "Early morning or late afternoon (to avoid crowds)"},
}

// estimateTourism derives visit hints: heritage sites take longer, temples
// and shrines are best outside peak hours.
func estimateTourism(name, lang string, facts *domain.StructuredFacts) domain.Tourism {
	txt, ok := tourismTexts[lang]
	if !ok {
		txt = tourismTexts["en"]
	}
	dur := txt.short
	if facts != nil && facts.Heritage != nil {
		dur = txt.long
	}
	t := domain.Tourism{EstimatedDuration: &dur}

	lower := strings.ToLower(name)
	if strings.Contains(name, "寺") || strings.Contains(name, "神社") ||
		strings.Contains(lower, "temple") || strings.Contains(lower, "shrine") {
		best := txt.quietHours
		t.BestTimeToVisit = &best
	}
	return t
}
