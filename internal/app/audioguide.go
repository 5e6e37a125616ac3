package app

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"spot_explorer/internal/domain"
)

type DurationTier string

const (
	DurationShort  DurationTier = "short"  // ~30s
	DurationMedium DurationTier = "medium" // ~90s
	DurationLong   DurationTier = "long"   // ~3min
)

var sentencesPerTier = map[DurationTier]int{
	DurationShort:  2,
	DurationMedium: 5,
	DurationLong:   10,
}

// ParseDurationTier accepts short|medium|long and 30s|90s|3min. Empty means medium.
func ParseDurationTier(s string) (DurationTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "30s":
		return DurationShort, nil
	case "", "medium", "90s":
		return DurationMedium, nil
	case "long", "3min":
		return DurationLong, nil
	}
	return "", fmt.Errorf("unknown duration %q", s)
}

type scriptText struct {
	founded       string
	heritage      string
	style         string
	height        string
	visit         string
	detailsHeader string
	dFounded      string
	dArchitect    string
	dStyle        string
	dHeight       string
	dArea         string
	dHeritage     string
	intro         string
	foundedIn     string
}

var scriptTexts = map[string]scriptText{
	"ja": {
		founded:       "設立は%s。",
		heritage:      "%sに指定されています。",
		style:         "建築様式は%s。",
		height:        "高さは%sメートル。",
		visit:         "見学時間の目安は%sです。",
		detailsHeader: "【詳細情報】",
		dFounded:      "設立: %s",
		dArchitect:    "設計者: %s",
		dStyle:        "建築様式: %s",
		dHeight:       "高さ: %sメートル",
		dArea:         "面積: %s平方メートル",
		dHeritage:     "文化財: %s",
		intro:         "ここは%sです。",
		foundedIn:     "%sに設立されました。",
	},
	"en": {
		founded:       "It was founded in %s.",
		heritage:      "It is designated as %s.",
		style:         "Its architectural style is %s.",
		height:        "It is %s meters tall.",
		visit:         "Plan on %s for a visit.",
		detailsHeader: "【Details】",
		dFounded:      "Founded: %s",
		dArchitect:    "Architect: %s",
		dStyle:        "Architectural style: %s",
		dHeight:       "Height: %s m",
		dArea:         "Area: %s m²",
		dHeritage:     "Heritage: %s",
		intro:         "This is %s.",
		foundedIn:     "It was founded in %s.",
	},
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// GenerateAudioGuideScript builds narration for a profile. Absent fields are
// skipped, never rendered as placeholders.
func GenerateAudioGuideScript(p domain.SpotProfile, tier DurationTier) string {
	txt, ok := scriptTexts[p.Language]
	if !ok {
		txt = scriptTexts["en"]
	}
	n, ok := sentencesPerTier[tier]
	if !ok {
		tier, n = DurationMedium, sentencesPerTier[DurationMedium]
	}
	sd := p.StructuredData
	if sd == nil {
		sd = &domain.StructuredFacts{}
	}

	var parts []string
	addf := func(format string, v *string) {
		if v != nil && *v != "" {
			parts = append(parts, fmt.Sprintf(format, *v))
		}
	}
	addNum := func(format string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf(format, num(*v)))
		}
	}

	if p.Wikipedia.Extract == nil || *p.Wikipedia.Extract == "" {
		parts = append(parts, fmt.Sprintf(txt.intro, p.Name))
		addf(txt.foundedIn, sd.Founded)
		addf(txt.heritage, sd.Heritage)
		if p.Description != nil && *p.Description != "" {
			parts = append(parts, *p.Description)
		}
		addf(txt.visit, p.Tourism.EstimatedDuration)
		return strings.Join(parts, " ")
	}

	body := leadSentences(stripHeaders(*p.Wikipedia.Extract), p.Language, n)
	if body != "" {
		parts = append(parts, body)
	}

	switch tier {
	case DurationShort:
		addf(txt.founded, sd.Founded)
		addf(txt.heritage, sd.Heritage)
	case DurationMedium:
		if sd.Founded != nil && !strings.Contains(body, *sd.Founded) {
			addf(txt.founded, sd.Founded)
		}
		addf(txt.style, sd.ArchitecturalStyle)
		addNum(txt.height, sd.Height)
		addf(txt.visit, p.Tourism.EstimatedDuration)
	case DurationLong:
		if p.StructuredData == nil {
			break
		}
		var details []string
		for _, d := range []struct {
			format string
			v      *string
		}{
			{txt.dFounded, sd.Founded},
			{txt.dArchitect, sd.Architect},
			{txt.dStyle, sd.ArchitecturalStyle},
		} {
			if d.v != nil && *d.v != "" {
				details = append(details, fmt.Sprintf(d.format, *d.v))
			}
		}
		if sd.Height != nil {
			details = append(details, fmt.Sprintf(txt.dHeight, num(*sd.Height)))
		}
		if sd.Area != nil {
			details = append(details, fmt.Sprintf(txt.dArea, num(*sd.Area)))
		}
		if sd.Heritage != nil && *sd.Heritage != "" {
			details = append(details, fmt.Sprintf(txt.dHeritage, *sd.Heritage))
		}
		if len(details) > 0 {
			parts = append(parts, "\n\n"+txt.detailsHeader+"\n"+strings.Join(details, "\n"))
		}
	}
	return strings.Join(parts, " ")
}

// stripHeaders removes 【…】 markers and folds the text into one line.
func stripHeaders(s string) string {
	return strings.Join(strings.Fields(reBracketHeader.ReplaceAllString(s, " ")), " ")
}

// leadSentences returns the first n sentences. Japanese ends sentences with
// 。; other languages with . ! or ? followed by a space.
func leadSentences(text, lang string, n int) string {
	var out []string
	if lang == domain.LangJa {
		for _, s := range strings.Split(text, "。") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			out = append(out, s+"。")
			if len(out) == n {
				break
			}
		}
		return strings.Join(out, "")
	}

	r := []rune(text)
	start := 0
	for i := 0; i < len(r) && len(out) < n; i++ {
		if r[i] != '.' && r[i] != '!' && r[i] != '?' {
			continue
		}
		if i+1 < len(r) && !unicode.IsSpace(r[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(r[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if len(out) < n {
		if s := strings.TrimSpace(string(r[start:])); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}
