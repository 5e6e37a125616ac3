package app

import (
	"regexp"
	"strings"
)

// NameVariant proposes alternative spellings of a spot name for the
// knowledge-graph lookup.
type NameVariant func(name string) []string

var (
	reParens      = regexp.MustCompile(`[（(][^）)]*[）)]`)
	reEnSuffix    = regexp.MustCompile(`(?i)\s+(temple|shrine|castle|museum|park)$`)
	reLeadingThe  = regexp.MustCompile(`(?i)^the\s+`)
	reAnyWhiteSpc = regexp.MustCompile(`[\s\x{3000}]+`)
)

func withoutParens(name string) []string {
	return []string{strings.TrimSpace(reParens.ReplaceAllString(name, ""))}
}

func withoutSpaces(name string) []string {
	return []string{reAnyWhiteSpc.ReplaceAllString(name, "")}
}

// withSuffixes appends each suffix unless the name already ends in one of them.
func withSuffixes(suffixes ...string) NameVariant {
	return func(name string) []string {
		lower := strings.ToLower(name)
		for _, s := range suffixes {
			if strings.HasSuffix(lower, strings.ToLower(strings.TrimSpace(s))) {
				return nil
			}
		}
		out := make([]string, 0, len(suffixes))
		for _, s := range suffixes {
			out = append(out, name+s)
		}
		return out
	}
}

func withoutEnglishSuffix(name string) []string {
	return []string{strings.TrimSpace(reEnSuffix.ReplaceAllString(name, ""))}
}

func withoutLeadingThe(name string) []string {
	return []string{strings.TrimSpace(reLeadingThe.ReplaceAllString(name, ""))}
}

func defaultVariants() map[string][]NameVariant {
	return map[string][]NameVariant{
		"ja": {withoutParens, withoutSpaces, withSuffixes("寺", "神社", "城")},
		"en": {withoutEnglishSuffix, withoutLeadingThe, withSuffixes(" Temple", " Shrine")},
	}
}

// nameCandidates lists lookup keys in order: the resolved title, the name,
// then every generated variant. Blanks and repeats are dropped.
func nameCandidates(title, name string, gens []NameVariant) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(title)
	add(name)
	for _, g := range gens {
		for _, v := range g(name) {
			add(v)
		}
	}
	return out
}
