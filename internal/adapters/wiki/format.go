package wiki

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type labels struct {
	overview, details, categories, catSep string
}

var headerLabels = map[string]labels{
	"ja": {overview: "概要", details: "詳細", categories: "関連カテゴリ", catSep: "、"},
	"en": {overview: "Overview", details: "Details", categories: "Related categories", catSep: ", "},
}

func labelsFor(lang string) labels {
	if l, ok := headerLabels[lang]; ok {
		return l
	}
	return headerLabels["en"]
}

const (
	maxIntroRunes   = 500
	maxSections     = 10
	maxCategories   = 5
	legacyParagraph = 3
)

var (
	reWikiHeader = regexp.MustCompile(`^=+\s*(.+?)\s*=+$`)
	reParagraphs = regexp.MustCompile(`\n\s*\n`)
	reYear       = regexp.MustCompile(`(西暦|紀元前)?(\d+)年`)
)

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// firstParagraph returns the lead paragraph of a plain-text extract.
func firstParagraph(extract string) string {
	for _, p := range reParagraphs.Split(strings.TrimSpace(extract), -1) {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}

// limitParagraphs keeps the first n blank-line separated paragraphs.
func limitParagraphs(s string, n int) string {
	var kept []string
	for _, p := range reParagraphs.Split(strings.TrimSpace(s), -1) {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == n {
			break
		}
	}
	return strings.Join(kept, "\n\n")
}

// RewriteYears marks bare 3-4 digit years as Western-calendar years in
// Japanese text ("1958年" -> "西暦1958年"). Other languages pass through.
func RewriteYears(s, lang string) string {
	if lang != "ja" {
		return s
	}
	return reYear.ReplaceAllStringFunc(s, func(m string) string {
		sub := reYear.FindStringSubmatch(m)
		if sub[1] != "" || len(sub[2]) < 3 || len(sub[2]) > 4 {
			return m
		}
		return "西暦" + sub[2] + "年"
	})
}

func formatDetailed(d *DetailedArticle, lang string) string {
	l := labelsFor(lang)
	var b strings.Builder

	if d.Description != "" {
		b.WriteString("【" + l.overview + "】\n" + d.Description + "\n\n")
	}
	if d.Introduction != "" && d.Introduction != d.Description {
		b.WriteString("【" + l.details + "】\n" + d.Introduction + "\n\n")
	}
	for _, s := range d.Sections {
		if s.Content == "" {
			continue
		}
		if s.Level <= 2 {
			b.WriteString("【" + s.Title + "】\n")
		} else {
			b.WriteString("  ■" + s.Title + "\n")
		}
		b.WriteString(s.Content + "\n\n")
	}
	if len(d.Categories) > 0 {
		cats := d.Categories
		if len(cats) > maxCategories {
			cats = cats[:maxCategories]
		}
		b.WriteString("【" + l.categories + "】\n" + strings.Join(cats, l.catSep))
	}
	return strings.TrimSpace(b.String())
}

func formatMobile(m *MobileArticle, lang string) string {
	l := labelsFor(lang)
	var b strings.Builder

	b.WriteString("【" + m.Title + "】\n")
	if m.Description != "" {
		b.WriteString(m.Description + "\n")
	}
	b.WriteString("\n【" + l.overview + "】\n" + m.Extract + "\n\n")
	for _, s := range m.Sections {
		if s.Content == "" {
			continue
		}
		b.WriteString("【" + s.Title + "】\n" + s.Content + "\n\n")
	}
	return strings.TrimSpace(b.String())
}

// formatLegacy turns "== Header ==" lines into 【Header】. Text before the
// first header gets an overview header when headers follow it.
func formatLegacy(extract, lang string) string {
	var out []string
	firstHeader := -1
	for _, ln := range strings.Split(extract, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if m := reWikiHeader.FindStringSubmatch(ln); m != nil {
			if firstHeader < 0 {
				firstHeader = len(out)
			}
			out = append(out, "\n【"+m[1]+"】")
			continue
		}
		out = append(out, ln)
	}
	if firstHeader > 0 {
		out = append([]string{"【" + labelsFor(lang).overview + "】"}, out...)
	}
	return strings.TrimSpace(reBlankLines.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))
}

var importantKeywords = []string{
	"歴史", "概要", "特徴", "建築", "文化", "観光", "由来", "沿革",
	"history", "overview", "architecture", "culture", "tourism", "features", "etymology",
}

func isImportantSection(title string) bool {
	t := strings.ToLower(title)
	for _, k := range importantKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// cleanMobileText strips markup left in mobile section HTML.
func cleanMobileText(s string) string {
	s = htmlToText(s, false)
	s = reTemplate.ReplaceAllString(s, "")
	return normalizeText(s)
}
