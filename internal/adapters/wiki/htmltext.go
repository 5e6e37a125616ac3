package wiki

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reFootnote   = regexp.MustCompile(`\[\d+\]`)
	reTemplate   = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	reSpaces     = regexp.MustCompile(`[ \t\x{00a0}\x{3000}]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// skipped subtrees: their text never reaches the output.
var skipTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Sup: true, atom.Table: true,
	atom.Figure: true, atom.Noscript: true,
}

var skipClasses = []string{
	"mw-editsection", "reference", "navbox", "metadata", "noprint", "mw-empty-elt", "hatnote",
}

var voidTags = map[atom.Atom]bool{
	atom.Br: true, atom.Img: true, atom.Hr: true, atom.Wbr: true, atom.Input: true, atom.Meta: true, atom.Link: true,
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true, atom.Tr: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dd: true, atom.Dt: true,
	atom.Blockquote: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func hasSkipClass(z *html.Tokenizer, hasAttr bool) bool {
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		if string(k) != "class" {
			continue
		}
		for _, c := range strings.Fields(string(v)) {
			for _, s := range skipClasses {
				if c == s || strings.HasPrefix(c, s) {
					return true
				}
			}
		}
	}
	return false
}

// htmlToText flattens rendered wiki HTML into paragraphs of plain text.
// With sectionOnly set, headings are dropped and output stops at the second
// heading, so a section body excludes its nested subsections.
func htmlToText(src string, sectionOnly bool) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder

	var skipName atom.Atom
	skipDepth := 0
	headings := 0

loop:
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			break loop

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			if skipDepth > 0 {
				if a == skipName && tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if sectionOnly && isHeading(a) {
				headings++
				if headings > 1 {
					break loop
				}
			}
			if tt == html.StartTagToken && !voidTags[a] && (skipTags[a] || (sectionOnly && isHeading(a)) || hasSkipClass(z, hasAttr)) {
				skipName, skipDepth = a, 1
				continue
			}
			if blockTags[a] {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipDepth > 0 {
				if a == skipName {
					skipDepth--
				}
				continue
			}
			if a == atom.P || isHeading(a) {
				b.WriteString("\n\n")
			} else if blockTags[a] {
				b.WriteByte('\n')
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			b.Write(z.Text())
		}
	}
	return normalizeText(b.String())
}

// stripTags is htmlToText for short inline fragments such as search snippets.
func stripTags(src string) string {
	return strings.Join(strings.Fields(htmlToText(src, false)), " ")
}

// normalizeText removes footnote markers and collapses whitespace while
// keeping paragraph breaks.
func normalizeText(s string) string {
	s = reFootnote.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(ln, " "))
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
