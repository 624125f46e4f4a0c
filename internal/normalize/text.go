package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagRe     = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	spacesRe      = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	blockElements = "p, li, div, tr, h1, h2, h3, h4, h5, h6, ul, ol"
)

// DescriptionText turns a raw description, plain text or an HTML fragment,
// into cleaned plain text with paragraphs kept on separate lines.
func DescriptionText(raw string) string {
	if raw == "" {
		return ""
	}
	if htmlTagRe.MatchString(raw) {
		raw = htmlToText(raw)
	}
	return CleanText(raw)
}

func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return htmlTagRe.ReplaceAllString(fragment, " ")
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return doc.Text()
}

// CleanText normalizes line endings, collapses runs of spaces, trims every
// line and keeps at most one blank line between paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
	}

	result := strings.Join(lines, "\n")
	result = blankLinesRe.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}

// cleanInline collapses all whitespace, newlines included, into single spaces.
func cleanInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
