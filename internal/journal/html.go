package journal

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

//nolint:gochecknoglobals // Compiled once, read-only.
var htmlTagRe = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// plainText flattens rich-text editor markup into a single line of text.
func plainText(s string) string {
	if htmlTagRe.MatchString(s) {
		if text, ok := htmlToText(s); ok {
			s = text
		}
	}

	return strings.Join(strings.Fields(s), " ")
}

func htmlToText(s string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", false
	}

	doc.Find("script, style").Remove()
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, block *goquery.Selection) {
		block.AppendHtml("\n")
	})

	return doc.Text(), true
}
