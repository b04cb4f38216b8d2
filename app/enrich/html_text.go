package enrich

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText strips markup from a metadata fragment, leaving plain text.
// Plain-text input passes through unchanged apart from whitespace collapsing.
func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}
