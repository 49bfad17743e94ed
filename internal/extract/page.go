package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageTitle returns the og:title of an HTML page, falling back to <title>.
// Any of the given site suffixes (e.g. " - 抖音") is trimmed from the end.
func PageTitle(page string, suffixes ...string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}

	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	for _, s := range suffixes {
		title = strings.TrimSpace(strings.TrimSuffix(title, s))
	}
	return title
}
