package stele

import (
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kennygrant/sanitize"
	"golang.org/x/net/html"
)

// containerSelectors is the priority list for locating the article
// body in a page. Feed-sourced fragments have none of these and fall
// through to the document body.
var containerSelectors = []string{"article", `[role="article"]`, "main"}

// noiseSelector matches page chrome that has no place in the saved
// document.
const noiseSelector = "nav, header, footer, aside, form, script, style, noscript"

// convert turns fetched article HTML into a markdown document.
func (s *Scribe) convert(res *FetchResult, baseURL *nurl.URL) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(res.HTML))
	if err != nil {
		return nil, &ParseError{Op: "parse article html", Err: err}
	}

	prepareDocument(doc, baseURL)

	page := goquery.NewDocumentFromNode(doc)
	container := findContainer(page)

	// Titles often live inside header elements, so read the title
	// before stripping the chrome.
	title := extractTitle(page, container, res.Title)
	container.Find(noiseSelector).Remove()

	body := strings.TrimSpace(s.converter.Convert(container))
	if body == "" {
		return nil, &ParseError{Op: "no article content found"}
	}

	// Feed content and some page layouts lose the headline during
	// extraction; the document always leads with its title.
	if !strings.HasPrefix(body, "#") {
		body = "# " + title + "\n\n" + body
	}

	return &Document{Title: title, Body: body}, nil
}

// findContainer returns the first match from containerSelectors,
// falling back to the document body.
func findContainer(page *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		if sel := page.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	return page.Find("body").First()
}

// extractTitle walks the usual hiding places of an article title: the
// first heading of the container, social metadata, the title tag and
// finally the hint that came with the fetch (feed entries know their
// own title).
func extractTitle(page *goquery.Document, container *goquery.Selection, hint string) string {
	if title := strings.TrimSpace(container.Find("h1").First().Text()); title != "" {
		return title
	}

	for _, selector := range []string{`meta[property="og:title"]`, `meta[name="twitter:title"]`} {
		if content, ok := page.Find(selector).First().Attr("content"); ok {
			if title := strings.TrimSpace(content); title != "" {
				return title
			}
		}
	}

	if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
		return title
	}

	if title := strings.TrimSpace(sanitize.HTML(hint)); title != "" {
		return title
	}

	return "Untitled Article"
}
