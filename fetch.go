package stele

import (
	"context"
	"net/http"
	"strings"
)

// fetchStrategy is one way of obtaining article HTML. Strategies are
// tried in order and share this signature, so a new acquisition
// method slots into the list without touching the orchestration.
type fetchStrategy interface {
	Name() string
	Fetch(ctx context.Context, articleURL string) (*FetchResult, error)
}

// blockMarkers are phrases that identify an anti-scraping
// interstitial served with status 200 instead of the article.
var blockMarkers = []string{"Access Denied", "Just a moment..."}

// browserHeaders mimic a regular browser navigation. The platform
// serves "Access Denied" to anything that looks like a script.
func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", "https://www.google.com/")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// imageHeaders mimic a browser loading an image from the article
// page. The CDN checks the Referer.
func imageHeaders(articleURL string) http.Header {
	h := http.Header{}
	h.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", articleURL)
	return h
}

// findBlockMarker returns the marker found near the top of a blocked
// page, or empty string. Only the head of the body is checked so an
// article that merely mentions a marker phrase is not mistaken for an
// interstitial.
func findBlockMarker(body string) string {
	head := body
	if len(head) > 4096 {
		head = head[:4096]
	}

	for _, marker := range blockMarkers {
		if strings.Contains(head, marker) {
			return marker
		}
	}

	return ""
}

// directStrategy fetches the page itself with browser-mimicking
// headers.
type directStrategy struct {
	s *Scribe
}

func (d *directStrategy) Name() string { return MethodDirect }

func (d *directStrategy) Fetch(ctx context.Context, articleURL string) (*FetchResult, error) {
	body, err := d.s.fetchBody(ctx, articleURL, browserHeaders())
	if err != nil {
		return nil, err
	}

	if marker := findBlockMarker(body); marker != "" {
		return nil, &blockedError{URL: articleURL, Marker: marker}
	}

	return &FetchResult{HTML: body, Method: MethodDirect}, nil
}

// curlStrategy fetches the page through the curl subprocess, whose
// TLS fingerprint passes some edges that reject Go clients.
type curlStrategy struct {
	s *Scribe
}

func (c *curlStrategy) Name() string { return MethodCurl }

func (c *curlStrategy) Fetch(ctx context.Context, articleURL string) (*FetchResult, error) {
	body, err := c.s.curl.fetch(ctx, articleURL, browserHeaders())
	if err != nil {
		return nil, err
	}

	page := string(body)
	if marker := findBlockMarker(page); marker != "" {
		return nil, &blockedError{URL: articleURL, Marker: marker}
	}

	return &FetchResult{HTML: page, Method: MethodCurl}, nil
}

// fetchArticle tries each strategy in order and returns the first
// success. When all of them fail the FetchError lists every attempt.
func (s *Scribe) fetchArticle(ctx context.Context, articleURL string) (*FetchResult, error) {
	fetchErr := &FetchError{URL: articleURL}

	for _, strategy := range s.strategies {
		res, err := strategy.Fetch(ctx, articleURL)
		if err == nil {
			s.logf("fetched %s via %s", articleURL, strategy.Name())
			return res, nil
		}

		s.logf("%s fetch failed for %s: %v", strategy.Name(), articleURL, err)
		fetchErr.Attempts = append(fetchErr.Attempts, Attempt{Method: strategy.Name(), Err: err})

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fetchErr
}
