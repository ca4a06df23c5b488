package stele

import (
	"context"
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

// feedStrategy recovers an article through the platform's
// syndication feed when the page itself is blocked. The feed endpoint
// usually sits behind much weaker anti-scraping checks and carries
// the full article body for recent posts.
type feedStrategy struct {
	s *Scribe
}

func (f *feedStrategy) Name() string { return MethodFeed }

func (f *feedStrategy) Fetch(ctx context.Context, articleURL string) (*FetchResult, error) {
	u, err := nurl.Parse(articleURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, feedURL := range deriveFeedURLs(u) {
		body, err := f.s.fetchBody(ctx, feedURL, browserHeaders())
		if err != nil {
			lastErr = err
			continue
		}

		feed, err := gofeed.NewParser().ParseString(body)
		if err != nil {
			lastErr = fmt.Errorf("parse feed %s: %w", feedURL, err)
			continue
		}

		item := matchFeedItem(feed, u)
		if item == nil {
			lastErr = fmt.Errorf("article not found in feed %s", feedURL)
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content == "" {
			lastErr = fmt.Errorf("feed entry in %s has no content", feedURL)
			continue
		}

		f.s.logf("found article in feed %s", feedURL)
		return &FetchResult{HTML: content, Method: MethodFeed, Title: item.Title}, nil
	}

	return nil, lastErr
}

// deriveFeedURLs builds the candidate feed URLs for an article URL,
// most specific first:
//
//	https://host/@user/slug-abc123  -> https://host/feed/@user
//	https://host/pub/slug-abc123    -> https://host/feed/pub, https://host/feed
//	https://host/slug-abc123        -> https://host/feed
func deriveFeedURLs(articleURL *nurl.URL) []string {
	root := articleURL.Scheme + "://" + articleURL.Host

	segments := pathSegments(articleURL)
	for _, segment := range segments {
		if strings.HasPrefix(segment, "@") {
			return []string{root + "/feed/" + segment}
		}
	}

	if len(segments) > 1 {
		return []string{root + "/feed/" + segments[0], root + "/feed"}
	}

	return []string{root + "/feed"}
}

// matchFeedItem returns the feed entry whose link or GUID belongs to
// the requested article, or nil.
func matchFeedItem(feed *gofeed.Feed, articleURL *nurl.URL) *gofeed.Item {
	id := articleID(articleURL)
	if id == "" {
		return nil
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		if strings.Contains(item.Link, id) || strings.Contains(item.GUID, id) {
			return item
		}
	}

	return nil
}

// articleID extracts the token used to find an article in its feed:
// the trailing hex ID after the last hyphen of the last path segment
// (Medium-style URLs end in one), or the whole segment otherwise.
func articleID(articleURL *nurl.URL) string {
	segments := pathSegments(articleURL)
	if len(segments) == 0 {
		return ""
	}

	last := segments[len(segments)-1]
	if idx := strings.LastIndex(last, "-"); idx >= 0 && idx+1 < len(last) {
		if token := last[idx+1:]; isHexToken(token) {
			return token
		}
	}

	return last
}

func pathSegments(u *nurl.URL) []string {
	var segments []string
	for _, segment := range strings.Split(u.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	return segments
}

// isHexToken reports whether s looks like a platform article ID, i.e.
// a reasonably long lowercase hex string.
func isHexToken(s string) bool {
	if len(s) < 8 {
		return false
	}

	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}

	return true
}
