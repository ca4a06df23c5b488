package stele

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var rxMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// imageLocalizer downloads the images referenced by a markdown body
// and rewrites the references to the local copies. State is per run,
// so one Scribe can save any number of articles.
type imageLocalizer struct {
	s          *Scribe
	articleURL string
	mediaDir   string

	saved   map[string]string // remote URL -> local markdown ref
	results []ImageResult
	nextIdx int
}

// localizeImages stores the body's images under mediaDir and returns
// the rewritten body. Failed images keep their remote URL and are
// reported through the results, never as an error.
func (s *Scribe) localizeImages(ctx context.Context, body, articleURL, mediaDir string) (string, []ImageResult) {
	loc := &imageLocalizer{
		s:          s,
		articleURL: articleURL,
		mediaDir:   mediaDir,
		saved:      make(map[string]string),
	}

	return loc.run(ctx, body)
}

func (loc *imageLocalizer) run(ctx context.Context, body string) (string, []ImageResult) {
	urls := loc.collectURLs(body)
	if len(urls) == 0 {
		return body, nil
	}

	for i, url := range urls {
		local, err := loc.download(ctx, url)
		if err != nil {
			loc.results = append(loc.results, ImageResult{URL: url, Err: err})
		} else {
			loc.saved[url] = local
			loc.results = append(loc.results, ImageResult{URL: url, Local: local})
		}

		if loc.s.ImageProgress != nil {
			loc.s.ImageProgress(i+1, len(urls))
		}
	}

	rewritten := rxMarkdownImage.ReplaceAllStringFunc(body, func(ref string) string {
		parts := rxMarkdownImage.FindStringSubmatch(ref)
		local, ok := loc.saved[parts[2]]
		if !ok {
			return ref
		}

		return "![" + parts[1] + "](" + local + ")"
	})

	return rewritten, loc.results
}

// collectURLs returns the unique remote image URLs of the body in
// first-appearance order. Data URIs and anything that is not plain
// http(s) are left alone.
func (loc *imageLocalizer) collectURLs(body string) []string {
	var urls []string
	seen := make(map[string]struct{})

	for _, parts := range rxMarkdownImage.FindAllStringSubmatch(body, -1) {
		url := parts[2]
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}

		if _, ok := seen[url]; ok {
			loc.s.logURL(url, loc.articleURL, true)
			continue
		}

		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	return urls
}

// download fetches one image, HTTP first and then the curl boundary,
// and stores it under the media directory. Returns the local markdown
// ref. The index is claimed up front so names stay stable across runs
// regardless of which downloads succeed.
func (loc *imageLocalizer) download(ctx context.Context, url string) (string, error) {
	idx := loc.nextIdx
	loc.nextIdx++

	data, ext, primaryErr := loc.fetchImage(ctx, url)
	if primaryErr != nil {
		if loc.s.curl == nil {
			return "", &ImageFetchError{URL: url, Primary: primaryErr}
		}

		var curlErr error
		data, curlErr = loc.s.curl.fetch(ctx, url, imageHeaders(loc.articleURL))
		if curlErr == nil {
			sniffed := http.DetectContentType(data)
			if strings.HasPrefix(sniffed, "image/") {
				ext = extensionByContentType(sniffed)
			} else {
				curlErr = fmt.Errorf("curl returned %s, not an image", sniffed)
			}
		}

		if curlErr != nil {
			return "", &ImageFetchError{URL: url, Primary: primaryErr, Curl: curlErr}
		}
	}

	if ext == "" {
		ext = extensionByURL(url)
	}
	if ext == "" {
		ext = extensionByContentType(http.DetectContentType(data))
	}
	if ext == "" {
		ext = ".jpg"
	}

	if err := os.MkdirAll(loc.mediaDir, os.ModePerm); err != nil {
		return "", &ImageFetchError{URL: url, Primary: errors.Wrap(err, "create media directory")}
	}

	name := fmt.Sprintf("%d%s", idx, ext)
	path := filepath.Join(loc.mediaDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &ImageFetchError{URL: url, Primary: errors.Wrapf(err, "write %s", path)}
	}

	loc.s.logURL(url, loc.articleURL, false)
	return MediaDirName + "/" + name, nil
}

// fetchImage is the HTTP attempt. The CDN wants a browser image
// Accept header and the article as Referer, and the payload has to be
// an image.
func (loc *imageLocalizer) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := loc.s.downloadFile(ctx, url, imageHeaders(loc.articleURL))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &httpStatusError{StatusCode: resp.StatusCode, URL: url}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		if mediaType, _, _ := mime.ParseMediaType(contentType); !strings.HasPrefix(mediaType, "image/") {
			return nil, "", fmt.Errorf("unexpected MIME: %s", contentType)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}

	// Responses without a Content-Type are only trusted when their
	// payload sniffs as an image.
	if contentType == "" {
		sniffed := http.DetectContentType(data)
		if !strings.HasPrefix(sniffed, "image/") {
			return nil, "", fmt.Errorf("unexpected MIME: %s", sniffed)
		}
		return data, extensionByContentType(sniffed), nil
	}

	return data, extensionByContentType(contentType), nil
}
