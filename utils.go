package stele

import (
	"mime"
	nurl "net/url"
	"path"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"
)

var (
	rxStyleURL  = regexp.MustCompile(`(?i)^url\((.+)\)$`)
	rxSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	rxImageExt  = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|avif|svg)(?:$|[?#])`)
)

const maxSlugLength = 80

// isValidURL checks if URL is valid.
func isValidURL(s string) bool {
	_, err := nurl.ParseRequestURI(s)
	return err == nil
}

// createAbsoluteURL convert url to absolute path based on base.
func createAbsoluteURL(url string, base *nurl.URL) string {
	url = strings.TrimSpace(url)
	if url == "" || base == nil {
		return ""
	}

	// If it is data url, return as it is
	if strings.HasPrefix(url, "data:") {
		return url
	}

	// If it is fragment path, return as it is
	if strings.HasPrefix(url, "#") {
		return url
	}

	// If it is already an absolute URL, clean the URL then return it
	tmp, err := nurl.ParseRequestURI(url)
	if err == nil && tmp.Scheme != "" && tmp.Hostname() != "" {
		cleanURL(tmp)
		return tmp.String()
	}

	// Otherwise, resolve against base URL.
	tmp, err = nurl.Parse(url)
	if err != nil {
		return url
	}

	cleanURL(tmp)
	return base.ResolveReference(tmp).String()
}

// cleanURL removes fragment (#fragment) and UTM queries from URL
func cleanURL(url *nurl.URL) {
	queries := url.Query()

	for key := range queries {
		if strings.HasPrefix(key, "utm_") {
			queries.Del(key)
		}
	}

	url.Fragment = ""
	url.RawQuery = queries.Encode()
}

// sanitizeStyleURL sanitizes the URL in CSS by removing `url()`,
// quotation mark and trailing slash
func sanitizeStyleURL(url string) string {
	cssURL := rxStyleURL.ReplaceAllString(url, "$1")
	cssURL = strings.TrimSpace(cssURL)

	if strings.HasPrefix(cssURL, `"`) {
		return strings.Trim(cssURL, `"`)
	}

	if strings.HasPrefix(cssURL, `'`) {
		return strings.Trim(cssURL, `'`)
	}

	return cssURL
}

// slugFromTitle converts an article title into a file name stem:
// lowercased, every run of non-alphanumerics collapsed to a single
// hyphen, trimmed and capped.
func slugFromTitle(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = rxSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}

	return slug
}

// slugFromURL is the fallback stem for titles that slug to nothing,
// e.g. titles made of punctuation or of scripts outside the slug
// alphabet. It sanitizes the last path segment of the article URL.
func slugFromURL(articleURL string) string {
	u, err := nurl.Parse(articleURL)
	if err != nil {
		return ""
	}

	base := strings.ToLower(path.Base(u.Path))
	if base == "." || base == "/" {
		return ""
	}

	return strings.Trim(sanitize.BaseName(base), "-")
}

// extensionByContentType maps an image Content-Type to a file
// extension. Returns empty string for unknown or non-image types.
func extensionByContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/avif":
		return ".avif"
	case "image/svg+xml":
		return ".svg"
	}

	if strings.HasPrefix(mediaType, "image/") {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			return exts[0]
		}
	}

	return ""
}

// extensionByURL pulls a known image extension out of a URL.
func extensionByURL(rawURL string) string {
	parts := rxImageExt.FindStringSubmatch(rawURL)
	if parts == nil {
		return ""
	}

	ext := "." + strings.ToLower(parts[1])
	if ext == ".jpeg" {
		ext = ".jpg"
	}

	return ext
}
