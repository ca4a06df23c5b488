package stele

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// styleImageURLs scans a style attribute value and returns the image
// URLs referenced by url() tokens, e.g. in background-image
// declarations. Medium-style hero images are often set this way
// instead of through an img tag.
func styleImageURLs(style string) []string {
	var urls []string

	lexer := css.NewLexer(parse.NewInputString(style))
	for {
		token, bt := lexer.Next()

		// Check for error or EOF
		if token == css.ErrorToken {
			break
		}

		if token != css.URLToken {
			continue
		}

		cssURL := sanitizeStyleURL(string(bt))
		if cssURL == "" || strings.HasPrefix(cssURL, "data:") {
			continue
		}

		if extensionByURL(cssURL) == "" {
			continue
		}

		urls = append(urls, cssURL)
	}

	return urls
}
