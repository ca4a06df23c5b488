package stele

import (
	"fmt"
	"strings"
)

// Attempt records one failed fetch strategy.
type Attempt struct {
	Method string
	Err    error
}

// FetchError is returned when every fetch strategy failed for an
// article URL. Attempts holds one entry per strategy in the order
// they were tried.
type FetchError struct {
	URL      string
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Method, a.Err)
	}
	return fmt.Sprintf("all fetch strategies failed for %s (%s)", e.URL, strings.Join(parts, "; "))
}

// Unwrap returns the cause of the last attempt.
func (e *FetchError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// ParseError is returned when a fetched page cannot be turned into a
// document.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ImageFetchError records a single image that could not be
// downloaded. It never fails the run; references to the image keep
// their remote URL.
type ImageFetchError struct {
	URL     string
	Primary error
	Curl    error
}

func (e *ImageFetchError) Error() string {
	if e.Curl == nil {
		return fmt.Sprintf("image %s: %v", e.URL, e.Primary)
	}
	return fmt.Sprintf("image %s: %v (curl fallback: %v)", e.URL, e.Primary, e.Curl)
}

func (e *ImageFetchError) Unwrap() error { return e.Primary }

type httpStatusError struct {
	StatusCode int
	URL        string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// blockedError marks a 200 response that is actually an anti-scraping
// interstitial rather than the article.
type blockedError struct {
	URL    string
	Marker string
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("blocked response for %s (page contains %q)", e.URL, e.Marker)
}
