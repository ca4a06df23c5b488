package stele

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/cenkalti/backoff/v4"
)

var maxRetryElapsedTime = 30 * time.Second

// newHTTPClient builds the shared client. The transport is wrapped
// with the CloudFlare bypass round tripper, which fills in the
// browser headers anti-bot checks look for; headers set explicitly on
// a request still win.
func newHTTPClient(timeout time.Duration, transport http.RoundTripper, userAgent string) *http.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}

	transport = cloudflarebp.AddCloudFlareByPass(transport, cloudflarebp.Options{
		AddMissingHeaders: true,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"User-Agent":      userAgent,
		},
	})

	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}
}

// downloadFile GETs url with the given headers, retrying with
// exponential backoff on 5xx and 429 only. Hard blocks such as 403
// are returned immediately so the caller can move on to its fallback.
func (s *Scribe) downloadFile(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.UserAgent)
	for key, values := range headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	var resp *http.Response
	op := func() error {
		var err error
		resp, err = s.httpClient.Do(req)
		if err == nil && (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) {
			resp.Body.Close()
			err = fmt.Errorf("failed to fetch with status code: %d", resp.StatusCode)
		}
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = maxRetryElapsedTime
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.MaxRetries)), ctx)
	err = backoff.Retry(op, bo)

	return resp, err
}

// fetchBody downloads url and returns its body, treating any non-200
// status as an error.
func (s *Scribe) fetchBody(ctx context.Context, url string, headers http.Header) (string, error) {
	resp, err := s.downloadFile(ctx, url, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
