package stele

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPNG = []byte("\x89PNG\r\n\x1a\nfake image bytes")

func TestScribe_LocalizeImages(t *testing.T) {
	newImageServer := func(t *testing.T, pngHits *int) *httptest.Server {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, ".png"):
				if pngHits != nil {
					*pngHits++
				}
				w.Header().Set("Content-Type", "image/png")
				w.Write(testPNG)
			case r.URL.Path == "/noext":
				w.Header().Set("Content-Type", "image/webp")
				w.Write([]byte("webp bytes"))
			case r.URL.Path == "/sniffed":
				// Suppress the automatic Content-Type detection
				w.Header()["Content-Type"] = nil
				w.Write(testPNG)
			case r.URL.Path == "/not-image":
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, "<html>not an image</html>")
			case r.URL.Path == "/untyped-not-image":
				w.Header()["Content-Type"] = nil
				fmt.Fprint(w, "<html><body>not an image</body></html>")
			default:
				http.NotFound(w, r)
			}
		}))
		t.Cleanup(server.Close)

		return server
	}

	newScribe := func() *Scribe {
		scribe := &Scribe{DisableCurl: true}
		scribe.Validate()
		return scribe
	}

	ctx := context.Background()

	t.Run("duplicate references share one download", func(t *testing.T) {
		pngHits := 0
		server := newImageServer(t, &pngHits)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![one](%s/a.png) middle ![two](%s/a.png)", server.URL, server.URL)
		rewritten, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "_media/0.png", results[0].Local)
		assert.Equal(t, 1, pngHits)

		assert.Equal(t, "![one](_media/0.png) middle ![two](_media/0.png)", rewritten)

		saved, err := os.ReadFile(filepath.Join(mediaDir, "0.png"))
		require.NoError(t, err)
		assert.Equal(t, testPNG, saved)
	})

	t.Run("failed image keeps remote reference and its index", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![a](%s/broken) ![b](%s/ok.png)", server.URL, server.URL)
		rewritten, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 2)
		require.Error(t, results[0].Err)
		assert.Empty(t, results[0].Local)
		require.NoError(t, results[1].Err)
		assert.Equal(t, "_media/1.png", results[1].Local)

		assert.Contains(t, rewritten, fmt.Sprintf("![a](%s/broken)", server.URL))
		assert.Contains(t, rewritten, "![b](_media/1.png)")

		imageErr := &ImageFetchError{}
		assert.ErrorAs(t, results[0].Err, &imageErr)
	})

	t.Run("extension from content type", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![x](%s/noext)", server.URL)
		_, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "_media/0.webp", results[0].Local)
	})

	t.Run("extension from sniffed bytes", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![x](%s/sniffed)", server.URL)
		_, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "_media/0.png", results[0].Local)
	})

	t.Run("non image payload fails", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![x](%s/not-image)", server.URL)
		rewritten, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.Error(t, results[0].Err)
		assert.Contains(t, results[0].Err.Error(), "unexpected MIME")
		assert.Equal(t, body, rewritten)

		// Nothing was saved, so the media dir was never created
		_, err := os.Stat(mediaDir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("non image payload without content type fails", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		body := fmt.Sprintf("![x](%s/untyped-not-image)", server.URL)
		rewritten, results := newScribe().localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.Error(t, results[0].Err)
		assert.Contains(t, results[0].Err.Error(), "unexpected MIME")
		assert.Equal(t, body, rewritten)

		_, err := os.Stat(mediaDir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("data uris and relative references are left alone", func(t *testing.T) {
		body := "![x](data:image/png;base64,AAAA) ![y](/relative.png)"

		rewritten, results := newScribe().localizeImages(ctx, body, "https://example.com", t.TempDir())
		assert.Equal(t, body, rewritten)
		assert.Empty(t, results)
	})

	t.Run("progress callback", func(t *testing.T) {
		server := newImageServer(t, nil)
		mediaDir := filepath.Join(t.TempDir(), MediaDirName)

		var calls [][2]int
		scribe := newScribe()
		scribe.ImageProgress = func(finished, total int) {
			calls = append(calls, [2]int{finished, total})
		}

		body := fmt.Sprintf("![a](%s/a.png) ![b](%s/b.png)", server.URL, server.URL)
		scribe.localizeImages(ctx, body, server.URL, mediaDir)

		assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
	})

	t.Run("curl fallback saves the image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}))
		t.Cleanup(server.Close)

		payload := filepath.Join(t.TempDir(), "payload")
		require.NoError(t, os.WriteFile(payload, testPNG, 0o644))

		scribe := &Scribe{}
		scribe.Validate()
		scribe.curl = &curlRunner{path: writeFakeCurl(t, "cat "+payload)}

		mediaDir := filepath.Join(t.TempDir(), MediaDirName)
		body := fmt.Sprintf("![x](%s/blocked.png)", server.URL)
		rewritten, results := scribe.localizeImages(ctx, body, server.URL, mediaDir)

		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.Equal(t, "_media/0.png", results[0].Local)
		assert.Equal(t, "![x](_media/0.png)", rewritten)

		saved, err := os.ReadFile(filepath.Join(mediaDir, "0.png"))
		require.NoError(t, err)
		assert.Equal(t, testPNG, saved)
	})

	t.Run("curl fallback rejects non image output", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}))
		t.Cleanup(server.Close)

		scribe := &Scribe{}
		scribe.Validate()
		scribe.curl = &curlRunner{path: writeFakeCurl(t, `echo "<html>interstitial</html>"`)}

		body := fmt.Sprintf("![x](%s/blocked.png)", server.URL)
		_, results := scribe.localizeImages(ctx, body, server.URL, filepath.Join(t.TempDir(), MediaDirName))

		require.Len(t, results, 1)
		require.Error(t, results[0].Err)
		assert.Contains(t, results[0].Err.Error(), "not an image")
	})
}
