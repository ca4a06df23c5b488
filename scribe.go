package stele

import (
	"context"
	"fmt"
	"net/http"
	nurl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/pkg/errors"
)

var (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 20 * time.Second
)

// Scribe is the core of stele, which downloads an article and saves
// it as a markdown document with local images.
type Scribe struct {
	UserAgent        string
	EnableLog        bool
	EnableVerboseLog bool

	DisableImages bool
	DisableCurl   bool
	CurlPath      string

	Transport      http.RoundTripper
	RequestTimeout time.Duration
	MaxRetries     int

	// ImageProgress, when set, is called after each unique image
	// settles (saved or failed) with the finished and total counts.
	ImageProgress func(finished, total int)

	isValidated bool
	httpClient  *http.Client
	converter   *md.Converter
	curl        *curlRunner
	strategies  []fetchStrategy
}

// Validate prepares Scribe to make sure its configurations are valid
// and ready to use. Must be run at least once before any save.
func (s *Scribe) Validate() {
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}

	if s.RequestTimeout <= 0 {
		s.RequestTimeout = defaultTimeout
	}

	if s.CurlPath == "" {
		s.CurlPath = "curl"
	}

	s.httpClient = newHTTPClient(s.RequestTimeout, s.Transport, s.UserAgent)

	s.converter = md.NewConverter("", true, nil)
	s.converter.Use(plugin.GitHubFlavored())

	s.curl = nil
	if !s.DisableCurl {
		s.curl = &curlRunner{
			path:      s.CurlPath,
			userAgent: s.UserAgent,
			timeout:   s.RequestTimeout,
		}
	}

	s.strategies = []fetchStrategy{&directStrategy{s}, &feedStrategy{s}}
	if s.curl != nil {
		s.strategies = append(s.strategies, &curlStrategy{s})
	}

	s.isValidated = true
}

// Save downloads the requested article, converts it and writes the
// markdown document together with its media directory. Image
// failures do not fail the save; inspect Result.Images for them.
func (s *Scribe) Save(ctx context.Context, req Request) (*Result, error) {
	// Make sure scribe has been validated
	if !s.isValidated {
		return nil, fmt.Errorf("scribe hasn't been validated")
	}

	// Validate request
	if req.URL == "" {
		return nil, fmt.Errorf("request url is not specified")
	}

	url, err := nurl.Parse(req.URL)
	if err != nil || url.Scheme == "" || url.Hostname() == "" {
		return nil, fmt.Errorf("url \"%s\" is not valid", req.URL)
	}
	cleanURL(url)

	res, err := s.fetchArticle(ctx, url.String())
	if err != nil {
		return nil, err
	}

	doc, err := s.convert(res, url)
	if err != nil {
		return nil, err
	}
	s.logf("converted %q", doc.Title)

	outputPath := resolveOutputPath(req.OutputPath, doc.Title, url.String())
	mediaDir := filepath.Join(filepath.Dir(outputPath), MediaDirName)

	var images []ImageResult
	if !s.DisableImages {
		doc.Body, images = s.localizeImages(ctx, doc.Body, url.String(), mediaDir)
	}

	if err := s.writeDocument(outputPath, doc); err != nil {
		return nil, err
	}

	s.logf("saved %s to %s", url.String(), outputPath)

	return &Result{
		URL:        url.String(),
		Method:     res.Method,
		Title:      doc.Title,
		OutputPath: outputPath,
		MediaDir:   mediaDir,
		Images:     images,
	}, nil
}

// resolveOutputPath decides where the document goes. An explicit path
// naming an existing directory gets the derived file name inside it;
// empty means the working directory.
func resolveOutputPath(outputPath, title, articleURL string) string {
	name := slugFromTitle(title)
	if name == "" {
		name = slugFromURL(articleURL)
	}
	if name == "" {
		name = "article"
	}
	name += ".md"

	if outputPath == "" {
		return name
	}

	if isDirectory(outputPath) {
		return filepath.Join(outputPath, name)
	}

	return outputPath
}

// writeDocument creates the parent directory if needed and writes the
// markdown, replacing any previous version of the document.
func (s *Scribe) writeDocument(path string, doc *Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrapf(err, "create output directory %s", dir)
		}
	}

	body := doc.Body
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return errors.Wrapf(err, "write document %s", path)
	}

	return nil
}

func isDirectory(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}

	return f.IsDir()
}
