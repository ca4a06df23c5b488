// Package stele saves a single web article as a local markdown
// document. It fetches the page from platforms that resist scraping
// (falling back to the syndication feed and finally to a curl
// subprocess), converts the article to markdown, downloads its images
// into a _media directory next to the output file and rewrites the
// image references to the local copies.
package stele

// Fetch methods, in the order their strategies are tried.
const (
	MethodDirect = "direct"
	MethodFeed   = "feed"
	MethodCurl   = "curl"
)

// MediaDirName is the directory created next to the output document
// to hold downloaded images.
const MediaDirName = "_media"

// Request is data of a save request.
type Request struct {
	// URL of the article to save.
	URL string

	// OutputPath is the destination of the markdown document. Empty
	// means the current directory with a file name derived from the
	// article title. An existing directory means the derived file
	// name inside it. An existing file is overwritten.
	OutputPath string
}

// FetchResult is the raw article HTML together with the method that
// produced it.
type FetchResult struct {
	HTML   string
	Method string

	// Title is an optional hint. Feed entries carry their own title
	// which is used when the page markup has none.
	Title string
}

// Document is a converted article.
type Document struct {
	Title string

	// Body is the complete markdown content, starting with an H1
	// heading.
	Body string
}

// ImageResult records the outcome for one unique image URL found in
// the document, in order of first appearance. Err is nil when the
// image was saved to Local; otherwise Local is empty and the document
// keeps the remote URL.
type ImageResult struct {
	URL   string
	Local string
	Err   error
}

// Result is the outcome of a successful save.
type Result struct {
	URL        string
	Method     string
	Title      string
	OutputPath string

	// MediaDir is the image directory path. It only exists on disk
	// when at least one image was saved.
	MediaDir string

	Images []ImageResult
}

// FailedImages returns how many images could not be downloaded.
func (r *Result) FailedImages() int {
	count := 0
	for _, img := range r.Images {
		if img.Err != nil {
			count++
		}
	}
	return count
}
