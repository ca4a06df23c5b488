package stele

import (
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var (
	rxLazyImageSrc    = regexp.MustCompile(`(?i)^\s*\S+\.(jpg|jpeg|png|webp)\S*\s*$`)
	rxLazyImageSrcset = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)\s+\d`)
	rxImgExtensions   = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)`)
	rxSrcsetURL       = regexp.MustCompile(`(?i)(\S+)(\s+[\d.]+[xw])?(\s*(?:,|$))`)
	rxB64DataURL      = regexp.MustCompile(`(?i)^data:\s*([^\s;,]+)\s*;\s*base64\s*`)
)

// prepareDocument normalizes a parsed article page before content
// extraction:
//   - Replace lazy loaded images with the image from their noscript
//     counterpart
//   - Convert data-src and data-srcset attributes in lazy images to
//     src and srcset
//   - Surface image URLs from inline background-image styles as img
//     placeholders
//   - Convert relative URLs into absolute URLs
//   - Remove all script and noscript tags
//   - Remove all comments in the document
func prepareDocument(doc *html.Node, baseURL *nurl.URL) {
	replaceLazyImage(doc)
	convertLazyImageAttrs(doc)
	promoteStyleImages(doc)
	convertRelativeURLs(doc, baseURL)
	removeScripts(doc)
	removeComments(doc)
}

// replaceLazyImage finds all <noscript> that are located after <img>
// nodes and contain only one <img> element, then replaces the first
// image with the image from inside the <noscript> tag. This recovers
// the real image markup on sites that render progressive placeholders
// (e.g. Medium).
func replaceLazyImage(doc *html.Node) {
	// Find img without any attribute that might contain an image and
	// remove it, so a placeholder is never kept in favor of the img
	// from noscript in the next step.
	imgs := dom.GetElementsByTagName(doc, "img")
	dom.ForEachNode(imgs, func(img *html.Node, _ int) {
		for _, attr := range img.Attr {
			switch attr.Key {
			case "src", "srcset", "data-src", "data-srcset", "data-lazy-src":
				return
			}

			if rxImgExtensions.MatchString(attr.Val) {
				return
			}
		}

		img.Parent.RemoveChild(img)
	})

	// Next find noscript and try to extract its image
	noscripts := dom.GetElementsByTagName(doc, "noscript")
	dom.ForEachNode(noscripts, func(noscript *html.Node, _ int) {
		// Parse content of noscript and make sure it only contains image
		noscriptContent := dom.TextContent(noscript)
		tmpDoc, err := html.Parse(strings.NewReader(noscriptContent))
		if err != nil {
			return
		}

		tmpBody := dom.GetElementsByTagName(tmpDoc, "body")[0]
		if !isSingleImage(tmpBody) {
			return
		}

		// If noscript has a previous sibling and it only contains
		// image, replace it with the noscript content.
		prevElement := dom.PreviousElementSibling(noscript)
		if prevElement != nil && isSingleImage(prevElement) {
			dom.ReplaceChild(noscript.Parent, dom.FirstElementChild(tmpBody), prevElement)
		}
	})
}

// convertLazyImageAttrs converts attributes like data-src and
// data-srcset, which are often found in lazy-loaded images and
// pictures, into plain src and srcset so the images survive without
// JS.
func convertLazyImageAttrs(doc *html.Node) {
	imageNodes := dom.GetAllNodesWithTag(doc, "img", "picture", "figure")
	dom.ForEachNode(imageNodes, func(elem *html.Node, _ int) {
		src := dom.GetAttribute(elem, "src")
		srcset := dom.GetAttribute(elem, "srcset")
		nodeTag := dom.TagName(elem)
		nodeClass := dom.ClassName(elem)

		// Some sites put a 1px square image as data uri in the src
		// attribute. If the data uri is too short it is surely a
		// placeholder, so remove it.
		if src != "" && rxB64DataURL.MatchString(src) {
			// SVG can be meaningful even in under 133 bytes.
			parts := rxB64DataURL.FindStringSubmatch(src)
			if parts[1] == "image/svg+xml" {
				return
			}

			// Make sure this element has other attributes which
			// contain an image. If it doesn't, this src is important
			// and shouldn't be removed.
			srcCouldBeRemoved := false
			for _, attr := range elem.Attr {
				if attr.Key == "src" {
					continue
				}

				if rxImgExtensions.MatchString(attr.Val) {
					srcCouldBeRemoved = true
					break
				}
			}

			// An image less than 100 bytes (133 after base64) is too
			// small to be anything but a placeholder.
			if srcCouldBeRemoved {
				b64starts := strings.Index(src, "base64") + 7
				b64length := len(src) - b64starts
				if b64length < 133 {
					src = ""
					dom.RemoveAttribute(elem, "src")
				}
			}
		}

		if (src != "" || srcset != "") && !strings.Contains(strings.ToLower(nodeClass), "lazy") {
			return
		}

		for i := 0; i < len(elem.Attr); i++ {
			attr := elem.Attr[i]
			if attr.Key == "src" || attr.Key == "srcset" {
				continue
			}

			copyTo := ""
			if rxLazyImageSrcset.MatchString(attr.Val) {
				copyTo = "srcset"
			} else if rxLazyImageSrc.MatchString(attr.Val) {
				copyTo = "src"
			}

			if copyTo == "" {
				continue
			}

			if nodeTag == "img" || nodeTag == "picture" {
				// if this is an img or picture, set the attribute directly
				dom.SetAttribute(elem, copyTo, attr.Val)
			} else if nodeTag == "figure" && len(dom.GetAllNodesWithTag(elem, "img", "picture")) == 0 {
				// if the item is a <figure> that does not contain an
				// image or picture, create one and place it inside
				img := dom.CreateElement("img")
				dom.SetAttribute(img, copyTo, attr.Val)
				dom.AppendChild(elem, img)
			}
		}
	})
}

// promoteStyleImages surfaces image URLs set through inline
// background-image styles as img placeholders so they survive the
// markdown conversion.
func promoteStyleImages(doc *html.Node) {
	for _, node := range dom.GetElementsByTagName(doc, "*") {
		switch dom.TagName(node) {
		case "img", "picture", "source":
			continue
		}

		style := dom.GetAttribute(node, "style")
		if strings.TrimSpace(style) == "" {
			continue
		}

		urls := styleImageURLs(style)
		if len(urls) == 0 {
			continue
		}

		// Skip containers that already carry their image as markup.
		if len(dom.GetAllNodesWithTag(node, "img", "picture")) > 0 {
			continue
		}

		for _, url := range urls {
			img := dom.CreateElement("img")
			dom.SetAttribute(img, "src", url)
			dom.AppendChild(node, img)
		}
	}
}

// convertRelativeURLs converts all relative URLs in the document into
// absolute URLs. We do this for a, img, picture, figure, video,
// audio, source, link, embed, iframe and object.
func convertRelativeURLs(doc *html.Node, baseURL *nurl.URL) {
	// Prepare nodes and methods
	as := dom.GetElementsByTagName(doc, "a")
	links := dom.GetElementsByTagName(doc, "link")
	embeds := dom.GetElementsByTagName(doc, "embed")
	iframes := dom.GetElementsByTagName(doc, "iframe")
	objects := dom.GetElementsByTagName(doc, "object")
	medias := dom.GetAllNodesWithTag(doc, "img", "picture", "figure", "video", "audio", "source")

	convertNode := func(node *html.Node, attrName string) {
		if dom.HasAttribute(node, attrName) {
			val := dom.GetAttribute(node, attrName)
			newVal := createAbsoluteURL(val, baseURL)
			dom.SetAttribute(node, attrName, newVal)
		}
	}

	convertNodes := func(nodes []*html.Node, attrName string) {
		for _, node := range nodes {
			convertNode(node, attrName)
		}
	}

	// Convert all relative URLs
	convertNodes(as, "href")
	convertNodes(links, "href")
	convertNodes(embeds, "src")
	convertNodes(iframes, "src")
	convertNodes(objects, "data")

	for _, media := range medias {
		convertNode(media, "src")
		convertNode(media, "poster")

		if srcset := dom.GetAttribute(media, "srcset"); srcset != "" {
			newSrcset := rxSrcsetURL.ReplaceAllStringFunc(srcset, func(s string) string {
				p := rxSrcsetURL.FindStringSubmatch(s)
				return createAbsoluteURL(p[1], baseURL) + p[2] + p[3]
			})
			dom.SetAttribute(media, "srcset", newSrcset)
		}
	}
}

// removeScripts removes script and noscript tags from the document.
func removeScripts(doc *html.Node) {
	scripts := dom.GetAllNodesWithTag(doc, "script", "noscript")
	dom.RemoveNodes(scripts, nil)
}

// removeComments finds all comments in the document then removes them.
func removeComments(doc *html.Node) {
	// Find all comments
	var comments []*html.Node
	var finder func(*html.Node)

	finder = func(node *html.Node) {
		if node.Type == html.CommentNode {
			comments = append(comments, node)
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			finder(child)
		}
	}

	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		finder(child)
	}

	// Remove it
	dom.RemoveNodes(comments, nil)
}

// isSingleImage checks if node is an image, or if node contains
// exactly one image whether as a direct child or as its descendants.
func isSingleImage(node *html.Node) bool {
	if dom.TagName(node) == "img" {
		return true
	}

	children := dom.Children(node)
	textContent := dom.TextContent(node)
	if len(children) != 1 || strings.TrimSpace(textContent) != "" {
		return false
	}

	return isSingleImage(children[0])
}
