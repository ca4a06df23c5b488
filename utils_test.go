package stele

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidURL(t *testing.T) {
	result := isValidURL("https://github.com/go-stele/stele")
	result2 := isValidURL("itIsNotAURL")
	assert.True(t, result)
	assert.False(t, result2)
}

func TestCreateAbsoluteURL(t *testing.T) {
	dataURL := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAIAAAACCAYAAABytg0kAAAAEklEQVQIW2P8z8AARAwMjDAGACwBA/+8RVWvAAAAAElFTkSuQmCC"
	rawURL := "https://google.com/page#fragment?utm_source=google&utm_medium=cpc&utm_campaign=summer_sale"

	parsedURL, err := url.Parse(rawURL)
	assert.NoError(t, err)

	resultdataURL := createAbsoluteURL(dataURL, parsedURL)
	resultRelativePath := createAbsoluteURL("/it/is/relarivepath", parsedURL)
	resulacualturl := createAbsoluteURL("https://bing.com", parsedURL)
	resulAcualtURLWithfragment := createAbsoluteURL(rawURL, parsedURL)
	resulWithoutURL := createAbsoluteURL("", parsedURL)
	resulWithfragment := createAbsoluteURL("#bar", parsedURL)

	assert.Equal(t, dataURL, resultdataURL)
	assert.Equal(t, "https://google.com/it/is/relarivepath", resultRelativePath)
	assert.Equal(t, "https://bing.com", resulacualturl)
	assert.Equal(t, "https://google.com/page%23fragment", resulAcualtURLWithfragment)
	assert.Equal(t, "", resulWithoutURL)
	assert.Equal(t, "#bar", resulWithfragment)
}

func TestCleanURL(t *testing.T) {
	parsedURL, err := url.Parse("https://example.com/post?utm_source=google&utm_medium=cpc&id=42#section")
	assert.NoError(t, err)

	cleanURL(parsedURL)
	assert.Equal(t, "https://example.com/post?id=42", parsedURL.String())
}

func TestSanitizeStyleURL(t *testing.T) {
	assert.Equal(t, "https://a.com/b.png", sanitizeStyleURL(`url("https://a.com/b.png")`))
	assert.Equal(t, "https://a.com/b.png", sanitizeStyleURL(`url('https://a.com/b.png')`))
	assert.Equal(t, "https://a.com/b.png", sanitizeStyleURL(`url(https://a.com/b.png)`))
	assert.Equal(t, "relative/path.jpg", sanitizeStyleURL("relative/path.jpg"))
}

func TestSlugFromTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"simple", "Welcome to Medium", "welcome-to-medium"},
		{"punctuation", "Hello, World! A Test", "hello-world-a-test"},
		{"surrounding space", "  Trimmed Title  ", "trimmed-title"},
		{"symbol runs", "Multiple   spaces & symbols!!", "multiple-spaces-symbols"},
		{"only punctuation", "?!?!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugFromTitle(tt.title))
		})
	}

	t.Run("long titles are capped", func(t *testing.T) {
		long := ""
		for i := 0; i < 30; i++ {
			long += "word "
		}

		slug := slugFromTitle(long)
		assert.True(t, len(slug) <= maxSlugLength)
		assert.NotEqual(t, "-", slug[len(slug)-1:])
	})
}

func TestSlugFromURL(t *testing.T) {
	assert.Equal(t, "welcome-to-medium-9e53ca408c48", slugFromURL("https://medium.com/@ev/welcome-to-medium-9e53ca408c48"))
	assert.Equal(t, "", slugFromURL("https://medium.com/"))
	assert.Equal(t, "", slugFromURL("https://medium.com"))
}

func TestExtensionByContentType(t *testing.T) {
	assert.Equal(t, ".jpg", extensionByContentType("image/jpeg"))
	assert.Equal(t, ".png", extensionByContentType("image/png"))
	assert.Equal(t, ".webp", extensionByContentType("image/webp"))
	assert.Equal(t, ".svg", extensionByContentType("image/svg+xml"))
	assert.Equal(t, ".gif", extensionByContentType("image/gif; charset=utf-8"))
	assert.Equal(t, "", extensionByContentType("text/html"))
	assert.Equal(t, "", extensionByContentType(""))
}

func TestExtensionByURL(t *testing.T) {
	assert.Equal(t, ".jpg", extensionByURL("https://cdn.example.com/photo.jpeg?w=700"))
	assert.Equal(t, ".png", extensionByURL("https://cdn.example.com/resize/fit/pic.PNG"))
	assert.Equal(t, ".webp", extensionByURL("https://cdn.example.com/pic.webp#frag"))
	assert.Equal(t, "", extensionByURL("https://cdn.example.com/photo"))
	assert.Equal(t, "", extensionByURL("https://cdn.example.com/style.css"))
}
