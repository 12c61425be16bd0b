package crawler

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Extractor pulls candidate links out of fetched HTML.
//
// Design decision: We use golang.org/x/net/html rather than regex because
// it correctly handles the malformed HTML common on the web and gives a
// proper node tree to walk. Which elements count as links is the only
// policy this type owns: anchor href attributes, in document order.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsHTML reports whether a Content-Type header value indicates HTML.
func IsHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}

// ExtractLinks returns the raw href value of every anchor in body, in
// document order. Values are returned as written in the page; resolving
// and filtering them is the Normalizer's job. The contentType is used to
// decode non-UTF-8 pages. A body that cannot be parsed as HTML yields a
// *ParseError.
func (e *Extractor) ExtractLinks(body []byte, contentType string) ([]string, error) {
	// charset sniffing fails with EOF on an empty body, which is a valid
	// page with no links, not a parse failure.
	if len(body) == 0 {
		return []string{}, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc, err := html.Parse(reader)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
