
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextExtractor is the fallback mode: every visible text line of the page,
// trimmed, in document order. The document is not modified.
type TextExtractor struct{}

var _ Extractor[[]string] = (*TextExtractor)(nil)

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// noscript content is a single raw text node holding escaped markup.
var skipText = map[string]bool{"script": true, "noscript": true, "style": true}

func (e *TextExtractor) Extract(doc *goquery.Document) ([]string, bool) {
	if _, ok := pageRoot(doc); !ok {
		return nil, false
	}
	lines := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipText[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if t := strings.TrimSpace(line); t != "" {
					lines = append(lines, t)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return lines, true
}
