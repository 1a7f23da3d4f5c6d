
package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"
)

const sampleHTML = `<!doctype html><html lang="en"><head>
<title>Test Page</title>
</head><body>
<h1 class="article-title">Hello</h1>
<p>Go is great for network services.</p>
</body></html>`

func mustParse(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return doc
}

func TestParse(t *testing.T) {
	doc := mustParse(t, sampleHTML)
	if got := doc.Find("title").Text(); got != "Test Page" {
		t.Fatalf("want title Test Page, got %q", got)
	}
	if _, ok := pageRoot(doc); !ok {
		t.Fatal("expected a page root")
	}
}

func TestParseDecodesLatin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("<html><body><p>café</p></body></html>")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc, err := Parse(strings.NewReader(raw), "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := doc.Find("p").Text(); got != "café" {
		t.Fatalf("want café, got %q", got)
	}
}

func TestPageRootAbsent(t *testing.T) {
	if _, ok := pageRoot(nil); ok {
		t.Fatal("nil document must have no root")
	}
	if _, ok := pageRoot(mustParse(t, "")); ok {
		t.Fatal("empty page must have no root")
	}
	if _, ok := pageRoot(mustParse(t, "<html><body>  \n </body></html>")); ok {
		t.Fatal("whitespace-only body must have no root")
	}
}
