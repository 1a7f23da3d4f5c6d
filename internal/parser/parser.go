
package parser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Extractor turns a parsed page into a record of type T. ok is false when the
// page has no extractable root (nil document or empty body).
type Extractor[T any] interface {
	Extract(doc *goquery.Document) (T, bool)
}

// Parse decodes r to UTF-8 using the content type and any in-document hints,
// then builds a goquery document.
func Parse(r io.Reader, contentType string) (*goquery.Document, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	return goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
}

// pageRoot returns the document body, or false for empty pages.
func pageRoot(doc *goquery.Document) (*goquery.Selection, bool) {
	if doc == nil {
		return nil, false
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, false
	}
	if body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "" {
		return nil, false
	}
	return body, true
}

// nodeText concatenates every text node under n, n included.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
