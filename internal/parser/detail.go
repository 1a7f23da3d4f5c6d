
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsinlevels-crawler/internal/models"
)

// ContentSelector locates the article content container on a detail page.
const ContentSelector = "div#nContent"

// DetailField fills part of a DetailRecord from a detail page.
type DetailField struct {
	Name    string
	Extract func(page *goquery.Selection, rec *models.DetailRecord)
}

type DetailExtractor struct {
	Fields []DetailField
}

var _ Extractor[models.DetailRecord] = (*DetailExtractor)(nil)

func NewDetailExtractor() *DetailExtractor {
	return &DetailExtractor{Fields: DefaultDetailFields()}
}

// DefaultDetailFields returns the rules for the current article layout. The
// content container is read positionally: child 0 is the date, the last two
// children are trailer sections (the second to last holds the difficult
// words) and everything in between is body text.
func DefaultDetailFields() []DetailField {
	return []DetailField{
		{Name: "title", Extract: detailTitle},
		{Name: "image_url", Extract: detailImage},
		{Name: "date", Extract: detailDate},
		{Name: "body", Extract: detailBody},
		{Name: "difficult_words", Extract: detailDifficultWords},
	}
}

func (e *DetailExtractor) Extract(doc *goquery.Document) (models.DetailRecord, bool) {
	root, ok := pageRoot(doc)
	if !ok {
		return models.DetailRecord{}, false
	}
	rec := models.DetailRecord{DifficultWords: map[string]string{}}
	for _, f := range e.Fields {
		f.Extract(root, &rec)
	}
	return rec, true
}

func contentChildren(page *goquery.Selection) *goquery.Selection {
	return page.Find(ContentSelector).First().Children()
}

func detailTitle(page *goquery.Selection, rec *models.DetailRecord) {
	h1 := page.Find("h1.article-title").First()
	if h1.Length() == 0 {
		return
	}
	rec.Title = strings.TrimSpace(h1.Text())
}

func detailImage(page *goquery.Selection, rec *models.DetailRecord) {
	a := page.Find("div.img-wrap").First().Find("a").First()
	if href, ok := a.Attr("href"); ok {
		rec.ImageURL = href
	}
}

func detailDate(page *goquery.Selection, rec *models.DetailRecord) {
	children := contentChildren(page)
	if children.Length() == 0 {
		return
	}
	rec.Date = strings.TrimSpace(children.First().Text())
}

func detailBody(page *goquery.Selection, rec *models.DetailRecord) {
	children := contentChildren(page)
	n := children.Length()
	if n < 3 {
		rec.Body = ""
		return
	}
	parts := make([]string, 0, n-3)
	children.Slice(1, n-2).Each(func(i int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})
	rec.Body = strings.Join(parts, "\n")
}

// detailDifficultWords scans the second to last content child for anchors
// wrapping a <strong> word; the definition is the node right after the anchor.
func detailDifficultWords(page *goquery.Selection, rec *models.DetailRecord) {
	children := contentChildren(page)
	n := children.Length()
	if n < 2 {
		return
	}
	if rec.DifficultWords == nil {
		rec.DifficultWords = map[string]string{}
	}
	children.Eq(n-2).Find("a[href]").Each(func(i int, a *goquery.Selection) {
		word := a.Find("strong").First()
		next := a.Nodes[0].NextSibling
		if word.Length() == 0 || next == nil {
			return
		}
		key := strings.TrimSpace(word.Text())
		value := strings.TrimSpace(nodeText(next))
		if len(value) >= 2 && strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
			value = strings.TrimSpace(value[1 : len(value)-1])
		}
		if key == "" || value == "" {
			return
		}
		rec.DifficultWords[key] = CleanDefinition(value)
	})
}

// CleanDefinition trims parentheses, commas and periods from both ends of a
// definition, then surrounding whitespace.
func CleanDefinition(value string) string {
	return strings.TrimSpace(strings.Trim(value, "(),."))
}
