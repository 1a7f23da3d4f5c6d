
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsinlevels-crawler/internal/models"
)

const (
	// ListingBlockSelector matches both the plain and the highlighted block.
	ListingBlockSelector = "div.news-block"
	// AdBlockClass marks in-feed advertisement blocks that reuse the block markup.
	AdBlockClass = "newsi-google-in-feed"
)

// ListingField fills part of a ListingRecord from one listing block.
type ListingField struct {
	Name    string
	Extract func(block *goquery.Selection, rec *models.ListingRecord)
}

// ListingExtractor produces one record per non-ad listing block. Fields run in
// order; a block that yields nothing still produces an empty record.
type ListingExtractor struct {
	Fields []ListingField
}

var _ Extractor[[]models.ListingRecord] = (*ListingExtractor)(nil)

func NewListingExtractor() *ListingExtractor {
	return &ListingExtractor{Fields: DefaultListingFields()}
}

func DefaultListingFields() []ListingField {
	return []ListingField{
		{Name: "image", Extract: listingImage},
		{Name: "title", Extract: listingTitle},
		{Name: "excerpt", Extract: listingExcerpt},
		{Name: "level_links", Extract: listingLevelLinks},
	}
}

func (e *ListingExtractor) Extract(doc *goquery.Document) ([]models.ListingRecord, bool) {
	root, ok := pageRoot(doc)
	if !ok {
		return nil, false
	}
	records := []models.ListingRecord{}
	root.Find(ListingBlockSelector).Each(func(i int, block *goquery.Selection) {
		if block.HasClass(AdBlockClass) {
			return
		}
		var rec models.ListingRecord
		for _, f := range e.Fields {
			f.Extract(block, &rec)
		}
		records = append(records, rec)
	})
	return records, true
}

func listingImage(block *goquery.Selection, rec *models.ListingRecord) {
	img := block.Find("div.img-wrap").First().Find("img").First()
	if img.Length() == 0 {
		return
	}
	rec.Image = &models.Image{
		Src:    img.AttrOr("src", ""),
		Alt:    img.AttrOr("alt", ""),
		Srcset: img.AttrOr("srcset", ""),
	}
}

func listingTitle(block *goquery.Selection, rec *models.ListingRecord) {
	a := block.Find("div.title").First().Find("a").First()
	if a.Length() == 0 {
		return
	}
	rec.Title = strings.TrimSpace(a.Text())
	rec.TitleLink = strings.TrimSpace(a.AttrOr("href", ""))
}

// listingExcerpt reads the date from the first paragraph and the excerpt from
// the last child node of the excerpt block. The excerpt text follows the date
// paragraph as a bare text node in the current markup.
func listingExcerpt(block *goquery.Selection, rec *models.ListingRecord) {
	excerpt := block.Find("div.news-excerpt").First()
	if excerpt.Length() == 0 {
		return
	}
	rec.Date = strings.TrimSpace(excerpt.Find("p").First().Text())

	last := excerpt.Contents().Last()
	if last.Length() == 0 {
		return
	}
	rec.Excerpt = strings.TrimSpace(nodeText(last.Nodes[0]))
}

func listingLevelLinks(block *goquery.Selection, rec *models.ListingRecord) {
	buttons := block.Find("div.fancy-buttons").First()
	if buttons.Length() == 0 {
		return
	}
	links := []models.LevelLink{}
	buttons.Find("a").Each(func(i int, a *goquery.Selection) {
		links = append(links, models.LevelLink{
			Level: strings.TrimSpace(a.Text()),
			URL:   a.AttrOr("href", ""),
		})
	})
	rec.LevelLinks = links
}
