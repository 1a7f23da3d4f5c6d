
package parser

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsinlevels-crawler/internal/models"
)

const listingHTML = `<html><body>
<div class="news-block highlighted">
  <div class="img-wrap"><a href="https://www.newsinlevels.com/products/baltic-level-1/"><img src="https://cdn.example.com/baltic-300x150.jpg" alt="Baltic states" srcset="https://cdn.example.com/baltic-300x150.jpg 300w, https://cdn.example.com/baltic.jpg 600w"></a></div>
  <div class="title"><a href="https://www.newsinlevels.com/products/baltic-level-1/">
    Baltic states don’t get Russia’s electricity
  </a></div>
  <div class="news-excerpt"><p>11-02-2025 15:00</p> Latvia, Estonia, and Lithuania now get electricity from Europe.... </div>
  <div class="fancy-buttons">
    <a href="https://www.newsinlevels.com/products/baltic-level-1">Level 1</a>
    <a href="https://www.newsinlevels.com/products/baltic-level-2"> Level 2 </a>
    <a href="https://www.newsinlevels.com/products/baltic-level-3">Level 3</a>
  </div>
</div>
<div class="news-block newsi-google-in-feed">
  <div class="title"><a href="https://ads.example.com/click">Sponsored</a></div>
</div>
<div class="news-block">
  <div class="img-wrap"><img></div>
  <div class="title"><a href="https://www.newsinlevels.com/products/oil-level-1/">Nigeria wants to produce oil again</a></div>
  <div class="news-excerpt">Nigeria wants to produce oil again.</div>
</div>
<div class="news-block"></div>
</body></html>`

func extractListing(t *testing.T, src string) []models.ListingRecord {
	t.Helper()
	recs, ok := NewListingExtractor().Extract(mustParse(t, src))
	require.True(t, ok)
	return recs
}

func TestListingExtract(t *testing.T) {
	recs := extractListing(t, listingHTML)
	require.Len(t, recs, 3)

	first := recs[0]
	require.NotNil(t, first.Image)
	assert.Equal(t, "https://cdn.example.com/baltic-300x150.jpg", first.Image.Src)
	assert.Equal(t, "Baltic states", first.Image.Alt)
	assert.Contains(t, first.Image.Srcset, "600w")
	assert.Equal(t, "Baltic states don’t get Russia’s electricity", first.Title)
	assert.Equal(t, "https://www.newsinlevels.com/products/baltic-level-1/", first.TitleLink)
	assert.Equal(t, "11-02-2025 15:00", first.Date)
	assert.Equal(t, "Latvia, Estonia, and Lithuania now get electricity from Europe....", first.Excerpt)
	assert.Equal(t, []models.LevelLink{
		{Level: "Level 1", URL: "https://www.newsinlevels.com/products/baltic-level-1"},
		{Level: "Level 2", URL: "https://www.newsinlevels.com/products/baltic-level-2"},
		{Level: "Level 3", URL: "https://www.newsinlevels.com/products/baltic-level-3"},
	}, first.LevelLinks)
	assert.Nil(t, first.Details)
}

func TestListingOptionalFields(t *testing.T) {
	recs := extractListing(t, listingHTML)
	require.Len(t, recs, 3)

	second := recs[1]
	require.NotNil(t, second.Image, "image container with a bare img still yields an image")
	assert.Equal(t, models.Image{}, *second.Image)
	assert.Empty(t, second.Date, "no date paragraph")
	assert.Equal(t, "Nigeria wants to produce oil again.", second.Excerpt)
	assert.Nil(t, second.LevelLinks)

	assert.Equal(t, models.ListingRecord{}, recs[2], "empty blocks are kept as empty records")
}

func TestListingSkipsAdBlocks(t *testing.T) {
	recs := extractListing(t, listingHTML)
	for _, r := range recs {
		assert.NotEqual(t, "Sponsored", r.Title)
		assert.NotContains(t, r.TitleLink, "ads.example.com")
	}

	onlyAds := `<html><body><div class="news-block highlighted newsi-google-in-feed"><div class="title"><a href="/ad">Ad</a></div></div></body></html>`
	assert.Empty(t, extractListing(t, onlyAds))
}

func TestListingExtractIsIdempotent(t *testing.T) {
	assert.Equal(t, extractListing(t, listingHTML), extractListing(t, listingHTML))
}

func TestListingExcerptUsesLastChildNode(t *testing.T) {
	src := `<html><body><div class="news-block"><div class="news-excerpt"><p>01-01-2025</p> first part <em>middle</em> last part </div></div></body></html>`
	recs := extractListing(t, src)
	require.Len(t, recs, 1)
	assert.Equal(t, "01-01-2025", recs[0].Date)
	assert.Equal(t, "last part", recs[0].Excerpt)
}

func TestListingAbsentRoot(t *testing.T) {
	recs, ok := NewListingExtractor().Extract(nil)
	assert.False(t, ok)
	assert.Nil(t, recs)

	recs, ok = NewListingExtractor().Extract(mustParse(t, ""))
	assert.False(t, ok)
	assert.Nil(t, recs)

	recs, ok = NewListingExtractor().Extract(mustParse(t, "<html><body><p>nothing here</p></body></html>"))
	assert.True(t, ok)
	assert.Empty(t, recs)
}

func TestListingCustomFields(t *testing.T) {
	e := &ListingExtractor{Fields: []ListingField{{
		Name: "title_only",
		Extract: func(block *goquery.Selection, rec *models.ListingRecord) {
			rec.Title = "x"
		},
	}}}
	recs, ok := e.Extract(mustParse(t, listingHTML))
	require.True(t, ok)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, models.ListingRecord{Title: "x"}, r)
	}
}
