
package models

// Image is the thumbnail attached to a listing block.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Srcset string `json:"srcset"`
}

type LevelLink struct {
	Level string `json:"level"`
	URL   string `json:"url"`
}

// ListingRecord is one article summary from the listing page. TitleLink is
// the natural key shared by both caches.
type ListingRecord struct {
	Image      *Image        `json:"image,omitempty"`
	Title      string        `json:"title,omitempty"`
	TitleLink  string        `json:"title_link,omitempty"`
	Date       string        `json:"date,omitempty"`
	Excerpt    string        `json:"excerpt,omitempty"`
	LevelLinks []LevelLink   `json:"level_links,omitempty"`
	Details    *DetailRecord `json:"details,omitempty"`
}

// DetailRecord is the extracted content of a single article page.
type DetailRecord struct {
	Title          string            `json:"title,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Date           string            `json:"date,omitempty"`
	Body           string            `json:"body"`
	DifficultWords map[string]string `json:"difficult_words"`
	CachedAt       *Timestamp        `json:"cached_at,omitempty"`
}

// ListSnapshot is the persisted shape of the article list cache.
type ListSnapshot struct {
	Articles    []ListingRecord `json:"articles"`
	LastUpdated *Timestamp      `json:"last_updated"`
}
