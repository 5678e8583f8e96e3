package feed

import "time"

// Version is the JSON Feed version this tool emits.
const Version = "https://jsonfeed.org/version/1.1"

// DefaultTitle is used when no feed title is configured.
const DefaultTitle = "Untitled Feed"

// Author identifies a feed or item author.
type Author struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Attachment is a media resource associated with an item.
type Attachment struct {
	URL               string `json:"url"`
	MIMEType          string `json:"mime_type"`
	SizeInBytes       int64  `json:"size_in_bytes,omitempty"`
	DurationInSeconds int    `json:"duration_in_seconds,omitempty"`
}

// Item is a single feed entry. Items are append-only: once written to a
// feed they are never edited or deleted by a non-rebuild run.
type Item struct {
	ID            string       `json:"id"`
	URL           string       `json:"url"`
	Title         string       `json:"title,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	ContentHTML   string       `json:"content_html,omitempty"`
	DatePublished *time.Time   `json:"date_published,omitempty"`
	DateModified  *time.Time   `json:"date_modified,omitempty"`
	Authors       []Author     `json:"authors,omitempty"`
	Language      string       `json:"language,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

// Feed is a JSON Feed v1.1 document. Item IDs are unique within a feed.
type Feed struct {
	Version     string   `json:"version"`
	Title       string   `json:"title"`
	HomePageURL string   `json:"home_page_url,omitempty"`
	FeedURL     string   `json:"feed_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Authors     []Author `json:"authors,omitempty"`
	Language    string   `json:"language,omitempty"`
	Items       []Item   `json:"items"`
}

// Metadata is the static feed header carried by configuration.
type Metadata struct {
	Title       string
	HomePageURL string
	FeedURL     string
	Description string
	Language    string
}

// Merge appends the new items that are not already present in the existing
// feed, keyed by item ID. Existing items keep their position and content;
// new items are appended in ingestion order. The feed header always comes
// from the current metadata.
func Merge(existing *Feed, newItems []Item, meta Metadata) *Feed {
	title := meta.Title
	if title == "" {
		title = DefaultTitle
	}

	merged := &Feed{
		Version:     Version,
		Title:       title,
		HomePageURL: meta.HomePageURL,
		FeedURL:     meta.FeedURL,
		Description: meta.Description,
		Language:    meta.Language,
	}

	if existing == nil {
		merged.Items = append(merged.Items, newItems...)
		return merged
	}

	seen := make(map[string]struct{}, len(existing.Items))
	for _, item := range existing.Items {
		seen[item.ID] = struct{}{}
	}

	merged.Items = append(merged.Items, existing.Items...)
	for _, item := range newItems {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		merged.Items = append(merged.Items, item)
	}
	return merged
}

// ItemIDs returns the identifiers of all items in the feed.
func (f *Feed) ItemIDs() []string {
	ids := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		ids = append(ids, item.ID)
	}
	return ids
}
