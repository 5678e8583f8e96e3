package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const fallbackLink = "https://example.com"

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr,omitempty"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	SelfLink    *atomLink `xml:"atom:link,omitempty"`
	Items       []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	GUID        rssGUID        `xml:"guid"`
	Description string         `xml:"description,omitempty"`
	PubDate     string         `xml:"pubDate,omitempty"`
	Authors     []string       `xml:"author,omitempty"`
	Enclosures  []rssEnclosure `xml:"enclosure"`
	Categories  []string       `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int64  `xml:"length,attr"`
}

// RenderRSS derives an RSS 2.0 document from the feed. Items are sorted
// newest-first by publication date; items without a date sort last.
func (f *Feed) RenderRSS() ([]byte, error) {
	link := f.HomePageURL
	if link == "" {
		link = fallbackLink
	}
	description := f.Description
	if description == "" {
		description = f.Title // RSS requires a description
	}

	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       SanitizeXML(f.Title),
			Link:        link,
			Description: SanitizeXML(description),
			Language:    f.Language,
		},
	}
	if f.FeedURL != "" {
		doc.AtomNS = "http://www.w3.org/2005/Atom"
		doc.Channel.SelfLink = &atomLink{
			Href: f.FeedURL,
			Rel:  "self",
			Type: "application/rss+xml",
		}
	}

	items := make([]Item, len(f.Items))
	copy(items, f.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return sortDate(items[i]).After(sortDate(items[j]))
	})

	for _, item := range items {
		doc.Channel.Items = append(doc.Channel.Items, toRSSItem(item))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteRSS renders the feed as RSS 2.0 and writes it to path.
func (f *Feed) WriteRSS(path string) error {
	body, err := f.RenderRSS()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write rss %s: %w", path, err)
	}
	return nil
}

func toRSSItem(item Item) rssItem {
	title := SanitizeXML(item.Title)
	if title == "" {
		title = item.URL
	}

	description := item.Summary
	if description == "" {
		description = item.ContentHTML
	}

	out := rssItem{
		Title:       title,
		Link:        item.URL,
		GUID:        rssGUID{Value: item.ID, IsPermaLink: "false"},
		Description: SanitizeXML(description),
	}

	if item.DatePublished != nil {
		out.PubDate = item.DatePublished.UTC().Format(time.RFC1123Z)
	}
	for _, author := range item.Authors {
		if author.Name != "" {
			out.Authors = append(out.Authors, SanitizeXML(author.Name))
		}
	}
	for _, att := range item.Attachments {
		out.Enclosures = append(out.Enclosures, rssEnclosure{
			URL:    att.URL,
			Type:   att.MIMEType,
			Length: att.SizeInBytes,
		})
	}
	for _, tag := range item.Tags {
		out.Categories = append(out.Categories, SanitizeXML(tag))
	}
	return out
}

func sortDate(item Item) time.Time {
	if item.DatePublished == nil {
		return time.Time{}
	}
	return *item.DatePublished
}

// SanitizeXML strips control characters that are invalid in XML documents
// (everything below 0x20 except tab, newline and carriage return, plus DEL).
func SanitizeXML(s string) string {
	if !strings.ContainsFunc(s, isInvalidXMLRune) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isInvalidXMLRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isInvalidXMLRune(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 0x20 || r == 0x7f
}
