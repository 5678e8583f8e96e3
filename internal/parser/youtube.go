package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkfeed/linkfeed/internal/feed"
	"github.com/linkfeed/linkfeed/internal/urlutil"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`(?i)^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)^https?://(www\.)?youtube\.com/shorts/[\w-]+`),
}

var (
	youtubeWatchID  = regexp.MustCompile(`[?&]v=([\w-]+)`)
	youtubeShortID  = regexp.MustCompile(`youtu\.be/([\w-]+)`)
	youtubeShortsID = regexp.MustCompile(`shorts/([\w-]+)`)
)

// YouTube handles video watch pages, short links and shorts. Video pages
// carry their metadata in Open Graph tags, so no API access is needed.
type YouTube struct{}

// NewYouTube builds the YouTube parser.
func NewYouTube() *YouTube { return &YouTube{} }

func (*YouTube) Name() string { return "youtube" }

func (*YouTube) Priority() int { return 100 }

// CanHandle reports whether the URL is a YouTube video link.
func (*YouTube) CanHandle(rawURL string) bool {
	for _, pattern := range youtubePatterns {
		if pattern.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// Parse extracts video metadata. Failures degrade to a tagged minimal item.
func (*YouTube) Parse(in Input) (*feed.Item, error) {
	item := &feed.Item{
		ID:   urlutil.GenerateID(in.URL),
		URL:  in.URL,
		Tags: []string{"video", "youtube"},
	}

	doc, err := parseHTML(in.Body, in.ContentType)
	if err != nil {
		return item, nil
	}

	item.Title = youtubeTitle(doc)
	item.Summary = extractMetaDescription(doc)

	if channel := youtubeChannel(doc); channel != "" {
		item.Authors = []feed.Author{{Name: channel}}
	}

	if thumb := youtubeThumbnail(doc, in.URL); thumb != "" {
		item.Attachments = []feed.Attachment{{URL: thumb, MIMEType: "image/jpeg"}}
	}

	return item, nil
}

func youtubeTitle(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:title"); v != "" {
		return v
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSuffix(title, " - YouTube")
}

func youtubeChannel(doc *goquery.Document) string {
	v, _ := doc.Find(`link[itemprop="name"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func youtubeThumbnail(doc *goquery.Document, rawURL string) string {
	if v := metaProperty(doc, "og:image"); v != "" {
		return v
	}
	if id := youtubeVideoID(rawURL); id != "" {
		return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
	}
	return ""
}

func youtubeVideoID(rawURL string) string {
	for _, pattern := range []*regexp.Regexp{youtubeWatchID, youtubeShortID, youtubeShortsID} {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
