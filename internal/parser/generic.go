package parser

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"golang.org/x/net/html/charset"

	"github.com/linkfeed/linkfeed/internal/feed"
	"github.com/linkfeed/linkfeed/internal/urlutil"
)

const summaryMaxRunes = 500

// Generic is the fallback parser for arbitrary web pages. It mines common
// metadata: Open Graph and Twitter cards, meta description, JSON-LD dates,
// the html lang attribute and leading paragraphs.
type Generic struct{}

// NewGeneric builds the generic HTML parser.
func NewGeneric() *Generic { return &Generic{} }

func (*Generic) Name() string { return "generic" }

func (*Generic) Priority() int { return 0 }

// CanHandle always reports true; Generic is the registry fallback.
func (*Generic) CanHandle(string) bool { return true }

// Parse extracts page metadata. Extraction failures degrade to a minimal
// item carrying only the identifier and URL, never an error.
func (*Generic) Parse(in Input) (*feed.Item, error) {
	item := &feed.Item{
		ID:  urlutil.GenerateID(in.URL),
		URL: in.URL,
	}

	doc, err := parseHTML(in.Body, in.ContentType)
	if err != nil {
		return item, nil
	}

	item.Title = extractTitle(doc)
	item.Summary = extractSummary(doc)
	item.Language = extractLanguage(doc)

	if author := extractAuthor(doc); author != "" {
		item.Authors = []feed.Author{{Name: author}}
	}

	published := extractDate(doc)
	if published.IsZero() {
		published = time.Now().UTC()
	}
	item.DatePublished = &published

	return item, nil
}

// parseHTML decodes the body according to the declared charset before
// building the document; non-UTF-8 pages are common enough to matter.
func parseHTML(body []byte, contentType string) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}
	return goquery.NewDocumentFromReader(reader)
}

func extractTitle(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:title"); v != "" {
		return v
	}
	if v := metaName(doc, "twitter:title"); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractSummary(doc *goquery.Document) string {
	if v := extractMetaDescription(doc); v != "" {
		return v
	}
	return bestParagraph(doc)
}

func extractMetaDescription(doc *goquery.Document) string {
	if v := metaProperty(doc, "og:description"); v != "" {
		return truncateRunes(v, summaryMaxRunes)
	}
	if v := metaName(doc, "description"); v != "" {
		return truncateRunes(v, summaryMaxRunes)
	}
	if v := metaName(doc, "twitter:description"); v != "" {
		return truncateRunes(v, summaryMaxRunes)
	}
	return ""
}

// bestParagraph looks at the first four paragraphs and returns the longest
// one with substantial content.
func bestParagraph(doc *goquery.Document) string {
	var best string
	doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 4 {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if len(text) > 100 && len(text) > len(best) {
			best = text
		}
		return true
	})
	return truncateRunes(best, summaryMaxRunes)
}

func extractAuthor(doc *goquery.Document) string {
	author := metaName(doc, "author")
	if author == "" {
		author = metaProperty(doc, "article:author")
	}
	for _, prefix := range []string{"By ", "by ", "BY "} {
		if rest, ok := strings.CutPrefix(author, prefix); ok {
			return rest
		}
	}
	return author
}

func extractLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		return lang
	}
	return metaProperty(doc, "og:locale")
}

// extractDate walks the usual suspects in order: Open Graph publication
// time, JSON-LD, meta date headers, then <time datetime>. Returns the zero
// time when nothing parses.
func extractDate(doc *goquery.Document) time.Time {
	raw := metaProperty(doc, "article:published_time")
	if raw == "" {
		raw = jsonLDDate(doc)
	}
	if raw == "" {
		raw = metaName(doc, "date")
	}
	if raw == "" {
		raw = metaName(doc, "DC.date")
	}
	if raw == "" {
		raw, _ = doc.Find("time[datetime]").First().Attr("datetime")
	}
	if raw == "" {
		return time.Time{}
	}

	parsed, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func jsonLDDate(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		switch v := data.(type) {
		case map[string]any:
			found = ldDateField(v)
		case []any:
			for _, entry := range v {
				if obj, ok := entry.(map[string]any); ok {
					if found = ldDateField(obj); found != "" {
						break
					}
				}
			}
		}
		return found == ""
	})
	return found
}

func ldDateField(obj map[string]any) string {
	for _, key := range []string{"datePublished", "dateCreated"} {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func metaProperty(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func metaName(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
