package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkfeed/linkfeed/internal/fetch"
	"github.com/linkfeed/linkfeed/internal/urlutil"
)

const defaultMaxLinks = 100

// Anchors likely to point at articles rather than navigation.
var articleSelectors = []string{
	"article a[href]",
	"main a[href]",
	".post a[href]",
	".entry a[href]",
	".article a[href]",
	".content a[href]",
	"a[href*='/post/']",
	"a[href*='/article/']",
	"a[href*='/blog/']",
	"a[href*='/news/']",
}

var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^#`),
	regexp.MustCompile(`(?i)^javascript:`),
	regexp.MustCompile(`(?i)^mailto:`),
	regexp.MustCompile(`(?i)\.(css|js|png|jpg|jpeg|gif|svg|ico|woff|woff2|ttf|eot)$`),
	regexp.MustCompile(`(?i)/(tag|category|author|page|wp-content|wp-includes)/`),
	regexp.MustCompile(`(?i)/(login|logout|register|signup|signin)/`),
	regexp.MustCompile(`(?i)/(search|feed|rss|atom)/`),
}

type sitemapURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Scraper discovers article links on a website, preferring its sitemap and
// falling back to the front page's anchors.
type Scraper struct {
	client   *fetch.Client
	log      *slog.Logger
	maxLinks int
}

// NewScraper builds a scraper on top of the shared fetch client.
func NewScraper(client *fetch.Client, log *slog.Logger) *Scraper {
	return &Scraper{client: client, log: log, maxLinks: defaultMaxLinks}
}

// Scrape returns up to maxLinks article URLs discovered on the site.
func (s *Scraper) Scrape(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	add := func(link string) {
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	for _, link := range s.sitemapLinks(ctx, base) {
		add(link)
	}
	if len(links) < s.maxLinks {
		for _, link := range s.pageLinks(ctx, siteURL, base.Host) {
			add(link)
		}
	}

	filtered := filterScrapedLinks(links, siteURL)
	if len(filtered) > s.maxLinks {
		filtered = filtered[:s.maxLinks]
	}
	return filtered, nil
}

func (s *Scraper) sitemapLinks(ctx context.Context, base *url.URL) []string {
	for _, name := range []string{"sitemap.xml", "sitemap_index.xml", "sitemap-index.xml"} {
		sitemapURL := base.Scheme + "://" + base.Host + "/" + name
		res, err := s.client.Fetch(ctx, sitemapURL)
		if err != nil {
			s.log.Debug("sitemap not available", slog.String("url", sitemapURL), slog.Any("err", err))
			continue
		}

		var set sitemapURLSet
		if err := xml.Unmarshal(res.Body, &set); err != nil {
			continue
		}
		var links []string
		for _, entry := range set.URLs {
			if loc := strings.TrimSpace(entry.Loc); loc != "" {
				links = append(links, loc)
			}
		}
		if len(links) > 0 {
			s.log.Info("sitemap links discovered",
				slog.String("url", sitemapURL),
				slog.Int("count", len(links)),
			)
			return links
		}
	}
	return nil
}

func (s *Scraper) pageLinks(ctx context.Context, pageURL, baseHost string) []string {
	res, err := s.client.Fetch(ctx, pageURL)
	if err != nil {
		s.log.Warn("scrape page failed", slog.String("url", pageURL), slog.Any("err", err))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	collect := func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()
		if !sameDomain(full, baseHost) {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	}

	for _, selector := range articleSelectors {
		doc.Find(selector).Each(collect)
	}
	if len(links) == 0 {
		doc.Find("a[href]").Each(collect)
	}
	return links
}

func sameDomain(link, baseHost string) bool {
	host := urlutil.Domain(link)
	base := strings.ToLower(baseHost)
	return host == base || strings.HasSuffix(host, "."+base)
}

func filterScrapedLinks(links []string, baseURL string) []string {
	trimmedBase := strings.TrimRight(baseURL, "/")
	var out []string
	for _, link := range links {
		if !urlutil.IsValid(link) {
			continue
		}
		if strings.TrimRight(link, "/") == trimmedBase {
			continue
		}
		excluded := false
		for _, pattern := range excludePatterns {
			if pattern.MatchString(link) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, link)
		}
	}
	return out
}
