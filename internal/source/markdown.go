// Package source collects candidate URLs from the places links live:
// markdown notes, Trello board exports and website front pages.
package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/linkfeed/linkfeed/internal/urlutil"
)

var (
	// [text](url), with an optional leading ! marking an image embed.
	markdownLink = regexp.MustCompile(`(!?)\[[^\]]*\]\(([^)]+)\)`)
	bareURL      = regexp.MustCompile(`(?i)https?://[^\s<>"')\]]+`)
)

// ExtractMarkdownURLs pulls link targets and bare URLs out of markdown
// content. Image embeds are skipped; duplicates are dropped keeping the
// first occurrence.
func ExtractMarkdownURLs(content string) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(url string) {
		if !urlutil.IsValid(url) {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	for _, m := range markdownLink.FindAllStringSubmatch(content, -1) {
		if m[1] == "!" {
			continue
		}
		add(strings.TrimSpace(m[2]))
	}
	for _, m := range bareURL.FindAllString(content, -1) {
		add(strings.TrimRight(m, ".,;:!?"))
	}
	return urls
}

// ScanMarkdownDir recursively walks a directory and extracts URLs from all
// *.md files. Unreadable files are skipped.
func ScanMarkdownDir(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var urls []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for _, url := range ExtractMarkdownURLs(string(content)) {
			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
		return nil
	})
	return urls, err
}
