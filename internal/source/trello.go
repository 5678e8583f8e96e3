package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/linkfeed/linkfeed/internal/urlutil"
)

// Trello's own URLs are noise in a board export.
var trelloDomains = map[string]struct{}{
	"trello.com":     {},
	"www.trello.com": {},
}

type trelloBoard struct {
	Cards []trelloCard `json:"cards"`
}

type trelloCard struct {
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Closed bool   `json:"closed"`
	IDList string `json:"idList"`
}

// ExtractTextURLs pulls bare URLs out of free-form text, stripping trailing
// punctuation and skipping Trello's own links.
func ExtractTextURLs(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, m := range bareURL.FindAllString(text, -1) {
		url := strings.TrimRight(m, ".,;:!?|")
		if !urlutil.IsValid(url) {
			continue
		}
		if _, trello := trelloDomains[urlutil.Domain(url)]; trello {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}

// ParseTrelloBoard reads a Trello board JSON export and extracts URLs from
// card names and descriptions. Closed cards are skipped; when listIDs is
// non-empty only cards on those lists are considered. First-seen order is
// preserved.
func ParseTrelloBoard(path string, listIDs []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trello board %s: %w", path, err)
	}

	var board trelloBoard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("parse trello board %s: %w", path, err)
	}

	wanted := make(map[string]struct{}, len(listIDs))
	for _, id := range listIDs {
		wanted[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, card := range board.Cards {
		if card.Closed {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[card.IDList]; !ok {
				continue
			}
		}
		for _, url := range append(ExtractTextURLs(card.Name), ExtractTextURLs(card.Desc)...) {
			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls, nil
}
