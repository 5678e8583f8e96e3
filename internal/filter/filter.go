package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/linkfeed/linkfeed/internal/urlutil"
)

// List is a compiled set of URL patterns. A pattern matches a URL when:
//   - it has the form *.domain.com and the URL's host is that domain or a
//     subdomain of it,
//   - it glob-matches the URL's host (port stripped), or
//   - it glob-matches the whole URL.
//
// Matching is case-insensitive.
type List struct {
	patterns []pattern
}

type pattern struct {
	domainSuffix string // set for *.domain.com patterns
	g            glob.Glob
}

// ValidatePatterns reports the first pattern that cannot be compiled, so
// configuration errors surface at load time instead of being ignored.
func ValidatePatterns(raw []string) error {
	for _, p := range raw {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || strings.HasPrefix(p, "*.") {
			continue
		}
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("pattern %q: %w", p, err)
		}
	}
	return nil
}

// Compile builds a pattern list. Patterns that fail to compile are ignored;
// ValidatePatterns catches them at config load.
func Compile(raw []string) *List {
	l := &List{}
	for _, p := range raw {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if suffix, ok := strings.CutPrefix(p, "*."); ok {
			l.patterns = append(l.patterns, pattern{domainSuffix: suffix})
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		l.patterns = append(l.patterns, pattern{g: g})
	}
	return l
}

// Empty reports whether the list has no usable patterns.
func (l *List) Empty() bool {
	return len(l.patterns) == 0
}

// Matches reports whether the URL matches any pattern in the list.
func (l *List) Matches(url string) bool {
	domain := urlutil.Domain(url)
	if host, _, found := strings.Cut(domain, ":"); found && host != "" {
		domain = host
	}
	lower := strings.ToLower(url)

	for _, p := range l.patterns {
		if p.domainSuffix != "" {
			if domain == p.domainSuffix || strings.HasSuffix(domain, "."+p.domainSuffix) {
				return true
			}
			continue
		}
		if p.g.Match(domain) || p.g.Match(lower) {
			return true
		}
	}
	return false
}

// Whitelisted keeps only URLs matching the list. An empty whitelist admits
// every URL.
func Whitelisted(urls []string, l *List) []string {
	if l.Empty() {
		return urls
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if l.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}

// Blacklisted removes URLs matching the list. An empty blacklist blocks
// nothing.
func Blacklisted(urls []string, l *List) []string {
	if l.Empty() {
		return urls
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !l.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}
