package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Tracking parameters stripped during canonicalization.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
	"source":       {},
	"mc_cid":       {},
	"mc_eid":       {},
}

// Canonicalize normalizes a URL so that trivially different spellings of the
// same address produce the same string: lowercased scheme and host, default
// ports and trailing slashes removed, tracking parameters dropped, remaining
// query parameters sorted, fragment discarded. Unparseable input is returned
// unchanged.
func Canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)

	if scheme == "http" && strings.HasSuffix(host, ":80") {
		host = strings.TrimSuffix(host, ":80")
	} else if scheme == "https" && strings.HasSuffix(host, ":443") {
		host = strings.TrimSuffix(host, ":443")
	}

	// Keep the decoded path and its original escaped form; URL.String
	// escapes Path itself, so assigning an escaped string there would
	// encode it twice.
	path := u.Path
	rawPath := u.RawPath
	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
		rawPath = strings.TrimRight(rawPath, "/")
	}

	query := u.Query()
	for key := range query {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			delete(query, key)
		}
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawPath:  rawPath,
		RawQuery: query.Encode(), // Encode sorts keys
	}
	return out.String()
}

// GenerateID derives a deterministic item identifier from a URL: the first
// 16 hex characters of the SHA-256 digest of the canonical form.
func GenerateID(raw string) string {
	sum := sha256.Sum256([]byte(Canonicalize(raw)))
	return hex.EncodeToString(sum[:])[:16]
}

// IsValid reports whether raw is an absolute HTTP(S) URL.
func IsValid(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Domain returns the lowercased host of a URL, empty when unparseable.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
