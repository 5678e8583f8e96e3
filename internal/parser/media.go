package parser

import (
	"net/url"
	"strings"

	"github.com/linkfeed/linkfeed/internal/feed"
	"github.com/linkfeed/linkfeed/internal/urlutil"
)

var mediaExtensions = map[string]string{
	// audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	// video
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	// documents
	".pdf": "application/pdf",
}

var mediaContentTypes = map[string]struct{}{
	"audio/mpeg":       {},
	"audio/mp4":        {},
	"audio/ogg":        {},
	"audio/wav":        {},
	"audio/flac":       {},
	"audio/aac":        {},
	"video/mp4":        {},
	"video/webm":       {},
	"video/x-matroska": {},
	"video/quicktime":  {},
	"application/pdf":  {},
}

// Media handles URLs pointing directly at audio, video or PDF files. The
// file becomes the item's attachment rather than its content.
type Media struct{}

// NewMedia builds the media file parser.
func NewMedia() *Media { return &Media{} }

func (*Media) Name() string { return "media" }

func (*Media) Priority() int { return 50 }

// CanHandle reports whether the URL ends in a known media extension,
// with or without a trailing query string.
func (*Media) CanHandle(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for ext := range mediaExtensions {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return false
}

// Parse builds an item whose single attachment is the media file itself.
func (*Media) Parse(in Input) (*feed.Item, error) {
	mimeType := detectMIME(in.URL, in.ContentType)

	var tags []string
	switch {
	case strings.HasPrefix(mimeType, "audio/"):
		tags = []string{"audio"}
	case strings.HasPrefix(mimeType, "video/"):
		tags = []string{"video"}
	case mimeType == "application/pdf":
		tags = []string{"pdf"}
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	attachment := feed.Attachment{
		URL:      in.URL,
		MIMEType: mimeType,
	}
	if in.ContentLength > 0 {
		attachment.SizeInBytes = in.ContentLength
	}

	return &feed.Item{
		ID:          urlutil.GenerateID(in.URL),
		URL:         in.URL,
		Title:       mediaFilename(in.URL),
		Tags:        tags,
		Attachments: []feed.Attachment{attachment},
	}, nil
}

func detectMIME(rawURL, contentType string) string {
	if contentType != "" {
		main, _, _ := strings.Cut(contentType, ";")
		main = strings.ToLower(strings.TrimSpace(main))
		if _, ok := mediaContentTypes[main]; ok {
			return main
		}
	}

	lower := strings.ToLower(rawURL)
	for ext, mime := range mediaExtensions {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return mime
		}
	}
	return ""
}

// mediaFilename extracts the last path segment for use as a title.
// url.Parse already percent-decodes the path once.
func mediaFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}
