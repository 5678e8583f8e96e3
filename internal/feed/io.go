package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Read loads a JSON Feed from disk. A missing file is not an error and
// yields a nil feed; a malformed file is reported so the caller can decide
// to start over.
func Read(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}

	var f Feed
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}
	if f.Version == "" {
		f.Version = Version
	}
	if f.Title == "" {
		f.Title = DefaultTitle
	}
	return &f, nil
}

// WriteJSON serializes the feed as an indented JSON Feed document with a
// trailing newline. The parent directory is created when absent.
func (f *Feed) WriteJSON(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write feed %s: %w", path, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		out.Close()
		return fmt.Errorf("encode feed: %w", err)
	}
	return out.Close()
}
