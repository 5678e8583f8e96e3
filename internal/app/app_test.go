package app_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linkfeed/linkfeed/internal/app"
	"github.com/linkfeed/linkfeed/internal/feed"
)

func newApp() *app.App {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(log, time.Second)
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>Page %s</title>
<meta property="article:published_time" content="2024-03-04T05:06:07Z">
</head><body><p>content</p></body></html>`, r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunBuildsFeed(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	res, err := newApp().Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a", srv.URL + "/b"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Added)

	f, err := feed.Read(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Equal(t, feed.Version, f.Version)
	require.Equal(t, feed.DefaultTitle, f.Title)
	require.Len(t, f.Items, 2)
	require.Equal(t, "Page /a", f.Items[0].Title)
	require.Equal(t, srv.URL+"/a", f.Items[0].URL)

	rss, err := os.ReadFile(filepath.Join(dir, "feed.xml"))
	require.NoError(t, err)
	require.Contains(t, string(rss), `<rss version="2.0"`)
	require.Contains(t, string(rss), "Page /a")
}

func TestRunIsIdempotent(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	opts := app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a"},
	}
	a := newApp()

	_, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)

	res, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 0, res.Added)
	require.Equal(t, 1, res.Skipped)

	second, err := os.ReadFile(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRunAppendsNewItems(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	a := newApp()

	_, err := a.Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a"},
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a", srv.URL + "/b"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)

	f, err := feed.Read(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.Len(t, f.Items, 2)
	require.Equal(t, srv.URL+"/a", f.Items[0].URL)
	require.Equal(t, srv.URL+"/b", f.Items[1].URL)
}

func TestRunRebuildDropsExistingItems(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	a := newApp()

	_, err := a.Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a"},
	})
	require.NoError(t, err)

	_, err = a.Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/b"},
		Rebuild:   true,
	})
	require.NoError(t, err)

	f, err := feed.Read(filepath.Join(dir, "feed.json"))
	require.NoError(t, err)
	require.Len(t, f.Items, 1)
	require.Equal(t, srv.URL+"/b", f.Items[0].URL)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	res, err := newApp().Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a"},
		DryRun:    true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)
	require.Len(t, res.Feed.Items, 1)

	_, err = os.Stat(filepath.Join(dir, "feed.json"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "feed.xml"))
	require.True(t, os.IsNotExist(err))
}

func TestRunAppliesFilters(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	res, err := newApp().Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/a"},
		Blacklist: []string{"127.0.0.1"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.Added)
	require.Empty(t, res.Feed.Items)
}

func TestRunSkipsFailedFetches(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	res, err := newApp().Run(context.Background(), app.Options{
		OutputDir: dir,
		Args:      []string{srv.URL + "/missing", srv.URL + "/a"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)
	require.Equal(t, srv.URL+"/a", res.Feed.Items[0].URL)
}

func TestRunWithConfigFile(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "linkfeed.yaml")
	cfg := fmt.Sprintf(`
feed:
  title: Test Links
  home_page_url: https://example.com
  description: A test feed
  language: en
sources:
  - %s/a
`, srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	res, err := newApp().Run(context.Background(), app.Options{
		ConfigPath: cfgPath,
		OutputDir:  dir,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)
	require.Equal(t, "Test Links", res.Feed.Title)
	require.Equal(t, "https://example.com", res.Feed.HomePageURL)
	require.Equal(t, "en", res.Feed.Language)
}

func TestRunMulti(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfgPath := filepath.Join(dir, "linkfeed.yaml")
	cfg := fmt.Sprintf(`
feeds:
  - name: first
    feed:
      title: First
    sources:
      - %s/a
  - name: second
    output_dir: elsewhere
    feed:
      title: Second
    sources:
      - %s/b
`, srv.URL, srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	results, err := newApp().RunMulti(context.Background(), app.Options{
		ConfigPath: cfgPath,
		OutputDir:  out,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first, err := feed.Read(filepath.Join(out, "first", "feed.json"))
	require.NoError(t, err)
	require.Equal(t, "First", first.Title)
	require.Len(t, first.Items, 1)

	second, err := feed.Read(filepath.Join(out, "elsewhere", "feed.json"))
	require.NoError(t, err)
	require.Equal(t, "Second", second.Title)
	require.Len(t, second.Items, 1)
}

func TestRunCombinesFlagAndConfigSources(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	cfgNotes := filepath.Join(dir, "cfg-notes")
	flagNotes := filepath.Join(dir, "flag-notes")
	require.NoError(t, os.MkdirAll(cfgNotes, 0o755))
	require.NoError(t, os.MkdirAll(flagNotes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgNotes, "a.md"),
		[]byte("[a]("+srv.URL+"/a)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(flagNotes, "b.md"),
		[]byte("[b]("+srv.URL+"/b)"), 0o644))

	cfgPath := filepath.Join(dir, "linkfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("markdown_dir: "+cfgNotes+"\n"), 0o644))

	res, err := newApp().Run(context.Background(), app.Options{
		ConfigPath:  cfgPath,
		OutputDir:   filepath.Join(dir, "out"),
		MarkdownDir: flagNotes,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Added)

	urls := []string{res.Feed.Items[0].URL, res.Feed.Items[1].URL}
	require.Contains(t, urls, srv.URL+"/a")
	require.Contains(t, urls, srv.URL+"/b")
}

func TestRunDeduplicatesWithinRun(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	res, err := newApp().Run(context.Background(), app.Options{
		OutputDir: dir,
		Args: []string{
			srv.URL + "/a",
			srv.URL + "/a/",
			srv.URL + "/a?utm_source=news",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Added)
	require.Equal(t, 2, res.Skipped)
}
