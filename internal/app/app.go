// Package app wires sources, filters, fetching and parsing into the
// feed-building pipeline: gather candidate URLs, keep the ones the filters
// admit, skip what the feed already has, fetch and parse the rest in
// parallel, then merge and write feed.json and feed.xml.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkfeed/linkfeed/internal/config"
	"github.com/linkfeed/linkfeed/internal/dedupe"
	"github.com/linkfeed/linkfeed/internal/feed"
	"github.com/linkfeed/linkfeed/internal/fetch"
	"github.com/linkfeed/linkfeed/internal/filter"
	"github.com/linkfeed/linkfeed/internal/parser"
	"github.com/linkfeed/linkfeed/internal/source"
	"github.com/linkfeed/linkfeed/internal/urlutil"
)

// DefaultConcurrency bounds parallel fetches when the caller does not set
// a limit.
const DefaultConcurrency = 10

// Options configures a single run. Source flags (markdown dir, Trello
// board, website) add to the config file's sources of the same kind.
type Options struct {
	ConfigPath  string
	OutputDir   string
	JSONPath    string // overrides OutputDir/feed.json
	RSSPath     string // overrides OutputDir/feed.xml
	Args        []string
	MarkdownDir string
	TrelloFile  string
	TrelloLists []string
	Website     string
	Blacklist   []string
	Whitelist   []string
	Rebuild     bool
	DryRun      bool
	Concurrency int
	Timeout     time.Duration
}

// Result summarizes what a run produced for one feed.
type Result struct {
	Feed     *feed.Feed
	Added    int
	Skipped  int
	JSONPath string
	RSSPath  string
}

// App holds the long-lived pieces of the pipeline.
type App struct {
	log     *slog.Logger
	client  *fetch.Client
	parsers *parser.Registry
	scraper *source.Scraper
}

// New builds the pipeline with the default parser registry.
func New(log *slog.Logger, timeout time.Duration) *App {
	client := fetch.NewClient(timeout)
	return &App{
		log:     log,
		client:  client,
		parsers: parser.Default(),
		scraper: source.NewScraper(client, log),
	}
}

// Run executes the pipeline for a single-feed configuration.
func (a *App) Run(ctx context.Context, opts Options) (*Result, error) {
	log := a.log.With(slog.String("run_id", uuid.NewString()))

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return a.runFeed(ctx, log, cfg, opts)
}

// RunMulti executes the pipeline for every feed in a multi-feed
// configuration. Each feed writes under OutputDir/<name> unless the feed
// overrides its output directory. A failing feed does not stop the others.
func (a *App) RunMulti(ctx context.Context, opts Options) ([]*Result, error) {
	log := a.log.With(slog.String("run_id", uuid.NewString()))

	multi, err := config.LoadMulti(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	var (
		results []*Result
		errs    []error
	)
	for _, named := range multi.Feeds {
		dir := named.OutputDir
		if dir == "" {
			dir = named.Name
		}

		feedOpts := opts
		feedOpts.JSONPath = ""
		feedOpts.RSSPath = ""
		feedOpts.OutputDir = filepath.Join(opts.OutputDir, dir)

		cfg := named.Config
		cfg.Blacklist = append(append([]string{}, multi.GlobalBlacklist...), cfg.Blacklist...)
		cfg.Whitelist = append(append([]string{}, multi.GlobalWhitelist...), cfg.Whitelist...)

		feedLog := log.With(slog.String("feed", named.Name))
		res, err := a.runFeed(ctx, feedLog, &cfg, feedOpts)
		if err != nil {
			feedLog.Error("feed build failed", slog.Any("err", err))
			errs = append(errs, fmt.Errorf("feed %s: %w", named.Name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (a *App) runFeed(ctx context.Context, log *slog.Logger, cfg *config.Config, opts Options) (*Result, error) {
	jsonPath := opts.JSONPath
	if jsonPath == "" {
		jsonPath = filepath.Join(opts.OutputDir, "feed.json")
	}
	rssPath := opts.RSSPath
	if rssPath == "" {
		rssPath = filepath.Join(opts.OutputDir, "feed.xml")
	}

	candidates, err := a.collect(ctx, log, cfg, opts)
	if err != nil {
		return nil, err
	}

	whitelist := filter.Compile(append(append([]string{}, cfg.Whitelist...), opts.Whitelist...))
	blacklist := filter.Compile(append(append([]string{}, cfg.Blacklist...), opts.Blacklist...))
	candidates = filter.Whitelisted(candidates, whitelist)
	candidates = filter.Blacklisted(candidates, blacklist)

	var existing *feed.Feed
	if !opts.Rebuild {
		existing, err = feed.Read(jsonPath)
		if err != nil {
			return nil, err
		}
	}

	index := dedupe.NewIndex()
	if existing != nil {
		index.AddIDs(existing.ItemIDs())
	}

	fresh := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if index.IsDuplicate(u) {
			continue
		}
		index.MarkSeen(u)
		fresh = append(fresh, u)
	}

	log.Info("candidates gathered",
		slog.Int("total", len(candidates)),
		slog.Int("new", len(fresh)),
		slog.Int("known", len(candidates)-len(fresh)),
	)

	items := a.fetchAll(ctx, log, fresh, opts.Concurrency, index)

	merged := feed.Merge(existing, items, feed.Metadata{
		Title:       cfg.Feed.Title,
		HomePageURL: cfg.Feed.HomePageURL,
		FeedURL:     cfg.Feed.FeedURL,
		Description: cfg.Feed.Description,
		Language:    cfg.Feed.Language,
	})

	existingCount := 0
	if existing != nil {
		existingCount = len(existing.Items)
	}
	res := &Result{
		Feed:     merged,
		Added:    len(merged.Items) - existingCount,
		Skipped:  len(candidates) - len(fresh),
		JSONPath: jsonPath,
		RSSPath:  rssPath,
	}

	if opts.DryRun {
		log.Info("dry run, not writing",
			slog.Int("would_add", res.Added),
			slog.String("json", jsonPath),
		)
		return res, nil
	}

	if err := merged.WriteJSON(jsonPath); err != nil {
		return nil, err
	}
	if err := merged.WriteRSS(rssPath); err != nil {
		return nil, err
	}

	log.Info("feed written",
		slog.Int("added", res.Added),
		slog.Int("items", len(merged.Items)),
		slog.String("json", jsonPath),
		slog.String("rss", rssPath),
	)
	return res, nil
}

// collect gathers candidate URLs in a stable order: config sources, CLI
// arguments, markdown notes, Trello exports, then scraped websites. A CLI
// flag adds to the config's source of the same kind rather than replacing
// it.
func (a *App) collect(ctx context.Context, log *slog.Logger, cfg *config.Config, opts Options) ([]string, error) {
	var urls []string
	urls = append(urls, cfg.Sources...)
	urls = append(urls, opts.Args...)

	for _, dir := range distinct(opts.MarkdownDir, cfg.MarkdownDir) {
		found, err := source.ScanMarkdownDir(dir)
		if err != nil {
			return nil, fmt.Errorf("scan markdown dir %s: %w", dir, err)
		}
		log.Debug("markdown urls", slog.String("dir", dir), slog.Int("count", len(found)))
		urls = append(urls, found...)
	}

	type trelloSource struct {
		file  string
		lists []string
	}
	var boards []trelloSource
	if opts.TrelloFile != "" {
		boards = append(boards, trelloSource{file: opts.TrelloFile, lists: opts.TrelloLists})
	}
	if cfg.Trello != nil && cfg.Trello.File != "" && cfg.Trello.File != opts.TrelloFile {
		boards = append(boards, trelloSource{file: cfg.Trello.File, lists: cfg.Trello.Lists})
	}
	for _, board := range boards {
		found, err := source.ParseTrelloBoard(board.file, board.lists)
		if err != nil {
			return nil, err
		}
		log.Debug("trello urls", slog.String("file", board.file), slog.Int("count", len(found)))
		urls = append(urls, found...)
	}

	for _, site := range distinct(opts.Website, cfg.Website) {
		found, err := a.scraper.Scrape(ctx, site)
		if err != nil {
			log.Warn("website scrape failed", slog.String("url", site), slog.Any("err", err))
			continue
		}
		urls = append(urls, found...)
	}

	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		if urlutil.IsValid(u) {
			valid = append(valid, u)
		}
	}
	return valid, nil
}

// fetchAll processes URLs through a bounded worker pool. Results keep the
// input order regardless of which worker finished first.
func (a *App) fetchAll(ctx context.Context, log *slog.Logger, urls []string, concurrency int, index *dedupe.Index) []feed.Item {
	if len(urls) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(urls) {
		concurrency = len(urls)
	}

	type job struct {
		idx int
		url string
	}
	jobs := make(chan job)
	results := make([]*feed.Item, len(urls))

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = a.process(ctx, log, j.url, index)
			}
		}()
	}
	for i, u := range urls {
		jobs <- job{idx: i, url: u}
	}
	close(jobs)
	wg.Wait()

	items := make([]feed.Item, 0, len(urls))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// process fetches one URL and turns it into an item. Item identity comes
// from the final URL after redirects; a redirect landing on an already
// known item is skipped.
func (a *App) process(ctx context.Context, log *slog.Logger, rawURL string, index *dedupe.Index) *feed.Item {
	res, err := a.client.Fetch(ctx, rawURL)
	if err != nil {
		log.Warn("fetch failed", slog.String("url", rawURL), slog.Any("err", err))
		return nil
	}

	final := res.URL
	if urlutil.GenerateID(final) != urlutil.GenerateID(rawURL) {
		if index.IsDuplicate(final) {
			log.Debug("redirect target already known",
				slog.String("url", rawURL),
				slog.String("final", final),
			)
			return nil
		}
		index.MarkSeen(final)
	}

	p := a.parsers.Lookup(final)
	item, err := p.Parse(parser.Input{
		URL:           final,
		Body:          res.Body,
		ContentType:   res.ContentType,
		ContentLength: res.ContentLength,
	})
	if err != nil || item == nil {
		log.Warn("parse failed",
			slog.String("url", final),
			slog.String("parser", p.Name()),
			slog.Any("err", err),
		)
		return nil
	}

	log.Debug("item parsed", slog.String("url", final), slog.String("parser", p.Name()))
	return item
}

// distinct drops empty values and duplicates, keeping first-seen order.
func distinct(values ...string) []string {
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == v {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}
