package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/linkfeed/linkfeed/internal/app"
	"github.com/linkfeed/linkfeed/internal/config"
	"github.com/linkfeed/linkfeed/internal/fetch"
	"github.com/linkfeed/linkfeed/internal/logger"
	"github.com/linkfeed/linkfeed/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "--help", "-h", "help":
		printHelp()
		return
	case "run":
		err = cmdRun(args)
	case "serve":
		err = cmdServe(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`linkfeed turns collections of URLs into JSON Feed and RSS documents.

Usage:
  linkfeed run [flags] [url ...]     build or update feeds
  linkfeed serve [flags]             serve generated feeds over HTTP
  linkfeed help                      show this help

Run flags:
  -config path       YAML configuration file (default linkfeed.yaml)
  -output-dir path   directory for feed.json and feed.xml (default .)
  -json-out path     explicit feed.json path, overrides -output-dir
  -rss-out path      explicit feed.xml path, overrides -output-dir
  -markdown-dir dir  scan *.md files in dir for URLs
  -trello path       Trello board JSON export to read
  -trello-list id    Trello list to include, repeatable
  -website url       scrape article links from a website
  -blacklist pat     exclude URLs matching pattern, repeatable
  -whitelist pat     only keep URLs matching pattern, repeatable
  -multi             treat the config file as a multi-feed config
  -rebuild           discard the existing feed and start over
  -dry-run           report what would change without writing
  -concurrency n     parallel fetches (default 10)
  -timeout dur       per-request timeout (default 10s)
  -v                 verbose logging
  -q                 only warnings and errors

Serve flags:
  -addr addr         listen address (default :8080)
  -dir path          output directory to serve (default .)
  -v, -q             as above`)
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newLogger(service string, verbose, quiet bool) *slog.Logger {
	switch {
	case verbose:
		return logger.NewWithLevel(service, slog.LevelDebug)
	case quiet:
		return logger.NewWithLevel(service, slog.LevelWarn)
	default:
		return logger.New(service)
	}
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		configPath  = fs.String("config", "linkfeed.yaml", "YAML configuration file")
		outputDir   = fs.String("output-dir", ".", "directory for generated feeds")
		jsonOut     = fs.String("json-out", "", "explicit feed.json path")
		rssOut      = fs.String("rss-out", "", "explicit feed.xml path")
		markdownDir = fs.String("markdown-dir", "", "directory of markdown files to scan")
		trelloFile  = fs.String("trello", "", "Trello board JSON export")
		website     = fs.String("website", "", "website to scrape for article links")
		multi       = fs.Bool("multi", false, "treat the config as a multi-feed config")
		rebuild     = fs.Bool("rebuild", false, "discard the existing feed")
		dryRun      = fs.Bool("dry-run", false, "do not write output files")
		concurrency = fs.Int("concurrency", app.DefaultConcurrency, "parallel fetches")
		timeout     = fs.Duration("timeout", fetch.DefaultTimeout, "per-request timeout")
		verbose     = fs.Bool("v", false, "verbose logging")
		quiet       = fs.Bool("q", false, "only warnings and errors")

		trelloLists stringList
		blacklist   stringList
		whitelist   stringList
	)
	fs.Var(&trelloLists, "trello-list", "Trello list to include")
	fs.Var(&blacklist, "blacklist", "URL pattern to exclude")
	fs.Var(&whitelist, "whitelist", "URL pattern to require")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := newLogger("linkfeed", *verbose, *quiet)

	opts := app.Options{
		ConfigPath:  *configPath,
		OutputDir:   *outputDir,
		JSONPath:    *jsonOut,
		RSSPath:     *rssOut,
		Args:        fs.Args(),
		MarkdownDir: *markdownDir,
		TrelloFile:  *trelloFile,
		TrelloLists: trelloLists,
		Website:     *website,
		Blacklist:   blacklist,
		Whitelist:   whitelist,
		Rebuild:     *rebuild,
		DryRun:      *dryRun,
		Concurrency: *concurrency,
		Timeout:     *timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a := app.New(log, opts.Timeout)

	if *multi || config.IsMulti(opts.ConfigPath) {
		results, err := a.RunMulti(ctx, opts)
		for _, res := range results {
			fmt.Printf("%s: %d added, %d items total\n", res.JSONPath, res.Added, len(res.Feed.Items))
		}
		return err
	}

	res, err := a.Run(ctx, opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		fmt.Printf("dry run: %d would be added, %d items total\n", res.Added, len(res.Feed.Items))
		return nil
	}
	fmt.Printf("%s: %d added, %d items total\n", res.JSONPath, res.Added, len(res.Feed.Items))
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		addr    = fs.String("addr", ":8080", "listen address")
		dir     = fs.String("dir", ".", "output directory to serve")
		verbose = fs.Bool("v", false, "verbose logging")
		quiet   = fs.Bool("q", false, "only warnings and errors")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := newLogger("linkfeed-serve", *verbose, *quiet)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.New(log, *dir).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", *addr), slog.String("dir", *dir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
