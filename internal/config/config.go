package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linkfeed/linkfeed/internal/filter"
)

// Meta is the static feed header written into every generated feed.
type Meta struct {
	Title       string `yaml:"title"`
	HomePageURL string `yaml:"home_page_url"`
	FeedURL     string `yaml:"feed_url"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

// TrelloSource points at a Trello board JSON export.
type TrelloSource struct {
	File  string   `yaml:"file"`
	Lists []string `yaml:"lists"`
}

// Config describes a single feed: its metadata, where its URLs come from
// and which of them to keep.
type Config struct {
	Feed        Meta          `yaml:"feed"`
	Sources     []string      `yaml:"sources"`
	Blacklist   []string      `yaml:"blacklist"`
	Whitelist   []string      `yaml:"whitelist"`
	Website     string        `yaml:"website"`
	MarkdownDir string        `yaml:"markdown_dir"`
	Trello      *TrelloSource `yaml:"trello"`
}

// Named is one feed inside a multi-feed configuration. Name doubles as the
// output subdirectory unless OutputDir overrides it.
type Named struct {
	Name      string `yaml:"name"`
	OutputDir string `yaml:"output_dir"`
	Config    `yaml:",inline"`
}

// Multi holds several named feeds plus patterns applied to all of them.
type Multi struct {
	Feeds           []Named  `yaml:"feeds"`
	GlobalBlacklist []string `yaml:"global_blacklist"`
	GlobalWhitelist []string `yaml:"global_whitelist"`
}

// Load reads a single-feed YAML config. A missing file yields a zero
// config so the tool works with CLI arguments alone.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validateFilters(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadMulti reads a multi-feed YAML config. Unlike Load, a missing file is
// an error: multi-feed mode is explicit.
func LoadMulti(path string) (*Multi, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var multi Multi
	if err := yaml.Unmarshal(data, &multi); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(multi.Feeds) == 0 {
		return nil, fmt.Errorf("config %s: multi-feed config must define feeds", path)
	}
	if err := filter.ValidatePatterns(multi.GlobalBlacklist); err != nil {
		return nil, fmt.Errorf("config %s: global_blacklist: %w", path, err)
	}
	if err := filter.ValidatePatterns(multi.GlobalWhitelist); err != nil {
		return nil, fmt.Errorf("config %s: global_whitelist: %w", path, err)
	}
	for i := range multi.Feeds {
		if multi.Feeds[i].Name == "" {
			return nil, fmt.Errorf("config %s: feed %d has no name", path, i)
		}
		if err := validateFilters(&multi.Feeds[i].Config); err != nil {
			return nil, fmt.Errorf("config %s: feed %s: %w", path, multi.Feeds[i].Name, err)
		}
	}
	return &multi, nil
}

func validateFilters(cfg *Config) error {
	if err := filter.ValidatePatterns(cfg.Blacklist); err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	if err := filter.ValidatePatterns(cfg.Whitelist); err != nil {
		return fmt.Errorf("whitelist: %w", err)
	}
	return nil
}

// IsMulti reports whether the file looks like a multi-feed config.
func IsMulti(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var probe struct {
		Feeds []yaml.Node `yaml:"feeds"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe.Feeds) > 0
}
