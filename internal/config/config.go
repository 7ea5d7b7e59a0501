package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for PressGoat.
type Config struct {
	Run     RunConfig     `mapstructure:"run"     yaml:"run"`
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	AI      AIConfig      `mapstructure:"ai"      yaml:"ai"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// RunConfig holds the parameters of a single collection run.
type RunConfig struct {
	Countries      []string      `mapstructure:"countries"       yaml:"countries"`
	CountriesFile  string        `mapstructure:"countries_file"  yaml:"countries_file"`
	Cutoff         string        `mapstructure:"cutoff"          yaml:"cutoff"` // YYYY-MM-DD, inclusive
	OutputDir      string        `mapstructure:"output_dir"      yaml:"output_dir"`
	Concurrency    int           `mapstructure:"concurrency"     yaml:"concurrency"`
	FullText       bool          `mapstructure:"full_text"       yaml:"full_text"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// SourcesConfig selects and tunes the source adapters. Enabled lists the
// adapter kinds in precedence order; that order decides which source wins
// when the merger deduplicates.
type SourcesConfig struct {
	Enabled   []string        `mapstructure:"enabled"   yaml:"enabled"`
	Guardian  GuardianConfig  `mapstructure:"guardian"  yaml:"guardian"`
	AlJazeera AlJazeeraConfig `mapstructure:"aljazeera" yaml:"aljazeera"`
	UNPress   UNPressConfig   `mapstructure:"unpress"   yaml:"unpress"`
	RSS       RSSConfig       `mapstructure:"rss"       yaml:"rss"`
}

// DelayRange is a polite randomized delay window applied before fetches.
type DelayRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// GuardianConfig tunes the Guardian content API adapter.
type GuardianConfig struct {
	Endpoint         string        `mapstructure:"endpoint"           yaml:"endpoint"`
	APIKey           string        `mapstructure:"api_key"            yaml:"api_key"`
	Limit            int           `mapstructure:"limit"              yaml:"limit"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff" yaml:"rate_limit_backoff"`
}

// AlJazeeraConfig tunes the Al Jazeera listing adapter.
type AlJazeeraConfig struct {
	BaseURL          string        `mapstructure:"base_url"           yaml:"base_url"`
	Limit            int           `mapstructure:"limit"              yaml:"limit"`
	Delay            DelayRange    `mapstructure:"delay"              yaml:"delay"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff" yaml:"rate_limit_backoff"`
}

// UNPressConfig tunes the UN Press sitesearch adapter.
type UNPressConfig struct {
	BaseURL          string        `mapstructure:"base_url"           yaml:"base_url"`
	Limit            int           `mapstructure:"limit"              yaml:"limit"`
	ListingDelay     DelayRange    `mapstructure:"listing_delay"      yaml:"listing_delay"`
	ArticleDelay     DelayRange    `mapstructure:"article_delay"      yaml:"article_delay"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff" yaml:"rate_limit_backoff"`
}

// RSSConfig tunes the feed adapter. Feed URLs may contain a {query}
// placeholder that is replaced with the URL-escaped country term; feeds
// without a placeholder are filtered by term match on the item title.
type RSSConfig struct {
	Feeds []string `mapstructure:"feeds" yaml:"feeds"`
	Limit int      `mapstructure:"limit" yaml:"limit"`
}

// FetcherConfig controls the shared HTTP transport settings. Each adapter
// owns its fetcher instance; these are the common knobs.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// StorageConfig controls persistence backends. Backends all receive every
// country result; text and csv write into the run directory.
type StorageConfig struct {
	Backends        []string `mapstructure:"backends"         yaml:"backends"`
	MongoURI        string   `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string   `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string   `mapstructure:"mongo_collection" yaml:"mongo_collection"`
	SQLitePath      string   `mapstructure:"sqlite_path"      yaml:"sqlite_path"`
}

// AIConfig controls the digest stage.
type AIConfig struct {
	Enabled       bool    `mapstructure:"enabled"         yaml:"enabled"`
	Provider      string  `mapstructure:"provider"        yaml:"provider"`
	Endpoint      string  `mapstructure:"endpoint"        yaml:"endpoint"`
	Model         string  `mapstructure:"model"           yaml:"model"`
	APIKey        string  `mapstructure:"api_key"         yaml:"api_key"`
	MaxTokens     int     `mapstructure:"max_tokens"      yaml:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"     yaml:"temperature"`
	InfoLimit     int     `mapstructure:"info_limit"      yaml:"info_limit"`
	EmailMinItems int     `mapstructure:"email_min_items" yaml:"email_min_items"`
	EmailWordsMin int     `mapstructure:"email_words_min" yaml:"email_words_min"`
	EmailWordsMax int     `mapstructure:"email_words_max" yaml:"email_words_max"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			OutputDir:      "out",
			Concurrency:    4,
			RequestTimeout: 30 * time.Second,
		},
		Sources: SourcesConfig{
			Enabled: []string{"guardian", "aljazeera", "unpress"},
			Guardian: GuardianConfig{
				Endpoint:         "https://content.guardianapis.com/search",
				APIKey:           "test",
				Limit:            5,
				RateLimitBackoff: 1 * time.Second,
			},
			AlJazeera: AlJazeeraConfig{
				BaseURL:          "https://www.aljazeera.com",
				Limit:            5,
				Delay:            DelayRange{Min: 450 * time.Millisecond, Max: 900 * time.Millisecond},
				RateLimitBackoff: 1200 * time.Millisecond,
			},
			UNPress: UNPressConfig{
				BaseURL:          "https://press.un.org",
				Limit:            32,
				ListingDelay:     DelayRange{Min: 300 * time.Millisecond, Max: 700 * time.Millisecond},
				ArticleDelay:     DelayRange{Min: 350 * time.Millisecond, Max: 900 * time.Millisecond},
				RateLimitBackoff: 1 * time.Second,
			},
			RSS: RSSConfig{
				Limit: 10,
			},
		},
		Fetcher: FetcherConfig{
			Type: "http",
			UserAgents: []string{
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
			},
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Storage: StorageConfig{
			Backends:        []string{"text", "csv"},
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "pressgoat",
			MongoCollection: "articles",
		},
		AI: AIConfig{
			Enabled:       false,
			Provider:      "openai",
			Endpoint:      "https://api.openai.com/v1",
			Model:         "gpt-4.1-mini",
			MaxTokens:     2048,
			Temperature:   1.0,
			InfoLimit:     5,
			EmailMinItems: 1,
			EmailWordsMin: 80,
			EmailWordsMax: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
