package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("PRESSGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API keys are also accepted under their conventional names.
	v.BindEnv("sources.guardian.api_key", "PRESSGOAT_SOURCES_GUARDIAN_API_KEY", "GUARDIAN_API_KEY")
	v.BindEnv("ai.api_key", "PRESSGOAT_AI_API_KEY", "OPENAI_API_KEY")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("pressgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pressgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("run.countries", cfg.Run.Countries)
	v.SetDefault("run.countries_file", cfg.Run.CountriesFile)
	v.SetDefault("run.cutoff", cfg.Run.Cutoff)
	v.SetDefault("run.output_dir", cfg.Run.OutputDir)
	v.SetDefault("run.concurrency", cfg.Run.Concurrency)
	v.SetDefault("run.full_text", cfg.Run.FullText)
	v.SetDefault("run.request_timeout", cfg.Run.RequestTimeout)

	v.SetDefault("sources.enabled", cfg.Sources.Enabled)
	v.SetDefault("sources.guardian.endpoint", cfg.Sources.Guardian.Endpoint)
	v.SetDefault("sources.guardian.api_key", cfg.Sources.Guardian.APIKey)
	v.SetDefault("sources.guardian.limit", cfg.Sources.Guardian.Limit)
	v.SetDefault("sources.guardian.rate_limit_backoff", cfg.Sources.Guardian.RateLimitBackoff)
	v.SetDefault("sources.aljazeera.base_url", cfg.Sources.AlJazeera.BaseURL)
	v.SetDefault("sources.aljazeera.limit", cfg.Sources.AlJazeera.Limit)
	v.SetDefault("sources.aljazeera.delay.min", cfg.Sources.AlJazeera.Delay.Min)
	v.SetDefault("sources.aljazeera.delay.max", cfg.Sources.AlJazeera.Delay.Max)
	v.SetDefault("sources.aljazeera.rate_limit_backoff", cfg.Sources.AlJazeera.RateLimitBackoff)
	v.SetDefault("sources.unpress.base_url", cfg.Sources.UNPress.BaseURL)
	v.SetDefault("sources.unpress.limit", cfg.Sources.UNPress.Limit)
	v.SetDefault("sources.unpress.listing_delay.min", cfg.Sources.UNPress.ListingDelay.Min)
	v.SetDefault("sources.unpress.listing_delay.max", cfg.Sources.UNPress.ListingDelay.Max)
	v.SetDefault("sources.unpress.article_delay.min", cfg.Sources.UNPress.ArticleDelay.Min)
	v.SetDefault("sources.unpress.article_delay.max", cfg.Sources.UNPress.ArticleDelay.Max)
	v.SetDefault("sources.unpress.rate_limit_backoff", cfg.Sources.UNPress.RateLimitBackoff)
	v.SetDefault("sources.rss.feeds", cfg.Sources.RSS.Feeds)
	v.SetDefault("sources.rss.limit", cfg.Sources.RSS.Limit)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)

	v.SetDefault("storage.backends", cfg.Storage.Backends)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.info_limit", cfg.AI.InfoLimit)
	v.SetDefault("ai.email_min_items", cfg.AI.EmailMinItems)
	v.SetDefault("ai.email_words_min", cfg.AI.EmailWordsMin)
	v.SetDefault("ai.email_words_max", cfg.AI.EmailWordsMax)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
