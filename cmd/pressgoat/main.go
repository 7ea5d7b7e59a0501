package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/PressGoat/internal/ai"
	"github.com/IshaanNene/PressGoat/internal/config"
	"github.com/IshaanNene/PressGoat/internal/engine"
	"github.com/IshaanNene/PressGoat/internal/storage"
)

var (
	cfgFile string
	verbose bool

	countriesFile  string
	cutoff         string
	outputDir      string
	concurrency    int
	fullText       bool
	requestTimeout time.Duration
	backendsFlag   []string
	sourcesFlag    []string
)

func main() {
	// A .env beside the binary may carry GUARDIAN_API_KEY / OPENAI_API_KEY.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pressgoat",
		Short: "PressGoat — recency-windowed press collection for country watchlists",
		Long: `PressGoat collects recent press coverage for a list of countries from the
Guardian content API, Al Jazeera's search listing, UN Press releases and
optional RSS feeds, keeps what falls inside the recency window, and writes
per-country reports plus a flat audit index.

Features:
  • Four source adapters with per-source pacing, retry and rate-limit backoff
  • Date normalization to YYYY-MM-DD with a fetch-budgeted UN Press date probe
  • Cross-source dedup by canonical URL; config order decides who wins
  • text, csv, jsonl, sqlite and mongodb storage backends
  • Optional LLM digest stage (info bullets + email drafts per country)
  • Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// collectCmd creates the "collect" subcommand.
func collectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [countries...]",
		Short: "Collect recent articles for the configured countries",
		Long: `Collect recent articles for each country from the enabled sources, drop
everything older than the cutoff, merge and dedup across sources, and write
the configured storage backends. Countries given as arguments override the
configured list.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCollect,
	}

	cmd.Flags().StringVarP(&cutoff, "cutoff", "d", "", "recency cutoff, YYYY-MM-DD inclusive")
	cmd.Flags().StringVar(&countriesFile, "countries-file", "", "newline-delimited countries list")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory root")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "country workers (0 = config default)")
	cmd.Flags().BoolVar(&fullText, "full-text", false, "fetch and store article body text")
	cmd.Flags().DurationVar(&requestTimeout, "timeout", 0, "per-request timeout (0 = config default)")
	cmd.Flags().StringSliceVar(&backendsFlag, "backends", nil, "storage backends: text,csv,jsonl,sqlite,mongodb")
	cmd.Flags().StringSliceVar(&sourcesFlag, "sources", nil, "source kinds in precedence order: guardian,aljazeera,unpress,rss")

	return cmd
}

// runCollect executes the collect command.
func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg, args)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(cfg)

	countries, err := config.Countries(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting collection",
		"countries", len(countries),
		"cutoff", cfg.Run.Cutoff,
		"sources", strings.Join(cfg.Sources.Enabled, ","),
		"backends", strings.Join(cfg.Storage.Backends, ","),
		"concurrency", cfg.Run.Concurrency,
	)

	store, err := storage.FromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	eng, err := engine.New(cfg, logger, engine.WithStorage(store))
	if err != nil {
		store.Close()
		return fmt.Errorf("create engine: %w", err)
	}

	if cfg.Metrics.Enabled {
		if err := eng.Metrics().StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	results, runErr := eng.Run(ctx)
	if err := eng.Close(); err != nil {
		logger.Warn("shutdown", "error", err)
	}

	elapsed := time.Since(start)
	stats := eng.Metrics().Snapshot()
	logger.Info("collection complete",
		"elapsed", elapsed,
		"countries", stats["countries_completed"],
		"requests", stats["requests_total"],
		"articles", stats["articles_collected"],
		"bytes", stats["bytes_downloaded"],
	)

	if runErr != nil {
		return fmt.Errorf("collection interrupted: %w", runErr)
	}

	var kept int
	for _, result := range results {
		kept += len(result.Articles)
	}

	fmt.Printf("\n✅ Collected %d countries in %s\n", len(results), elapsed.Round(time.Millisecond))
	fmt.Printf("   Requests:  %v sent, %v failed\n", stats["requests_total"], stats["requests_failed"])
	fmt.Printf("   Articles:  %d kept, %v stale, %v duplicate\n", kept, stats["articles_dropped_old"], stats["articles_dropped_dup"])
	fmt.Printf("   Output:    %s\n", storage.RunDir(cfg))

	if cfg.AI.Enabled {
		return runDigestStage(ctx, cfg, logger)
	}
	return nil
}

// digestCmd creates the "digest" subcommand.
func digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Write LLM info digests and email drafts for a finished run",
		Long: `Read the per-country text reports of a finished run and write an info digest
for each country, plus an email draft when the model finds enough
country-specific substance. Finishes by aggregating the digests into
all_info.txt and all_emails.txt.`,
		RunE: runDigest,
	}

	cmd.Flags().StringVarP(&cutoff, "cutoff", "d", "", "cutoff of the run to digest, YYYY-MM-DD")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory root")

	return cmd
}

// runDigest executes the digest command.
func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cutoff != "" {
		cfg.Run.Cutoff = cutoff
	}
	if outputDir != "" {
		cfg.Run.OutputDir = outputDir
	}
	if err := validateRunRef(cfg); err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runDigestStage(ctx, cfg, logger)
}

// runDigestStage digests a run directory and aggregates the results. Shared
// by the digest command and a collect run with ai.enabled.
func runDigestStage(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AI.Provider == string(ai.ProviderOpenAI) && cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required for the openai provider (set OPENAI_API_KEY)")
	}

	runDir := storage.RunDir(cfg)
	digester := ai.FromConfig(cfg, logger)

	n, err := digester.Run(ctx, runDir)
	if err != nil {
		return fmt.Errorf("digest stage: %w", err)
	}
	if err := storage.Aggregate(runDir); err != nil {
		return fmt.Errorf("aggregate digests: %w", err)
	}
	logger.Info("digest complete", "countries", n, "dir", runDir)

	fmt.Printf("\n✅ Digested %d countries\n", n)
	fmt.Printf("   Info:      %s\n", filepath.Join(runDir, "info"))
	fmt.Printf("   Emails:    %s\n", filepath.Join(runDir, "emails"))
	return nil
}

// aggregateCmd creates the "aggregate" subcommand.
func aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Concatenate per-country digests into all_info.txt and all_emails.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cutoff != "" {
				cfg.Run.Cutoff = cutoff
			}
			if outputDir != "" {
				cfg.Run.OutputDir = outputDir
			}
			if err := validateRunRef(cfg); err != nil {
				return err
			}

			runDir := storage.RunDir(cfg)
			if err := storage.Aggregate(runDir); err != nil {
				return err
			}
			fmt.Printf("✅ Aggregated digests in %s\n", runDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cutoff, "cutoff", "d", "", "cutoff of the run to aggregate, YYYY-MM-DD")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory root")

	return cmd
}

// sourcesCmd creates the "sources" subcommand.
func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured source adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			for i, kind := range cfg.Sources.Enabled {
				switch kind {
				case "guardian":
					fmt.Printf("%d. guardian   %s (limit %d)\n", i+1, cfg.Sources.Guardian.Endpoint, cfg.Sources.Guardian.Limit)
				case "aljazeera":
					fmt.Printf("%d. aljazeera  %s (limit %d)\n", i+1, cfg.Sources.AlJazeera.BaseURL, cfg.Sources.AlJazeera.Limit)
				case "unpress":
					fmt.Printf("%d. unpress    %s (limit %d)\n", i+1, cfg.Sources.UNPress.BaseURL, cfg.Sources.UNPress.Limit)
				case "rss":
					fmt.Printf("%d. rss        %d feeds (limit %d per feed)\n", i+1, len(cfg.Sources.RSS.Feeds), cfg.Sources.RSS.Limit)
				default:
					fmt.Printf("%d. %s (unknown kind)\n", i+1, kind)
				}
			}
			fmt.Println("\nList order is precedence: earlier sources win duplicated URLs.")
			return nil
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Run:\n")
			fmt.Printf("  Cutoff:            %s\n", cfg.Run.Cutoff)
			fmt.Printf("  Countries:         %d inline, file %q\n", len(cfg.Run.Countries), cfg.Run.CountriesFile)
			fmt.Printf("  Output Dir:        %s\n", cfg.Run.OutputDir)
			fmt.Printf("  Concurrency:       %d\n", cfg.Run.Concurrency)
			fmt.Printf("  Full Text:         %v\n", cfg.Run.FullText)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Run.RequestTimeout)
			fmt.Printf("\nSources:\n")
			fmt.Printf("  Enabled:           %s\n", strings.Join(cfg.Sources.Enabled, ", "))
			fmt.Printf("  Guardian Limit:    %d\n", cfg.Sources.Guardian.Limit)
			fmt.Printf("  Al Jazeera Limit:  %d\n", cfg.Sources.AlJazeera.Limit)
			fmt.Printf("  UN Press Limit:    %d\n", cfg.Sources.UNPress.Limit)
			fmt.Printf("  RSS Feeds:         %d\n", len(cfg.Sources.RSS.Feeds))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Backends:          %s\n", strings.Join(cfg.Storage.Backends, ", "))
			fmt.Printf("  SQLite Path:       %s\n", cfg.Storage.SQLitePath)
			fmt.Printf("  Mongo Database:    %s/%s\n", cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.AI.Enabled)
			fmt.Printf("  Provider:          %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:             %s\n", cfg.AI.Model)
			fmt.Printf("  Info Limit:        %d\n", cfg.AI.InfoLimit)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PressGoat %s\n", config.Version)
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config, countries []string) {
	if len(countries) > 0 {
		cfg.Run.Countries = countries
	}
	if countriesFile != "" {
		cfg.Run.CountriesFile = countriesFile
	}
	if cutoff != "" {
		cfg.Run.Cutoff = cutoff
	}
	if outputDir != "" {
		cfg.Run.OutputDir = outputDir
	}
	if concurrency > 0 {
		cfg.Run.Concurrency = concurrency
	}
	if fullText {
		cfg.Run.FullText = true
	}
	if requestTimeout > 0 {
		cfg.Run.RequestTimeout = requestTimeout
	}
	if len(backendsFlag) > 0 {
		cfg.Storage.Backends = backendsFlag
	}
	if len(sourcesFlag) > 0 {
		cfg.Sources.Enabled = sourcesFlag
	}
}

// validateRunRef checks the fields that locate an existing run directory.
func validateRunRef(cfg *config.Config) error {
	if cfg.Run.Cutoff == "" {
		return fmt.Errorf("run.cutoff is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse("2006-01-02", cfg.Run.Cutoff); err != nil {
		return fmt.Errorf("run.cutoff must be YYYY-MM-DD, got %q", cfg.Run.Cutoff)
	}
	if cfg.Run.OutputDir == "" {
		return fmt.Errorf("run.output_dir must not be empty")
	}
	return nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
