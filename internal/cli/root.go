package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimview/internal/cache"
	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/render"
	"github.com/ppiankov/claimview/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is the release version, overridden at build time
var Version = "0.3.0"

var (
	cfgFile      string
	verbose      bool
	sourceDir    string
	baseURL      string
	noCache      bool
	outputFormat string
	configErr    error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimview",
	Short: "claimview - review dashboard for assessed insurance claims",
	Long: `claimview presents the results of automated claim assessment for human
review: extracted facts grouped by document, the assumptions the assessment
had to make, the items that need attention and the history of assessment runs.

claimview only reads. Claim snapshots come from a fixture directory or the
claims backend JSON API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context that commands observe
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of claimview.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimview v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimview/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.StringVar(&sourceDir, "source-dir", "", "read claims from a fixture directory")
	pf.StringVar(&baseURL, "base-url", "", "read claims from the backend API at this URL")
	pf.BoolVar(&noCache, "no-cache", false, "disable response cache (force fresh fetch)")
	pf.StringVarP(&outputFormat, "format", "f", "table", "output format: table, markdown, json, html")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	configErr = nil
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".claimview"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMVIEW_* (CLAIMVIEW_SOURCE_BASE_URL)
	viper.SetEnvPrefix("CLAIMVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		// An explicit config file must exist and parse
		configErr = fmt.Errorf("read config %s: %w", cfgFile, err)
	}
}

// setDefaults registers every key so env vars bind without a config file
func setDefaults(cfg *model.Config) {
	defaults := map[string]any{
		"source.kind":                cfg.Source.Kind,
		"source.dir":                 cfg.Source.Dir,
		"source.base_url":            cfg.Source.BaseURL,
		"source.timeout":             cfg.Source.Timeout,
		"source.user_agent":          cfg.Source.UserAgent,
		"source.max_body_bytes":      cfg.Source.MaxBodyBytes,
		"source.requests_per_second": cfg.Source.RequestsPerSecond,
		"source.burst":               cfg.Source.Burst,
		"source.http_proxy":          cfg.Source.HTTPProxy,
		"source.https_proxy":         cfg.Source.HTTPSProxy,
		"cache.enabled":              cfg.Cache.Enabled,
		"cache.memory_ttl":           cfg.Cache.MemoryTTL,
		"cache.disk_dir":             cfg.Cache.DiskDir,
		"cache.disk_ttl":             cfg.Cache.DiskTTL,
		"view.max_attention_items":   cfg.View.MaxAttentionItems,
		"view.expanded_groups":       cfg.View.ExpandedGroups,
		"view.currency":              cfg.View.Currency,
		"concurrency.fetch_workers":  cfg.Concurrency.FetchWorkers,
		"concurrency.export_workers": cfg.Concurrency.ExportWorkers,
		"log.level":                  cfg.Log.Level,
		"log.format":                 cfg.Log.Format,
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// loadConfig resolves the effective configuration: flags over env over
// config file over defaults
func loadConfig() (*model.Config, error) {
	if configErr != nil {
		return nil, configErr
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if sourceDir != "" {
		cfg.Source.Kind = "dir"
		cfg.Source.Dir = sourceDir
	}
	if baseURL != "" {
		cfg.Source.Kind = "http"
		cfg.Source.BaseURL = baseURL
	}
	if sourceDir != "" && baseURL != "" {
		return nil, fmt.Errorf("--source-dir and --base-url are mutually exclusive")
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// app is what a command needs to run
type app struct {
	cfg      *model.Config
	log      *zap.Logger
	src      source.Source
	builder  *dashboard.Builder
	renderer *render.Renderer
}

// setup loads config and wires logger, source and renderer for a command
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	format, err := render.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	src, err := newSource(cfg, log)
	if err != nil {
		return nil, err
	}

	builder := dashboard.NewBuilder(src, dashboard.Options{
		MaxAttentionItems: cfg.View.MaxAttentionItems,
		ExpandedGroups:    cfg.View.ExpandedGroups,
		Currency:          cfg.View.Currency,
		Workers:           cfg.Concurrency.FetchWorkers,
		Logger:            log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		src:      src,
		builder:  builder,
		renderer: render.New(cmd.OutOrStdout(), format),
	}, nil
}

// newSource builds the configured source. Backend responses are cached;
// fixture directories are read directly.
func newSource(cfg *model.Config, log *zap.Logger) (source.Source, error) {
	switch cfg.Source.Kind {
	case "dir":
		if cfg.Source.Dir == "" {
			return nil, fmt.Errorf("source.dir is required for the dir source")
		}
		log.Debug("using fixture directory", zap.String("dir", cfg.Source.Dir))
		return source.NewDirSource(cfg.Source.Dir), nil

	case "http":
		httpSrc, err := source.NewHTTPSource(source.HTTPOptions{
			BaseURL:           cfg.Source.BaseURL,
			Timeout:           cfg.Source.Timeout,
			UserAgent:         cfg.Source.UserAgent,
			MaxBodyBytes:      cfg.Source.MaxBodyBytes,
			RequestsPerSecond: cfg.Source.RequestsPerSecond,
			Burst:             cfg.Source.Burst,
			EndpointRates:     cfg.Source.EndpointRates,
			HTTPProxy:         cfg.Source.HTTPProxy,
			HTTPSProxy:        cfg.Source.HTTPSProxy,
			Logger:            log,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("using backend API", zap.String("base_url", cfg.Source.BaseURL), zap.Bool("cache", cfg.Cache.Enabled))
		if !cfg.Cache.Enabled {
			return httpSrc, nil
		}
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.DiskDir, cfg.Cache.DiskTTL)
		return source.NewCachedSource(httpSrc, c, cfg.Cache.MemoryTTL, log), nil

	default:
		return nil, fmt.Errorf("unknown source kind %q (want dir or http)", cfg.Source.Kind)
	}
}
