package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/embedding"
	"github.com/spigell/hh-indexer/internal/embedding/gemini"
	"github.com/spigell/hh-indexer/internal/embedding/tfidf"
	"github.com/spigell/hh-indexer/internal/headhunter"
	"github.com/spigell/hh-indexer/internal/index"
	"github.com/spigell/hh-indexer/internal/logger"
	"github.com/spigell/hh-indexer/internal/secrets"
	"github.com/spigell/hh-indexer/internal/source"
	"github.com/spigell/hh-indexer/internal/store"
	"github.com/spigell/hh-indexer/internal/store/jsonfile"
	"github.com/spigell/hh-indexer/internal/store/sqlite"
)

const (
	app = "hh-indexer"
)

type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type SourcesConfig struct {
	Files      []string         `mapstructure:"files"`
	Headhunter HeadhunterConfig `mapstructure:"headhunter"`
}

type HeadhunterConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	TokenFile string                   `mapstructure:"token-file"`
	UserAgent string                   `mapstructure:"user-agent"`
	Detailed  bool                     `mapstructure:"detailed"`
	Search    *headhunter.SearchParams `mapstructure:"search"`
}

type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
	BatchSize  int    `mapstructure:"batch-size"`
}

type AlertsConfig struct {
	SavedSearches string `mapstructure:"saved-searches"`
	Schedule      string `mapstructure:"schedule"`
	OnlyNew       bool   `mapstructure:"only-new"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-indexer collects job postings, indexes them and alerts on saved searches",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("sources.headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("embedding.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.path", app+".db")
	viper.SetDefault("embedding.provider", "tfidf")
	viper.SetDefault("embedding.timeout", "30s")
	viper.SetDefault("alerts.saved-searches", "searches.yaml")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-indexer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional and never overrides the real environment.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults are enough to run.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// setup builds the logger and reads the config. Any failure is fatal.
func setup(cmd *cobra.Command) (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Fields: []zap.Field{zap.String("command", cmd.Name())},
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		config = &Config{}
	}

	logger.Debug("config loaded", zap.String("file", viper.ConfigFileUsed()), zap.Any("config", config))

	return logger, config
}

func openStore(ctx context.Context, cfg StoreConfig) (store.JobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "json":
		s, err := jsonfile.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func newProvider(ctx context.Context, cfg EmbeddingConfig, logger *zap.Logger) (embedding.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "tfidf":
		return tfidf.New(), nil
	case "none":
		return nil, nil
	case "gemini":
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set embedding.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		embedder, err := gemini.New(ctx, apiKey, gemini.Options{
			Model:      cfg.Gemini.Model,
			MaxRetries: cfg.Gemini.MaxRetries,
			BatchSize:  cfg.Gemini.BatchSize,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func newIndex(ctx context.Context, config *Config, logger *zap.Logger) (*index.Index, error) {
	provider, err := newProvider(ctx, config.Embedding, logger)
	if err != nil {
		return nil, err
	}
	return index.New(provider, index.WithTimeout(config.Embedding.Timeout), index.WithLogger(logger)), nil
}

func newSources(config *Config, logger *zap.Logger) ([]source.Source, error) {
	var sources []source.Source

	if len(config.Sources.Files) > 0 {
		sources = append(sources, source.NewFile(config.Sources.Files...))
	}

	hh := config.Sources.Headhunter
	if hh.Enabled {
		token := ""
		// The vacancy search works without a token, only with lower limits.
		if strings.TrimSpace(hh.TokenFile) != "" {
			var err error
			token, err = secrets.Load(secrets.Source{Name: "headhunter token", File: hh.TokenFile})
			if err != nil {
				return nil, err
			}
		}

		client := headhunter.New(logger, token)
		if hh.UserAgent != "" {
			client.UserAgent = hh.UserAgent
		}

		sources = append(sources, &headhunter.Source{
			Client:   client,
			Params:   hh.Search,
			Detailed: hh.Detailed,
		})
	}

	return sources, nil
}
