// Package config layers run settings from defaults, an optional config
// file, environment variables, and CLI flags, in ascending precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	ErrRootRequired   = errors.New("root path is required")
	ErrAPIKeyRequired = errors.New("OpenAI API key is required")
)

// Config holds everything a run needs.
type Config struct {
	// Source tree under analysis.
	RootPath string `mapstructure:"root_path"`
	RepoName string `mapstructure:"repo_name"`
	RepoURL  string `mapstructure:"repo_url"`

	// Artifact destinations.
	OutputDir    string `mapstructure:"output_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	DatabasePath string `mapstructure:"database_path"`

	// Knowledge service. Empty base URL disables retrieval entirely;
	// empty index name triggers indexing before analysis.
	RAGBaseURL string `mapstructure:"rag_base_url"`
	IndexName  string `mapstructure:"index_name"`
	TopK       int    `mapstructure:"top_k"`

	// Generation provider.
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// Batch shape.
	Concurrency int `mapstructure:"concurrency"`
	ChunkSize   int `mapstructure:"chunk_size"`
	MaxRetries  int `mapstructure:"max_retries"`
}

// DefaultConfig values applied before any other layer.
var DefaultConfig = Config{
	OutputDir:   "output",
	CacheDir:    "cache",
	RAGBaseURL:  "http://localhost:9202",
	TopK:        5,
	Model:       "gpt-4o-mini",
	Timeout:     120 * time.Second,
	Concurrency: 25,
	ChunkSize:   50,
	MaxRetries:  3,
}

var cfgFile string

// InitFlags registers the CLI flags that mirror configuration keys.
func InitFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a config file (YAML or JSON)")

	cmd.PersistentFlags().String("root", "", "Root directory of the source tree to analyze")
	cmd.PersistentFlags().String("repo-name", "", "Repository name used in report headers")
	cmd.PersistentFlags().String("repo-url", "", "Repository URL used for source links")
	cmd.PersistentFlags().String("output", DefaultConfig.OutputDir, "Directory for report artifacts")
	cmd.PersistentFlags().String("cache-dir", DefaultConfig.CacheDir, "Directory for cached analysis responses")
	cmd.PersistentFlags().String("db", "", "SQLite database path (empty disables persistence)")
	cmd.PersistentFlags().String("rag-url", DefaultConfig.RAGBaseURL, "Base URL of the knowledge service (empty disables retrieval)")
	cmd.PersistentFlags().String("index", "", "Existing knowledge index name (empty indexes the tree first)")
	cmd.PersistentFlags().Int("top-k", DefaultConfig.TopK, "Passages requested per query")
	cmd.PersistentFlags().String("model", DefaultConfig.Model, "Chat model used for analysis")
	cmd.PersistentFlags().Int("concurrency", DefaultConfig.Concurrency, "Maximum files analyzed at once")
	cmd.PersistentFlags().Int("chunk-size", DefaultConfig.ChunkSize, "Files per sequential batch")
	cmd.PersistentFlags().Int("max-retries", DefaultConfig.MaxRetries, "Generation attempts per file")
}

// Load builds the final configuration. Precedence, lowest to highest:
// defaults, config file, environment (DOCFORGE_*), CLI flags.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DOCFORGE")
	v.AutomaticEnv()
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("docforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing default config file is fine; defaults and env apply.
		_ = v.ReadInConfig()
	}

	bindFlags(v, cmd)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.RootPath == "" {
		return ErrRootRequired
	}
	if c.OpenAIAPIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// RetrievalEnabled reports whether a knowledge service is configured.
func (c *Config) RetrievalEnabled() bool {
	return c.RAGBaseURL != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", DefaultConfig.OutputDir)
	v.SetDefault("cache_dir", DefaultConfig.CacheDir)
	v.SetDefault("rag_base_url", DefaultConfig.RAGBaseURL)
	v.SetDefault("top_k", DefaultConfig.TopK)
	v.SetDefault("model", DefaultConfig.Model)
	v.SetDefault("timeout", DefaultConfig.Timeout)
	v.SetDefault("concurrency", DefaultConfig.Concurrency)
	v.SetDefault("chunk_size", DefaultConfig.ChunkSize)
	v.SetDefault("max_retries", DefaultConfig.MaxRetries)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("root_path", "DOCFORGE_ROOT")
	_ = v.BindEnv("repo_name", "DOCFORGE_REPO_NAME")
	_ = v.BindEnv("repo_url", "DOCFORGE_REPO_URL")
	_ = v.BindEnv("output_dir", "DOCFORGE_OUTPUT_DIR")
	_ = v.BindEnv("cache_dir", "DOCFORGE_CACHE_DIR")
	_ = v.BindEnv("database_path", "DOCFORGE_DB_PATH")
	_ = v.BindEnv("rag_base_url", "DOCFORGE_RAG_URL")
	_ = v.BindEnv("index_name", "DOCFORGE_INDEX")
	_ = v.BindEnv("top_k", "DOCFORGE_TOP_K")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai_base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("model", "DOCFORGE_MODEL")
	_ = v.BindEnv("concurrency", "DOCFORGE_CONCURRENCY")
	_ = v.BindEnv("chunk_size", "DOCFORGE_CHUNK_SIZE")
	_ = v.BindEnv("max_retries", "DOCFORGE_MAX_RETRIES")
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	flags := cmd.Flags()
	_ = v.BindPFlag("root_path", flags.Lookup("root"))
	_ = v.BindPFlag("repo_name", flags.Lookup("repo-name"))
	_ = v.BindPFlag("repo_url", flags.Lookup("repo-url"))
	_ = v.BindPFlag("output_dir", flags.Lookup("output"))
	_ = v.BindPFlag("cache_dir", flags.Lookup("cache-dir"))
	_ = v.BindPFlag("database_path", flags.Lookup("db"))
	_ = v.BindPFlag("rag_base_url", flags.Lookup("rag-url"))
	_ = v.BindPFlag("index_name", flags.Lookup("index"))
	_ = v.BindPFlag("top_k", flags.Lookup("top-k"))
	_ = v.BindPFlag("model", flags.Lookup("model"))
	_ = v.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = v.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	_ = v.BindPFlag("max_retries", flags.Lookup("max-retries"))
}
