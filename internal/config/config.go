// Package config loads and validates the YAML configuration. Durations and
// secrets arrive as strings (with ${VAR} expansion) in a raw struct and are
// parsed into a typed Config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the aggregator.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Ingestion IngestionConfig
	AI        AIConfig
	Sources   SourcesConfig
	Discovery DiscoveryConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string // listen address, e.g. ":8080"
}

// StorageConfig selects the persistence engine.
type StorageConfig struct {
	Engine string // "sqlite" or "postgres"
	Path   string // sqlite database file
	DSN    string // postgres connection string, expanded from env
}

// IngestionConfig controls the cycle scheduler and the orchestrator.
type IngestionConfig struct {
	Interval      time.Duration // gap between cycles
	ChunkSize     int           // records per processing chunk
	MaxConcurrent int           // concurrent chunks per source
	RetryAttempts int           // fetch retries after the first failure
	RetryDelay    time.Duration // base delay before the first retry
}

// AIConfig controls the LLM extraction gateway.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// SourcesConfig holds per-source settings. A disabled source is simply not
// wired into the cycle.
type SourcesConfig struct {
	RemoteOK   RemoteOKConfig
	JSearch    JSearchConfig
	Adzuna     AdzunaConfig
	HackerNews HackerNewsConfig
	RSS        RSSConfig
	ATS        ATSConfig
}

type RemoteOKConfig struct {
	Enabled bool `yaml:"enabled"`
}

type JSearchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	APIKey   string   `yaml:"api_key"`
	Queries  []string `yaml:"queries"`
	NumPages int      `yaml:"num_pages"`
}

type AdzunaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AppID          string   `yaml:"app_id"`
	AppKey         string   `yaml:"app_key"`
	Countries      []string `yaml:"countries"`
	Query          string   `yaml:"query"`
	ResultsPerPage int      `yaml:"results_per_page"`
}

type HackerNewsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type RSSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Feeds   []string `yaml:"feeds"`
}

// ATSConfig controls the board fetcher that walks discovered companies.
type ATSConfig struct {
	Enabled      bool
	MaxCompanies int
	MinDelay     time.Duration // gap between requests to the same platform
}

// DiscoveryConfig controls the company discovery crawler.
type DiscoveryConfig struct {
	Enabled   bool
	MaxBudget int // cap on search requests per discovery run
	Queries   []string
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultAddr          = ":8080"
	defaultSQLitePath    = "jobs.db"

	// maxChunkSize bounds records per extraction chunk; larger chunks blow
	// past usable prompt sizes.
	maxChunkSize = 50
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		Engine string `yaml:"engine"`
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	Ingestion struct {
		Interval      string `yaml:"interval"`
		ChunkSize     int    `yaml:"chunk_size"`
		MaxConcurrent int    `yaml:"max_concurrent"`
		RetryAttempts int    `yaml:"retry_attempts"`
		RetryDelay    string `yaml:"retry_delay"`
	} `yaml:"ingestion"`
	AI struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"api_key"`
		Timeout string `yaml:"timeout"`
	} `yaml:"ai"`
	Sources struct {
		RemoteOK   RemoteOKConfig   `yaml:"remoteok"`
		JSearch    JSearchConfig    `yaml:"jsearch"`
		Adzuna     AdzunaConfig     `yaml:"adzuna"`
		HackerNews HackerNewsConfig `yaml:"hackernews"`
		RSS        RSSConfig        `yaml:"rss"`
		ATS        struct {
			Enabled      bool   `yaml:"enabled"`
			MaxCompanies int    `yaml:"max_companies"`
			MinDelay     string `yaml:"min_delay"`
		} `yaml:"ats"`
	} `yaml:"sources"`
	Discovery struct {
		Enabled   bool     `yaml:"enabled"`
		MaxBudget int      `yaml:"max_budget"`
		Queries   []string `yaml:"queries"`
	} `yaml:"discovery"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 6 * time.Hour // default
	if raw.Ingestion.Interval != "" {
		interval, err = time.ParseDuration(raw.Ingestion.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse ingestion.interval %q: %w", raw.Ingestion.Interval, err)
		}
	}

	// Zero means "use the default"; anything else out of range is a
	// configuration mistake, not a request for the default.
	if raw.Ingestion.ChunkSize < 0 || raw.Ingestion.ChunkSize > maxChunkSize {
		return nil, fmt.Errorf("ingestion.chunk_size must be between 1 and %d, got %d",
			maxChunkSize, raw.Ingestion.ChunkSize)
	}
	if raw.Ingestion.MaxConcurrent < 0 {
		return nil, fmt.Errorf("ingestion.max_concurrent must be positive, got %d",
			raw.Ingestion.MaxConcurrent)
	}

	retryDelay := 5 * time.Second
	if raw.Ingestion.RetryDelay != "" {
		retryDelay, err = time.ParseDuration(raw.Ingestion.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("parse ingestion.retry_delay %q: %w", raw.Ingestion.RetryDelay, err)
		}
	}

	aiTimeout := 60 * time.Second
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	atsMinDelay := 2 * time.Second
	if raw.Sources.ATS.MinDelay != "" {
		atsMinDelay, err = time.ParseDuration(raw.Sources.ATS.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse sources.ats.min_delay %q: %w", raw.Sources.ATS.MinDelay, err)
		}
	}

	cfg := &Config{
		Server:  ServerConfig{Addr: orDefault(raw.Server.Addr, defaultAddr)},
		Storage: StorageConfig{Engine: orDefault(raw.Storage.Engine, "sqlite"), Path: orDefault(raw.Storage.Path, defaultSQLitePath), DSN: raw.Storage.DSN},
		Ingestion: IngestionConfig{
			Interval:      interval,
			ChunkSize:     orDefaultInt(raw.Ingestion.ChunkSize, 5),
			MaxConcurrent: orDefaultInt(raw.Ingestion.MaxConcurrent, 4),
			RetryAttempts: orDefaultInt(raw.Ingestion.RetryAttempts, 2),
			RetryDelay:    retryDelay,
		},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		Sources: SourcesConfig{
			RemoteOK:   raw.Sources.RemoteOK,
			JSearch:    raw.Sources.JSearch,
			Adzuna:     raw.Sources.Adzuna,
			HackerNews: raw.Sources.HackerNews,
			RSS:        raw.Sources.RSS,
			ATS: ATSConfig{
				Enabled:      raw.Sources.ATS.Enabled,
				MaxCompanies: orDefaultInt(raw.Sources.ATS.MaxCompanies, 50),
				MinDelay:     atsMinDelay,
			},
		},
		Discovery: DiscoveryConfig{
			Enabled:   raw.Discovery.Enabled,
			MaxBudget: orDefaultInt(raw.Discovery.MaxBudget, 100),
			Queries:   raw.Discovery.Queries,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Ingestion.Interval <= 0 {
		return fmt.Errorf("ingestion.interval must be positive, got %v", cfg.Ingestion.Interval)
	}

	switch cfg.Storage.Engine {
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite engine")
		}
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres engine")
		}
	default:
		return fmt.Errorf("storage.engine must be \"sqlite\" or \"postgres\", got %q", cfg.Storage.Engine)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if cfg.Sources.JSearch.Enabled && cfg.Sources.JSearch.APIKey == "" {
		return fmt.Errorf("sources.jsearch.api_key is required when jsearch is enabled")
	}
	if cfg.Sources.Adzuna.Enabled {
		if cfg.Sources.Adzuna.AppID == "" || cfg.Sources.Adzuna.AppKey == "" {
			return fmt.Errorf("sources.adzuna.app_id and app_key are required when adzuna is enabled")
		}
		if len(cfg.Sources.Adzuna.Countries) == 0 {
			return fmt.Errorf("sources.adzuna.countries must list at least one country code")
		}
	}
	if cfg.Sources.RSS.Enabled && len(cfg.Sources.RSS.Feeds) == 0 {
		return fmt.Errorf("sources.rss.feeds must list at least one feed URL")
	}

	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orDefaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
