package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPlacesURL is the public wastebuster places database.
const DefaultPlacesURL = "https://raw.githubusercontent.com/willcagas/wastebuster-public-database/main/public-database-2023.json"

type Config struct {
	ListenAddr string
	DBPath     string

	SavedBackend string
	RedisAddr    string
	PostgresDSN  string

	PlacesURL     string
	EventsURL     string
	IdeasURL      string
	CategoriesURL string
	DataDir       string

	RefreshInterval time.Duration
	FetchRateLimit  float64
	FetchTimeout    time.Duration
	Timezone        string

	ClassifyBackend string
	OllamaHost      string
	OllamaModel     string
	ClaudeAPIKey    string
	ClaudeModel     string

	LogLevel string
	LogFile  string
}

// fileConfig is the on-disk shape. Empty fields leave the default in place.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr" toml:"listen_addr"`
	DBPath     string `yaml:"db_path" toml:"db_path"`
	Saved      struct {
		Backend     string `yaml:"backend" toml:"backend"`
		RedisAddr   string `yaml:"redis_addr" toml:"redis_addr"`
		PostgresDSN string `yaml:"postgres_dsn" toml:"postgres_dsn"`
	} `yaml:"saved" toml:"saved"`
	Datasets struct {
		PlacesURL       string  `yaml:"places_url" toml:"places_url"`
		EventsURL       string  `yaml:"events_url" toml:"events_url"`
		IdeasURL        string  `yaml:"ideas_url" toml:"ideas_url"`
		CategoriesURL   string  `yaml:"categories_url" toml:"categories_url"`
		DataDir         string  `yaml:"data_dir" toml:"data_dir"`
		RefreshInterval string  `yaml:"refresh_interval" toml:"refresh_interval"`
		FetchRateLimit  float64 `yaml:"fetch_rate_limit" toml:"fetch_rate_limit"`
		FetchTimeout    string  `yaml:"fetch_timeout" toml:"fetch_timeout"`
		Timezone        string  `yaml:"timezone" toml:"timezone"`
	} `yaml:"datasets" toml:"datasets"`
	Classify struct {
		Backend      string `yaml:"backend" toml:"backend"`
		OllamaHost   string `yaml:"ollama_host" toml:"ollama_host"`
		OllamaModel  string `yaml:"ollama_model" toml:"ollama_model"`
		ClaudeAPIKey string `yaml:"claude_api_key" toml:"claude_api_key"`
		ClaudeModel  string `yaml:"claude_model" toml:"claude_model"`
	} `yaml:"classify" toml:"classify"`
	Log struct {
		Level string `yaml:"level" toml:"level"`
		File  string `yaml:"file" toml:"file"`
	} `yaml:"log" toml:"log"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:      ":8080",
		DBPath:          "/data/wastebuster.db",
		SavedBackend:    "sqlite",
		RedisAddr:       "localhost:6379",
		PlacesURL:       DefaultPlacesURL,
		RefreshInterval: 0,
		FetchRateLimit:  1,
		FetchTimeout:    30 * time.Second,
		Timezone:        "Local",
		ClassifyBackend: "none",
		OllamaHost:      "http://localhost:11434",
		OllamaModel:     "llava",
		ClaudeModel:     "claude-3-5-sonnet-latest",
		LogLevel:        "info",
	}
}

// Load builds the config from defaults, then the file named by
// WASTEBUSTER_CONFIG (YAML or TOML, by extension), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("WASTEBUSTER_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.SavedBackend = getEnv("SAVED_BACKEND", cfg.SavedBackend)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.PlacesURL = getEnv("PLACES_URL", cfg.PlacesURL)
	cfg.EventsURL = getEnv("EVENTS_URL", cfg.EventsURL)
	cfg.IdeasURL = getEnv("IDEAS_URL", cfg.IdeasURL)
	cfg.CategoriesURL = getEnv("CATEGORIES_URL", cfg.CategoriesURL)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	cfg.ClassifyBackend = getEnv("CLASSIFY_BACKEND", cfg.ClassifyBackend)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	var err error
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", cfg.RefreshInterval); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("FETCH_RATE_LIMIT"); ok {
		if cfg.FetchRateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid FETCH_RATE_LIMIT %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves Timezone. Day offsets for events are computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	switch c.SavedBackend {
	case "sqlite", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SAVED_BACKEND=redis")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when SAVED_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown SAVED_BACKEND %q", c.SavedBackend)
	}

	switch c.ClassifyBackend {
	case "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required when CLASSIFY_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown CLASSIFY_BACKEND %q", c.ClassifyBackend)
	}

	if c.PlacesURL == "" && c.DataDir == "" {
		return fmt.Errorf("PLACES_URL or DATA_DIR is required")
	}

	if c.FetchRateLimit < 0 {
		return fmt.Errorf("FETCH_RATE_LIMIT must not be negative")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.SavedBackend, fc.Saved.Backend)
	setString(&cfg.RedisAddr, fc.Saved.RedisAddr)
	setString(&cfg.PostgresDSN, fc.Saved.PostgresDSN)
	setString(&cfg.PlacesURL, fc.Datasets.PlacesURL)
	setString(&cfg.EventsURL, fc.Datasets.EventsURL)
	setString(&cfg.IdeasURL, fc.Datasets.IdeasURL)
	setString(&cfg.CategoriesURL, fc.Datasets.CategoriesURL)
	setString(&cfg.DataDir, fc.Datasets.DataDir)
	setString(&cfg.Timezone, fc.Datasets.Timezone)
	setString(&cfg.ClassifyBackend, fc.Classify.Backend)
	setString(&cfg.OllamaHost, fc.Classify.OllamaHost)
	setString(&cfg.OllamaModel, fc.Classify.OllamaModel)
	setString(&cfg.ClaudeAPIKey, fc.Classify.ClaudeAPIKey)
	setString(&cfg.ClaudeModel, fc.Classify.ClaudeModel)
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFile, fc.Log.File)
	if fc.Datasets.FetchRateLimit != 0 {
		cfg.FetchRateLimit = fc.Datasets.FetchRateLimit
	}
	if fc.Datasets.RefreshInterval != "" {
		if cfg.RefreshInterval, err = time.ParseDuration(fc.Datasets.RefreshInterval); err != nil {
			return fmt.Errorf("invalid datasets.refresh_interval: %w", err)
		}
	}
	if fc.Datasets.FetchTimeout != "" {
		if cfg.FetchTimeout, err = time.ParseDuration(fc.Datasets.FetchTimeout); err != nil {
			return fmt.Errorf("invalid datasets.fetch_timeout: %w", err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
