package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`

	Telegram TelegramConfig `yaml:"telegram"`
	Analysis AnalysisConfig `yaml:"analysis"`

	Classifier ClassifierConfig `yaml:"classifier"`

	SessionStore SessionStoreConfig `yaml:"session_store"`
}

// TelegramConfig contains configuration for the MTProto client.
type TelegramConfig struct {
	APIID              int           `yaml:"api_id"`
	APIHash            string        `yaml:"api_hash"`
	DefaultCountryCode string        `yaml:"default_country_code"`
	ConnectionRetries  int           `yaml:"connection_retries"`
	RetryInterval      time.Duration `yaml:"retry_interval"`
	DialTimeout        time.Duration `yaml:"dial_timeout"`
}

// AnalysisConfig controls the message window scanned by /api/analyze.
type AnalysisConfig struct {
	WindowDays     int `yaml:"window_days"`
	MaxMessages    int `yaml:"max_messages"`
	OldStreakLimit int `yaml:"old_streak_limit"`
	BatchSize      int `yaml:"batch_size"`
}

// Window returns the analysis window as a duration.
func (a AnalysisConfig) Window() time.Duration {
	return time.Duration(a.WindowDays) * 24 * time.Hour
}

// ClassifierConfig selects the sentiment classifier.
type ClassifierConfig struct {
	Provider string `yaml:"provider"` // "lexicon", "http" or "gemini"
	MLURL    string `yaml:"ml_url"`
	Gemini   struct {
		APIKey    string `yaml:"api_key"`
		ModelName string `yaml:"model_name"`
	} `yaml:"gemini"`
}

// SessionStoreConfig configures persistence of the authenticated MTProto session.
type SessionStoreConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Type           string `yaml:"type"` // "sqlite" or "postgres"
	Path           string `yaml:"path"` // sqlite file
	URL            string `yaml:"url"`  // postgres DSN
	MigrationsPath string `yaml:"migrations_path"`
	Secret         string `yaml:"secret"`
}

// LoadConfig reads configuration from the specified YAML file and applies defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return config, config.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
		}
		c.Telegram.APIID = id
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		c.Telegram.APIHash = v
	}

	c.Telegram.APIHash = os.ExpandEnv(c.Telegram.APIHash)
	c.Classifier.Gemini.APIKey = os.ExpandEnv(c.Classifier.Gemini.APIKey)
	c.SessionStore.URL = os.ExpandEnv(c.SessionStore.URL)
	c.SessionStore.Secret = os.ExpandEnv(c.SessionStore.Secret)
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3001"
	}

	if c.Telegram.DefaultCountryCode == "" {
		c.Telegram.DefaultCountryCode = "+91"
	}
	if c.Telegram.ConnectionRetries == 0 {
		c.Telegram.ConnectionRetries = 5
	}
	if c.Telegram.RetryInterval == 0 {
		c.Telegram.RetryInterval = time.Second
	}
	if c.Telegram.DialTimeout == 0 {
		c.Telegram.DialTimeout = 30 * time.Second
	}

	if c.Analysis.WindowDays == 0 {
		c.Analysis.WindowDays = 7
	}
	if c.Analysis.MaxMessages == 0 {
		c.Analysis.MaxMessages = 2000
	}
	if c.Analysis.OldStreakLimit == 0 {
		c.Analysis.OldStreakLimit = 10
	}
	if c.Analysis.BatchSize == 0 {
		c.Analysis.BatchSize = 100
	}

	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "lexicon"
	}
	if c.Classifier.Gemini.ModelName == "" {
		c.Classifier.Gemini.ModelName = "gemini-2.0-flash-exp"
	}

	if c.SessionStore.Type == "" {
		c.SessionStore.Type = "sqlite"
	}
	if c.SessionStore.Path == "" {
		c.SessionStore.Path = "./data/session.db"
	}
	if c.SessionStore.MigrationsPath == "" {
		c.SessionStore.MigrationsPath = "./migrations"
	}
}

// Validate checks the values that cannot be defaulted and rejects
// non-positive analysis bounds.
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
		return fmt.Errorf("telegram api_id and api_hash are required")
	}

	if c.Analysis.WindowDays <= 0 || c.Analysis.MaxMessages <= 0 ||
		c.Analysis.OldStreakLimit <= 0 || c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("analysis window_days, max_messages, old_streak_limit and batch_size must be positive")
	}

	switch c.Classifier.Provider {
	case "lexicon":
	case "http":
		if c.Classifier.MLURL == "" {
			return fmt.Errorf("classifier.ml_url is required for the http provider")
		}
	case "gemini":
		if c.Classifier.Gemini.APIKey == "" {
			return fmt.Errorf("classifier.gemini.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}

	if c.SessionStore.Enabled {
		switch c.SessionStore.Type {
		case "sqlite":
		case "postgres":
			if c.SessionStore.URL == "" {
				return fmt.Errorf("session_store.url is required for postgres")
			}
		default:
			return fmt.Errorf("unknown session_store type %q", c.SessionStore.Type)
		}
		if c.SessionStore.Secret == "" {
			return fmt.Errorf("session_store.secret is required when the session store is enabled")
		}
	}

	return nil
}
