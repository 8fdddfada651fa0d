package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound indicates no configuration file could be read
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrInvalidConfig indicates the configuration failed validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// EmailAccount holds the connection parameters and scan policy for one
// mailbox. Accounts are owned by the configuration and immutable for the
// duration of a scan cycle.
type EmailAccount struct {
	Email         string   `yaml:"email"`
	Password      string   `yaml:"password"`
	IMAPServer    string   `yaml:"imap_server"`
	IMAPPort      int      `yaml:"imap_port"`
	UseSSL        bool     `yaml:"use_ssl"`
	FoldersToScan []string `yaml:"folders_to_scan"`
}

// IMAPSettings controls the scan loop behaviour shared by all accounts
type IMAPSettings struct {
	ScanIntervalMinutes  int  `yaml:"scan_interval_minutes"`
	MarkAsSeen           bool `yaml:"mark_as_seen"`
	AccountBudgetMinutes int  `yaml:"account_budget_minutes"`
}

// DatabaseSettings holds the database connection settings. The URL is
// either a postgres DSN or a sqlite file path.
type DatabaseSettings struct {
	URL string `yaml:"url"`
}

// AISettings configures the optional AI-backed analyzer
type AISettings struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// NLPSettings selects and configures the analysis provider
type NLPSettings struct {
	Mode                string     `yaml:"mode"` // "local" or "ai"
	SimilarityThreshold float64    `yaml:"similarity_threshold"`
	AI                  AISettings `yaml:"ai"`
}

// ServerSettings holds the HTTP API settings
type ServerSettings struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	APIKeyEnabled bool   `yaml:"api_key_enabled"`
	CORSOrigins   string `yaml:"cors_origins"`
}

// Config holds the application configuration
type Config struct {
	EmailAccounts      []EmailAccount   `yaml:"email_accounts"`
	IMAP               IMAPSettings     `yaml:"imap"`
	Database           DatabaseSettings `yaml:"database"`
	NLP                NLPSettings      `yaml:"nlp"`
	Server             ServerSettings   `yaml:"server"`
	ProductCatalogPath string           `yaml:"product_catalog_path"`
	DataDir            string           `yaml:"data_dir"`
	LogLevel           string           `yaml:"log_level"`
}

// Default configuration values
const (
	DefaultConfigPath           = "config.yml"
	DefaultDatabaseURL          = "data/eia.db"
	DefaultAPIHost              = "127.0.0.1"
	DefaultAPIPort              = "8000"
	DefaultLogLevel             = "INFO"
	DefaultDataDir              = "data"
	DefaultCatalogPath          = "catalog.yml"
	DefaultScanIntervalMinutes  = 10
	DefaultAccountBudgetMinutes = 10
	DefaultIMAPPort             = 993
	DefaultNLPMode              = "local"
	DefaultSimilarityThreshold  = 0.75
	DefaultCORSOrigins          = "*"
)

// Load loads configuration from the config file and environment variables.
// Priority: environment variables > config file > default values.
func Load() (*Config, error) {
	path := os.Getenv("EIA_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadFromFile(path)
}

// LoadFromFile loads and validates the configuration from the given path
func LoadFromFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.applyAccountDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		IMAP: IMAPSettings{
			ScanIntervalMinutes:  DefaultScanIntervalMinutes,
			MarkAsSeen:           true,
			AccountBudgetMinutes: DefaultAccountBudgetMinutes,
		},
		Database: DatabaseSettings{URL: DefaultDatabaseURL},
		NLP: NLPSettings{
			Mode:                DefaultNLPMode,
			SimilarityThreshold: DefaultSimilarityThreshold,
		},
		Server: ServerSettings{
			Host:        DefaultAPIHost,
			Port:        DefaultAPIPort,
			CORSOrigins: DefaultCORSOrigins,
		},
		ProductCatalogPath: DefaultCatalogPath,
		DataDir:            DefaultDataDir,
		LogLevel:           DefaultLogLevel,
	}
}

// applyAccountDefaults fills per-account defaults the YAML may omit
func (c *Config) applyAccountDefaults() {
	for i := range c.EmailAccounts {
		acc := &c.EmailAccounts[i]
		if acc.IMAPPort == 0 {
			acc.IMAPPort = DefaultIMAPPort
			acc.UseSSL = true
		}
		if len(acc.FoldersToScan) == 0 {
			acc.FoldersToScan = []string{"INBOX"}
		}
	}
}

// loadFromEnv loads configuration overrides from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("EIA_DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("EIA_API_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("EIA_API_PORT"); val != "" {
		c.Server.Port = val
	}
	if val := os.Getenv("EIA_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("EIA_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("EIA_CATALOG_PATH"); val != "" {
		c.ProductCatalogPath = val
	}
	if val := os.Getenv("EIA_SCAN_INTERVAL_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			c.IMAP.ScanIntervalMinutes = n
		}
	}
	if val := os.Getenv("EIA_AI_API_KEY"); val != "" {
		c.NLP.AI.APIKey = val
	}
}

// Validate checks the configuration before it reaches the scan pipeline.
// The pipeline assumes accounts have already been validated here.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("%w: database url is required", ErrInvalidConfig)
	}
	if len(c.EmailAccounts) == 0 {
		return fmt.Errorf("%w: at least one email account is required", ErrInvalidConfig)
	}
	for i, acc := range c.EmailAccounts {
		if acc.Email == "" || !strings.Contains(acc.Email, "@") {
			return fmt.Errorf("%w: account %d has an invalid email address", ErrInvalidConfig, i)
		}
		if acc.Password == "" {
			return fmt.Errorf("%w: account %s has no password", ErrInvalidConfig, acc.Email)
		}
		if acc.IMAPServer == "" {
			return fmt.Errorf("%w: account %s has no imap_server", ErrInvalidConfig, acc.Email)
		}
		if acc.IMAPPort < 1 || acc.IMAPPort > 65535 {
			return fmt.Errorf("%w: account %s has an invalid imap_port %d", ErrInvalidConfig, acc.Email, acc.IMAPPort)
		}
		for _, folder := range acc.FoldersToScan {
			if strings.TrimSpace(folder) == "" {
				return fmt.Errorf("%w: account %s has an empty folder name", ErrInvalidConfig, acc.Email)
			}
		}
	}
	switch c.NLP.Mode {
	case "local":
	case "ai":
		if c.NLP.AI.APIKey == "" {
			return fmt.Errorf("%w: nlp mode 'ai' requires an api key", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown nlp mode %q", ErrInvalidConfig, c.NLP.Mode)
	}
	if c.NLP.SimilarityThreshold < 0 || c.NLP.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// ScanInterval returns the scheduler interval as a duration
func (c *Config) ScanInterval() time.Duration {
	if c.IMAP.ScanIntervalMinutes <= 0 {
		return DefaultScanIntervalMinutes * time.Minute
	}
	return time.Duration(c.IMAP.ScanIntervalMinutes) * time.Minute
}

// AccountBudget returns the per-account wall-clock budget for one scan
func (c *Config) AccountBudget() time.Duration {
	if c.IMAP.AccountBudgetMinutes <= 0 {
		return DefaultAccountBudgetMinutes * time.Minute
	}
	return time.Duration(c.IMAP.AccountBudgetMinutes) * time.Minute
}

// FindAccount returns the configured account with the given address
func (c *Config) FindAccount(email string) (*EmailAccount, bool) {
	for i := range c.EmailAccounts {
		if c.EmailAccounts[i].Email == email {
			return &c.EmailAccounts[i], true
		}
	}
	return nil, false
}
