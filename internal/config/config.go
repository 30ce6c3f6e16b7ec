package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"QuoteLedger/internal/credentials"
	"QuoteLedger/internal/recorder"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	DataSource struct {
		BaseURL      string        `yaml:"base_url"`
		Symbol       string        `yaml:"symbol"`
		QuoteTimeout time.Duration `yaml:"quote_timeout"`
	} `yaml:"data_source"`
	Credentials struct {
		InstanceIDVar string `yaml:"instance_id_var"`
		SecretsFile   string `yaml:"secrets_file"`
		SecretKey     string `yaml:"secret_key"`
		EnvVar        string `yaml:"env_var"`
	} `yaml:"credentials"`
	Storage struct {
		Driver       string        `yaml:"driver"`
		SQLitePath   string        `yaml:"sqlite_path"`
		DSN          string        `yaml:"dsn"`
		DSNEnv       string        `yaml:"dsn_env"`
		Table        string        `yaml:"table"`
		PartitionKey string        `yaml:"partition_key"`
		StoreTimeout time.Duration `yaml:"store_timeout"`
	} `yaml:"storage"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TIMER_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("QUOTE_SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 */5 * * * *"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "MSFT"
	}
	if cfg.DataSource.QuoteTimeout == 0 {
		cfg.DataSource.QuoteTimeout = 10 * time.Second
	}
	if cfg.Credentials.InstanceIDVar == "" {
		cfg.Credentials.InstanceIDVar = "WEBSITE_INSTANCE_ID"
	}
	if cfg.Credentials.SecretsFile == "" {
		cfg.Credentials.SecretsFile = ".secrets.env"
	}
	if cfg.Credentials.SecretKey == "" {
		cfg.Credentials.SecretKey = "FINNHUB_CLIENT_KEY"
	}
	if cfg.Credentials.EnvVar == "" {
		cfg.Credentials.EnvVar = "FINNHUB_CLIENT_KEY"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = recorder.DriverSQLite
	}
	if cfg.Storage.DSNEnv == "" {
		cfg.Storage.DSNEnv = "AzureWebJobsStorage"
	}
	cfg.Storage.DSN = cfg.storageDSN()
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "values"
	}
	if cfg.Storage.PartitionKey == "" {
		cfg.Storage.PartitionKey = "TestPartitionKey"
	}
	if cfg.Storage.StoreTimeout == 0 {
		cfg.Storage.StoreTimeout = 10 * time.Second
	}

	return cfg, nil
}

// storageDSN picks the store address for the selected driver. sqlite reads
// only its path settings; network drivers prefer $dsn_env over storage.dsn.
// STORAGE_DSN overrides both.
func (c *Config) storageDSN() string {
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		return v
	}
	switch c.Storage.Driver {
	case recorder.DriverMemory:
		return ""
	case recorder.DriverSQLite:
		if v := os.Getenv("SQLITE_PATH"); v != "" {
			return v
		}
		if c.Storage.SQLitePath != "" {
			return c.Storage.SQLitePath
		}
		return "data/quotes.db"
	}
	if v := os.Getenv(c.Storage.DSNEnv); v != "" {
		return v
	}
	return c.Storage.DSN
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if _, err := ParseSchedule(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.QuoteTimeout < 0 || c.Storage.StoreTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	switch c.Storage.Driver {
	case recorder.DriverMemory, recorder.DriverSQLite, recorder.DriverPostgres, recorder.DriverAzTables:
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Driver != recorder.DriverMemory && c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn or $%s is required for driver %s",
			credentials.ErrConfigurationMissing, c.Storage.DSNEnv, c.Storage.Driver)
	}
	if c.Storage.PartitionKey == "" {
		return fmt.Errorf("storage.partition_key is required")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// CredentialsConfig returns the resolver settings.
func (c *Config) CredentialsConfig() credentials.Config {
	return credentials.Config{
		InstanceIDVar: c.Credentials.InstanceIDVar,
		SecretsFile:   c.Credentials.SecretsFile,
		SecretKey:     c.Credentials.SecretKey,
		EnvVar:        c.Credentials.EnvVar,
	}
}

// ParseSchedule parses a six-field cron expression (seconds first).
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	).Parse(spec)
}
