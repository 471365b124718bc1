package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Sync         SyncConfig
	Browser      BrowserConfig
	Marktplaats  MarktplaatsConfig
	Vinted       VintedConfig
	Depop        DepopConfig
	Facebook     FacebookConfig
	Ledger       LedgerConfig
	Export       ExportConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// SyncConfig holds the reconciliation sweep configuration
type SyncConfig struct {
	Enabled        bool
	Interval       time.Duration // how often the sweep runs
	SweepTimeout   time.Duration // upper bound for one full sweep
	SoldCheck      bool          // also poll platforms for sales
	SoldCheckSince time.Duration // how far back to ask for sales
}

// BrowserConfig holds shared browser automation settings
type BrowserConfig struct {
	Headless    bool
	UserDataDir string        // persistent profile dir, keeps sessions across restarts
	PageTimeout time.Duration // per-page-action bound
	Proxy       string
}

// MarktplaatsConfig holds Marktplaats API credentials
type MarktplaatsConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// VintedConfig holds Vinted account credentials
type VintedConfig struct {
	Enabled  bool
	Email    string
	Password string
}

// DepopConfig holds Depop account credentials
type DepopConfig struct {
	Enabled  bool
	Username string
	Password string
}

// FacebookConfig holds Facebook Marketplace account credentials
type FacebookConfig struct {
	Enabled  bool
	Email    string
	Password string
}

// LedgerConfig holds the bookkeeping service settings
type LedgerConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ExportConfig holds the sale-row export settings (S3-compatible storage)
type ExportConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	ObjectPrefix    string
	UsePathStyle    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CROSSLISTER_ prefix (e.g., CROSSLISTER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CROSSLISTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Sync: SyncConfig{
			Enabled:        v.GetBool("sync.enabled"),
			Interval:       v.GetDuration("sync.interval"),
			SweepTimeout:   v.GetDuration("sync.sweep_timeout"),
			SoldCheck:      v.GetBool("sync.sold_check"),
			SoldCheckSince: v.GetDuration("sync.sold_check_since"),
		},
		Browser: BrowserConfig{
			Headless:    v.GetBool("browser.headless"),
			UserDataDir: v.GetString("browser.user_data_dir"),
			PageTimeout: v.GetDuration("browser.page_timeout"),
			Proxy:       v.GetString("browser.proxy"),
		},
		Marktplaats: MarktplaatsConfig{
			Enabled:      v.GetBool("marktplaats.enabled"),
			ClientID:     v.GetString("marktplaats.client_id"),
			ClientSecret: v.GetString("marktplaats.client_secret"),
			BaseURL:      v.GetString("marktplaats.base_url"),
			Timeout:      v.GetDuration("marktplaats.timeout"),
		},
		Vinted: VintedConfig{
			Enabled:  v.GetBool("vinted.enabled"),
			Email:    v.GetString("vinted.email"),
			Password: v.GetString("vinted.password"),
		},
		Depop: DepopConfig{
			Enabled:  v.GetBool("depop.enabled"),
			Username: v.GetString("depop.username"),
			Password: v.GetString("depop.password"),
		},
		Facebook: FacebookConfig{
			Enabled:  v.GetBool("facebook.enabled"),
			Email:    v.GetString("facebook.email"),
			Password: v.GetString("facebook.password"),
		},
		Ledger: LedgerConfig{
			Enabled: v.GetBool("ledger.enabled"),
			BaseURL: v.GetString("ledger.base_url"),
			APIKey:  v.GetString("ledger.api_key"),
			Timeout: v.GetDuration("ledger.timeout"),
		},
		Export: ExportConfig{
			Enabled:         v.GetBool("export.enabled"),
			Bucket:          v.GetString("export.bucket"),
			Region:          v.GetString("export.region"),
			Endpoint:        v.GetString("export.endpoint"),
			AccessKeyID:     v.GetString("export.access_key_id"),
			SecretAccessKey: v.GetString("export.secret_access_key"),
			ObjectPrefix:    v.GetString("export.object_prefix"),
			UsePathStyle:    v.GetBool("export.use_path_style"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crosslister-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "crosslister"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 30 * time.Minute
	}
	if cfg.Sync.SweepTimeout == 0 {
		cfg.Sync.SweepTimeout = 20 * time.Minute
	}
	if cfg.Sync.SoldCheckSince == 0 {
		cfg.Sync.SoldCheckSince = 48 * time.Hour
	}
	if cfg.Browser.PageTimeout == 0 {
		cfg.Browser.PageTimeout = 45 * time.Second
	}
	if cfg.Marktplaats.BaseURL == "" {
		cfg.Marktplaats.BaseURL = "https://api.marktplaats.nl"
	}
	if cfg.Marktplaats.Timeout == 0 {
		cfg.Marktplaats.Timeout = 30 * time.Second
	}
	if cfg.Ledger.Timeout == 0 {
		cfg.Ledger.Timeout = 15 * time.Second
	}
	if cfg.Export.Region == "" {
		cfg.Export.Region = "eu-west-1"
	}
	if cfg.Export.ObjectPrefix == "" {
		cfg.Export.ObjectPrefix = "sales"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least one minute")
	}

	if c.Marktplaats.Enabled {
		if c.Marktplaats.ClientID == "" || c.Marktplaats.ClientSecret == "" {
			return fmt.Errorf("marktplaats.client_id and marktplaats.client_secret are required when marktplaats is enabled")
		}
	}
	if c.Vinted.Enabled {
		if c.Vinted.Email == "" || c.Vinted.Password == "" {
			return fmt.Errorf("vinted.email and vinted.password are required when vinted is enabled")
		}
	}
	if c.Depop.Enabled {
		if c.Depop.Username == "" || c.Depop.Password == "" {
			return fmt.Errorf("depop.username and depop.password are required when depop is enabled")
		}
	}
	if c.Facebook.Enabled {
		if c.Facebook.Email == "" || c.Facebook.Password == "" {
			return fmt.Errorf("facebook.email and facebook.password are required when facebook is enabled")
		}
	}
	if c.Ledger.Enabled && c.Ledger.BaseURL == "" {
		return fmt.Errorf("ledger.base_url is required when ledger is enabled")
	}
	if c.Export.Enabled && c.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required when export is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
