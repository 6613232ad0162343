package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Optional API settings
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	// Optional SSL settings
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`

	// Database settings
	DBDriver    string `mapstructure:"db_driver"` // "sqlite" or "postgres"
	DBPath      string `mapstructure:"db_path"`
	DatabaseURL string `mapstructure:"database_url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`

	// Flash message settings
	FlashStore  string        `mapstructure:"flash_store"` // "signed" or "redis"
	FlashSecret string        `mapstructure:"flash_secret"`
	FlashTTL    time.Duration `mapstructure:"flash_ttl"`

	// Redis settings, used when flash_store is "redis"
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// Optional logging settings
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" or "json"

	ConfigPath string
}

const (
	DefaultConfigPath  = "/etc/userbase/config.yml"
	DefaultAPIHost     = "0.0.0.0"
	DefaultAPIPort     = 3000
	DefaultDBDriver    = DriverSQLite
	DefaultDBPath      = "/var/lib/userbase/db.sqlite3"
	DefaultFlashStore  = FlashStoreSigned
	DefaultFlashTTL    = time.Minute
	DefaultRedisAddr   = "localhost:6379"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DriverSQLite       = "sqlite"
	DriverPostgres     = "postgres"
	FlashStoreSigned   = "signed"
	FlashStoreRedis    = "redis"
	minFlashSecretSize = 16
)

// Load reads the configuration file and USERBASE_* environment overrides.
// A missing file is only an error when configPath was given explicitly.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_port", DefaultAPIPort)
	v.SetDefault("ssl_cert", "")
	v.SetDefault("ssl_key", "")
	v.SetDefault("db_driver", DefaultDBDriver)
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("database_url", "")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("flash_store", DefaultFlashStore)
	v.SetDefault("flash_secret", "")
	v.SetDefault("flash_ttl", DefaultFlashTTL)
	v.SetDefault("redis_addr", DefaultRedisAddr)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)

	// Allow environment variable overrides
	v.SetEnvPrefix("USERBASE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigPath = configPath
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	cfg.FlashStore = strings.ToLower(cfg.FlashStore)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("db_driver must be 'sqlite' or 'postgres'")
	}

	switch c.FlashStore {
	case FlashStoreSigned:
		// An empty secret is replaced with a random one at startup.
		if c.FlashSecret != "" && len(c.FlashSecret) < minFlashSecretSize {
			return fmt.Errorf("flash_secret must be at least %d characters", minFlashSecretSize)
		}
	case FlashStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis flash store")
		}
	default:
		return fmt.Errorf("flash_store must be 'signed' or 'redis'")
	}

	if c.FlashTTL <= 0 {
		return fmt.Errorf("flash_ttl must be positive")
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port must be between 1 and 65535")
	}

	// Validate SSL config if provided
	if c.SSLCert != "" || c.SSLKey != "" {
		if c.SSLCert == "" || c.SSLKey == "" {
			return fmt.Errorf("both ssl_cert and ssl_key must be provided")
		}
		if _, err := os.Stat(c.SSLCert); os.IsNotExist(err) {
			return fmt.Errorf("ssl_cert file does not exist: %s", c.SSLCert)
		}
		if _, err := os.Stat(c.SSLKey); os.IsNotExist(err) {
			return fmt.Errorf("ssl_key file does not exist: %s", c.SSLKey)
		}
	}

	return nil
}

// DSN is the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

func (c *Config) IsDevMode() bool {
	return os.Getenv("USERBASE_DEV_MODE") == "1"
}
