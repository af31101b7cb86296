package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the reference word list server configuration
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	HTTPPort       int    `mapstructure:"http_port"`
	Tokens         string `mapstructure:"tokens"`
	Store          string `mapstructure:"store"`
	DatabaseURL    string `mapstructure:"database_url"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the local store configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// RemoteConfig holds the remote word list API configuration
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds sync manager configuration
type SyncConfig struct {
	UserID         string `mapstructure:"user_id"`
	SerializeReads bool   `mapstructure:"serialize_reads"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.tokens", "")
	viper.SetDefault("server.store", "memory")
	viper.SetDefault("server.database_url", "")
	viper.SetDefault("server.allowed_origins", "*")

	// Database defaults
	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.dsn", "file:vocsync.db?_fk=1")
	viper.SetDefault("database.log_sql", false)

	// Remote defaults
	viper.SetDefault("remote.base_url", "")
	viper.SetDefault("remote.token", "")
	viper.SetDefault("remote.timeout", 10*time.Second)

	// Sync defaults
	viper.SetDefault("sync.user_id", "local")
	viper.SetDefault("sync.serialize_reads", false)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// DatabaseDriver returns the normalized local store driver name.
func (c *Config) DatabaseDriver() (string, error) {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql", "pgx":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// DatabaseURL returns the local store connection string
func (c *Config) DatabaseURL() (string, error) {
	dsn := strings.TrimSpace(c.Database.DSN)
	if dsn == "" {
		return "", fmt.Errorf("database dsn is empty")
	}
	return dsn, nil
}

// ServerTokens parses "token:user" pairs into a token to user id lookup.
func (c *Config) ServerTokens() (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(c.Server.Tokens, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			return nil, fmt.Errorf("invalid server token %q, expected token:user", pair)
		}
		tokens[token] = user
	}
	return tokens, nil
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.Server.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
