package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NodeConfig locates the eclair admin API
type NodeConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// PollConfig tunes the aggregation loop
type PollConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AuditLookback time.Duration `mapstructure:"auditLookback"`
	InitialWidth  int           `mapstructure:"initialWidth"`
}

// ServerConfig is the HTTP listener for the dashboard API
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// ArchiveConfig is the local history database
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggerConfig controls log output
type LoggerConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config is the full daemon configuration
type Config struct {
	Path string

	Node    NodeConfig    `mapstructure:"node"`
	Poll    PollConfig    `mapstructure:"poll"`
	Server  ServerConfig  `mapstructure:"server"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// Load reads configuration from the given YAML file, with environment
// overrides for secrets and the most common knobs. The API password is only
// ever taken from the environment or the file, never a flag.
func Load(path string) (*Config, error) {
	v := viper.New()

	filename := filepath.Base(path)
	v.AddConfigPath(filepath.Dir(path))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("node.url", "http://127.0.0.1:8080")
	v.SetDefault("node.user", "")
	v.SetDefault("poll.interval", 20*time.Second)
	v.SetDefault("poll.auditLookback", 30*24*time.Hour)
	v.SetDefault("poll.initialWidth", 80)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.path", "./eclair-dashboard.db")
	v.SetDefault("logger.level", "info")

	v.BindEnv("node.url", "ECLAIR_API_URL")
	v.BindEnv("node.password", "ECLAIR_API_PASSWORD")
	v.BindEnv("logger.level", "DASHBOARD_LOG_LEVEL")
	v.BindEnv("poll.interval", "DASHBOARD_POLL_INTERVAL")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env vars and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Path = path

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) validate() error {
	if c.Node.URL == "" {
		return fmt.Errorf("node.url is required")
	}
	if c.Node.Password == "" {
		return fmt.Errorf("node password is required (set ECLAIR_API_PASSWORD)")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.AuditLookback <= 0 {
		return fmt.Errorf("poll.auditLookback must be positive")
	}
	if c.Poll.InitialWidth <= 2 {
		return fmt.Errorf("poll.initialWidth must exceed the chart margin")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required when the archive is enabled")
	}
	return nil
}

// ListenAddr is the host:port the API server binds
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
