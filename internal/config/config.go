// Package config loads the credentials file and validates run arguments.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/telhawk-systems/logblock/internal/models"
)

const (
	// DefaultConfigPath is used when --config is not given.
	DefaultConfigPath = "conf/parser.conf"

	defaultPort     = 5432
	defaultDatabase = "web_log_data"
)

// Config is the content of the credentials file plus optional integrations.
type Config struct {
	Type     string        `mapstructure:"type"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	IP       string        `mapstructure:"ip"`
	Port     int           `mapstructure:"port"`
	Database string        `mapstructure:"database"`
	SSLMode  string        `mapstructure:"sslmode"`
	Log      LoggingConfig `mapstructure:"log"`
	NATS     NATSConfig    `mapstructure:"nats"`
	Redis    RedisConfig   `mapstructure:"redis"`
	Metrics  MetricsConfig `mapstructure:"metrics"`

	path string
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NATSConfig enables publishing block decisions when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// RedisConfig enables the Redis blocklist when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

// MetricsConfig enables the Prometheus textfile export when File is set.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// ConnectionConfig is the opaque set of values needed to reach the store.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// ConnString renders a postgres:// URL usable by pgx and golang-migrate.
func (c ConnectionConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Path returns the file the configuration was read from.
func (c *Config) Path() string {
	return c.path
}

// UsesPostgres reports whether the postgres store is configured.
func (c *Config) UsesPostgres() bool {
	return c.Type != "memory"
}

// Connection derives the connection values. The "ip" key keeps the
// host[:port][/database] form of the original credentials file; explicit
// "port" and "database" keys take precedence over the embedded parts.
func (c *Config) Connection() ConnectionConfig {
	host, port, db := splitAddress(c.IP)

	if c.Port != 0 {
		port = c.Port
	}
	if c.Database != "" {
		db = c.Database
	}
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = defaultPort
	}
	if db == "" {
		db = defaultDatabase
	}

	return ConnectionConfig{
		Host:     host,
		Port:     port,
		Database: db,
		User:     c.User,
		Password: c.Password,
		SSLMode:  c.SSLMode,
	}
}

func splitAddress(addr string) (host string, port int, db string) {
	addr = strings.TrimSpace(addr)
	if i := strings.Index(addr, "/"); i >= 0 {
		db = addr[i+1:]
		addr = addr[:i]
	}

	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return strings.Trim(addr, "[]"), 0, db
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return h, 0, db
	}
	return h, n, db
}

// Load reads the credentials file at path (DefaultConfigPath when empty).
// The file uses key:value lines with # comments.
// Environment variables override file values (LOGBLOCK_PASSWORD, LOGBLOCK_NATS_URL, etc.).
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	codecs := viper.NewCodecRegistry()
	if err := codecs.RegisterCodec(credentialsFormat, credentialsCodec{}); err != nil {
		return nil, fmt.Errorf("failed to register config codec: %w", err)
	}
	v := viper.NewWithOptions(viper.WithCodecRegistry(codecs))

	// Set defaults
	v.SetDefault("type", "postgres")
	v.SetDefault("sslmode", "disable")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("nats.subject", "logblock.blocked")
	v.SetDefault("redis.key", "logblock:blocked")

	v.SetConfigFile(path)
	v.SetConfigType(credentialsFormat)

	// Environment variables override (LOGBLOCK_USER, LOGBLOCK_REDIS_URL, etc.)
	v.SetEnvPrefix("LOGBLOCK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Keys without defaults must be bound for env overrides to reach Unmarshal
	for _, key := range []string{"user", "password", "ip", "port", "database", "nats.url", "redis.url", "metrics.file"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &models.SourceUnavailableError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = path

	return &cfg, nil
}
