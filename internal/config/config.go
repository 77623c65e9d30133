package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	CSVFile     string
	LoadTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load reads the configuration from the environment. Values from a .env
// file in the working directory are applied first; variables already set
// in the process environment win. Malformed values are errors, not
// silently replaced by defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var e env
	cfg := &Config{
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "localhost"),
			Port:            e.integer("SERVER_PORT", 8501),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: e.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			CSVFile:     e.str("CSV_FILE", "all_data.csv"),
			LoadTimeout: e.duration("CSV_LOAD_TIMEOUT", 60*time.Second),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(e.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(e.str("LOG_FORMAT", "json")),
		},
		Security: SecurityConfig{
			EnableRateLimit: e.boolean("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    e.integer("SECURITY_RATE_LIMIT_RPS", 50),
			RateLimitBurst:  e.integer("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  e.list("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8501"}),
			TrustedProxies:  e.list("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := errors.Join(append(e.errs, cfg.validate())...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Server
	check(s.Port >= 1 && s.Port <= 65535, "server port must be between 1 and 65535, got %d", s.Port)
	check(s.ReadTimeout > 0, "server read timeout must be positive")
	check(s.WriteTimeout > 0, "server write timeout must be positive")
	check(s.IdleTimeout >= 0, "server idle timeout cannot be negative")
	check(s.ShutdownTimeout > 0, "server shutdown timeout must be positive")

	check(c.Dataset.CSVFile != "", "CSV file path cannot be empty")
	check(c.Dataset.LoadTimeout > 0, "CSV load timeout must be positive")

	check(slices.Contains(logLevels, c.Logger.Level),
		"invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(logLevels, ", "))
	check(slices.Contains(logFormats, c.Logger.Format),
		"invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(logFormats, ", "))

	sec := c.Security
	if sec.EnableRateLimit {
		check(sec.RateLimitRPS > 0, "rate limit RPS must be positive")
		check(sec.RateLimitBurst > 0, "rate limit burst must be positive")
	}
	for _, origin := range sec.AllowedOrigins {
		check(validOrigin(origin), "allowed origin %q must be \"*\" or an http(s) scheme and host", origin)
	}
	for _, proxy := range sec.TrustedProxies {
		check(net.ParseIP(proxy) != nil, "trusted proxy %q is not an IP address", proxy)
	}

	return errors.Join(errs...)
}

func validOrigin(origin string) bool {
	if origin == "*" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && (u.Path == "" || u.Path == "/")
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// env reads typed variables and keeps one error per malformed value.
type env struct {
	errs []error
}

func (e *env) lookup(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func (e *env) str(key, def string) string {
	if value, ok := e.lookup(key); ok {
		return value
	}
	return def
}

func (e *env) integer(key string, def int) int { return parse(e, key, def, strconv.Atoi) }

func (e *env) boolean(key string, def bool) bool { return parse(e, key, def, strconv.ParseBool) }

func (e *env) duration(key string, def time.Duration) time.Duration {
	return parse(e, key, def, time.ParseDuration)
}

// list splits a comma separated value, dropping empty entries.
func (e *env) list(key string, def []string) []string {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func parse[T any](e *env, key string, def T, fn func(string) (T, error)) T {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := fn(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: cannot parse %q", key, value))
		return def
	}
	return v
}
