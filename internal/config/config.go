// Package config loads server configuration from flags, the environment and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Session SessionConfig
	Auth    AuthConfig
	View    ViewConfig
	Catalog CatalogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates everything the server persists.
type DataConfig struct {
	BasePath string // database, session store and key live under here
}

// DatabasePath is the SQLite record store file.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "awbooks.db") }

// SessionsPath is the Badger session store directory.
func (d DataConfig) SessionsPath() string { return filepath.Join(d.BasePath, "sessions") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// CORSOrigins lists origins allowed to read the JSON endpoints. Empty allows any.
	CORSOrigins []string
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// SessionConfig holds cookie session configuration.
type SessionConfig struct {
	// Secret, when set, derives the cookie key. Otherwise a random key is
	// generated once and kept in the data directory.
	Secret       string
	Duration     time.Duration
	CookieName   string
	CookieSecure bool
}

// AuthConfig configures the external identity provider.
type AuthConfig struct {
	GoogleClientID string
	Verifier       string // "tokeninfo" or "local"
	TokenInfoURL   string
	VerifyTimeout  time.Duration
	LoginRate      float64 // requests per second per client on /login and /gconnect
	LoginBurst     int
}

// ViewConfig controls HTML templates.
type ViewConfig struct {
	TemplatesDir string // empty uses the embedded templates
}

// CatalogConfig holds catalog behavior switches.
type CatalogConfig struct {
	SeedCategories bool
}

const (
	VerifierTokenInfo = "tokeninfo"
	VerifierLocal     = "local"
)

// LoadConfig loads configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("awbooks", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database and session store")
	host := fs.String("host", "", "Bind host (default: 0.0.0.0)")
	port := fs.String("port", "", "Server port (default: 8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	sessionSecret := fs.String("session-secret", "", "Secret used to derive the session cookie key")
	sessionDuration := fs.String("session-duration", "", "Session lifetime (default: 720h)")
	clientID := fs.String("google-client-id", "", "Google OAuth client id")
	verifier := fs.String("auth-verifier", "", "ID token verifier: tokeninfo or local")
	templatesDir := fs.String("templates-dir", "", "Load templates from disk and reload on change")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated origins allowed to read the JSON endpoints (default: any)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is fine; godotenv never overrides variables already set.
	_ = godotenv.Load(*envFile)

	environment := getConfigValue(*env, "ENV", "development")

	cfg := &Config{
		App:    AppConfig{Environment: environment},
		Logger: LoggerConfig{Level: getConfigValue(*logLevel, "LOG_LEVEL", "info")},
		Data:   DataConfig{BasePath: getConfigValue(*dataPath, "DATA_PATH", "")},
		Server: ServerConfig{
			Host:        getConfigValue(*host, "SERVER_HOST", "0.0.0.0"),
			Port:        getConfigValue(*port, "SERVER_PORT", "8000"),
			CORSOrigins: getListConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS"),
		},
		Session: SessionConfig{
			Secret:       getConfigValue(*sessionSecret, "SESSION_SECRET", ""),
			CookieName:   getConfigValue("", "SESSION_COOKIE", "awbooks_session"),
			CookieSecure: getBoolConfigValue("", "COOKIE_SECURE", environment == "production"),
		},
		Auth: AuthConfig{
			GoogleClientID: getConfigValue(*clientID, "GOOGLE_CLIENT_ID", ""),
			Verifier:       strings.ToLower(getConfigValue(*verifier, "AUTH_VERIFIER", VerifierTokenInfo)),
			TokenInfoURL:   getConfigValue("", "AUTH_TOKENINFO_URL", "https://www.googleapis.com/oauth2/v3/tokeninfo"),
			LoginRate:      getFloatConfigValue("", "LOGIN_RATE_LIMIT", 1),
			LoginBurst:     getIntConfigValue("", "LOGIN_RATE_BURST", 10),
		},
		View:    ViewConfig{TemplatesDir: getConfigValue(*templatesDir, "TEMPLATES_DIR", "")},
		Catalog: CatalogConfig{SeedCategories: getBoolConfigValue("", "SEED_CATEGORIES", environment == "development")},
	}

	durations := []struct {
		flagValue, key, def string
		dst                 *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*sessionDuration, "SESSION_DURATION", "720h", &cfg.Session.Duration},
		{"", "AUTH_VERIFY_TIMEOUT", "10s", &cfg.Auth.VerifyTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if cfg.View.TemplatesDir != "" {
		dir, err := expandPath(cfg.View.TemplatesDir, "")
		if err != nil {
			return nil, fmt.Errorf("invalid templates dir: %w", err)
		}
		cfg.View.TemplatesDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Auth.Verifier {
	case VerifierTokenInfo:
	case VerifierLocal:
		if c.Auth.GoogleClientID == "" {
			return errors.New("GOOGLE_CLIENT_ID is required with the local verifier")
		}
	default:
		return fmt.Errorf("invalid auth verifier: %s (must be tokeninfo or local)", c.Auth.Verifier)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Session.Duration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		return errors.New("login rate limit and burst must be positive")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "AWBooks"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (any case) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	raw = strings.ToLower(raw)
	return raw == "true" || raw == "1" || raw == "yes"
}

// getListConfigValue splits a comma-separated value, dropping blanks.
func getListConfigValue(flagValue, envKey string) []string {
	var out []string
	for _, part := range strings.Split(getConfigValue(flagValue, envKey, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
