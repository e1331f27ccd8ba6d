package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autofill-workbench/internal/domain"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultServerPort     = "8080"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 50 * 1024 * 1024 // 50MB
	DefaultAPIBase        = "http://localhost:8000"
	DefaultRequestTimeout = 120 * time.Second
	DefaultSessionTTL     = 2 * time.Hour
	DefaultArchiveBucket  = "filled-forms"
)

// DefaultAllowedOrigins are the local dev servers that talk to the API.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://localhost:4173", // Vite preview
	"http://localhost:3000", // Alternative dev port
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	MaxFileSize    int64
	APIBase        string
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	AllowedOrigins []string
	SupabaseURL    string
	SupabaseKey    string
	ArchiveBucket  string
}

// NewConfig loads configuration from the environment only. Invalid values
// fall back to defaults.
func NewConfig() domain.Config {
	cfg, err := Load(nil)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a configuration with the built-in defaults
func DefaultConfig() *AppConfig {
	return &AppConfig{
		ServerPort:     DefaultServerPort,
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
		APIBase:        DefaultAPIBase,
		RequestTimeout: DefaultRequestTimeout,
		SessionTTL:     DefaultSessionTTL,
		AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		ArchiveBucket:  DefaultArchiveBucket,
	}
}

// Load reads configuration from command line args, then the environment,
// then the defaults, in that order of precedence.
func Load(args []string) (*AppConfig, error) {
	v := viper.New()
	fs := pflag.NewFlagSet("autofill-workbench", pflag.ContinueOnError)

	setupDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	defineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	cfg := &AppConfig{
		ServerPort:     strings.TrimSpace(v.GetString("port")),
		LogLevel:       strings.TrimSpace(v.GetString("log-level")),
		MaxFileSize:    v.GetInt64("max-file-size"),
		APIBase:        strings.TrimRight(strings.TrimSpace(v.GetString("api-base")), "/"),
		RequestTimeout: v.GetDuration("request-timeout"),
		SessionTTL:     v.GetDuration("session-ttl"),
		AllowedOrigins: splitList(v.GetString("allowed-origins")),
		SupabaseURL:    strings.TrimSpace(v.GetString("supabase-url")),
		SupabaseKey:    strings.TrimSpace(v.GetString("supabase-key")),
		ArchiveBucket:  strings.TrimSpace(v.GetString("archive-bucket")),
	}

	// Unparsable numbers come back as zero from viper.
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	// An explicit zero disables the per-call deadline.
	if cfg.RequestTimeout < 0 || (cfg.RequestTimeout == 0 && !isZeroDuration(v.GetString("request-timeout"))) {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string(nil), DefaultAllowedOrigins...)
	}
	if cfg.ArchiveBucket == "" {
		cfg.ArchiveBucket = DefaultArchiveBucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func isZeroDuration(raw string) bool {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	return err == nil && d == 0
}

func setupDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultServerPort)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("max-file-size", DefaultMaxFileSize)
	v.SetDefault("api-base", DefaultAPIBase)
	v.SetDefault("request-timeout", DefaultRequestTimeout)
	v.SetDefault("session-ttl", DefaultSessionTTL)
	v.SetDefault("allowed-origins", strings.Join(DefaultAllowedOrigins, ","))
	v.SetDefault("archive-bucket", DefaultArchiveBucket)
}

// bindEnv maps keys to environment variables. When several variables are
// listed, the first non-empty one wins.
func bindEnv(v *viper.Viper) error {
	bindings := [][]string{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		{"port", "PORT", "SERVER_PORT"},
		{"log-level", "LOG_LEVEL"},
		{"max-file-size", "MAX_FILE_SIZE"},
		{"api-base", "AUTOFILL_API_BASE", "VITE_API_BASE"},
		{"request-timeout", "REQUEST_TIMEOUT"},
		{"session-ttl", "SESSION_TTL"},
		{"allowed-origins", "ALLOWED_ORIGINS"},
		{"supabase-url", "SUPABASE_URL"},
		{"supabase-key", "SUPABASE_ANON_KEY"},
		{"archive-bucket", "ARCHIVE_BUCKET"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind env %s: %w", b[0], err)
		}
	}
	return nil
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String("port", DefaultServerPort, "HTTP listen port")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", DefaultMaxFileSize, "Maximum upload size in bytes")
	fs.String("api-base", DefaultAPIBase, "Base URL of the extraction/fill backend")
	fs.Duration("request-timeout", DefaultRequestTimeout, "Deadline for each backend call")
	fs.Duration("session-ttl", DefaultSessionTTL, "Idle time after which a session is dropped")
	fs.String("allowed-origins", strings.Join(DefaultAllowedOrigins, ","), "Comma separated CORS origins")
	fs.String("supabase-url", "", "Supabase project URL (enables the fill archive)")
	fs.String("supabase-key", "", "Supabase anon key")
	fs.String("archive-bucket", DefaultArchiveBucket, "Storage bucket for archived fills")
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base %q must be an absolute http(s) URL", c.APIBase)
	}

	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		return errors.New("supabase URL and key must be provided together")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetAPIBase returns the backend base URL without trailing slash
func (c *AppConfig) GetAPIBase() string {
	return c.APIBase
}

// GetRequestTimeout returns the per-call backend deadline; zero means none
func (c *AppConfig) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

// GetSessionTTL returns the idle session lifetime
func (c *AppConfig) GetSessionTTL() time.Duration {
	return c.SessionTTL
}

// GetAllowedOrigins returns the CORS allow-list
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetArchiveBucket returns the storage bucket used by the fill archive
func (c *AppConfig) GetArchiveBucket() string {
	return c.ArchiveBucket
}
