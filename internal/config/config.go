// Package config resolves settings from defaults, a TOML file and
// RESTAURANT_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// SetConfigFile upstream wins; these paths are fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "restaurant"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "restaurant"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// A missing file is fine; a broken one is not.
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: RESTAURANT_* (highest among these sources)
	v.SetEnvPrefix("restaurant")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return nil
}

// defaultDataDir resolves $XDG_DATA_HOME/restaurant or ~/.local/share/restaurant.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "restaurant")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "restaurant")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "restaurant", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/restaurant.db unless db_path is set"},
		{Key: "db_path", Default: "", Comment: "Explicit sqlite file; empty means data_dir/restaurant.db"},
		{Key: "upload_dir", Default: "", Comment: "Static root holding uploads/; empty means data_dir/static"},
		{Key: "http_addr", Default: ":5001", Comment: "HTTP listen address"},

		{Key: "http.max_body_mb", Default: 10, Comment: "Largest accepted request body, in MiB"},
		{Key: "http.tls_domains", Default: []string{}, Comment: "Serve HTTPS with automatic certificates for these domains"},
		{Key: "http.tls_email", Default: "", Comment: "ACME account email used with http.tls_domains"},

		{Key: "auth.secret", Default: "", Comment: "Session signing secret; required for serve"},
		{Key: "auth.cookie_secure", Default: false, Comment: "Mark the session cookie Secure"},
		{Key: "auth.session_hours", Default: 24, Comment: "Session lifetime in hours"},

		{Key: "gpt.base_url", Default: "https://api.openai.com/v1", Comment: "OpenAI-compatible API root; /chat/completions is appended"},
		{Key: "gpt.api_key", Default: "", Comment: "API key for the advisor; empty disables it"},
		{Key: "gpt.model", Default: "gpt-5", Comment: "Model name sent with every advisor request"},
		{Key: "gpt.timeout_seconds", Default: 30, Comment: "Advisor request timeout"},

		{Key: "log.level", Default: "info", Comment: "debug, info, warn or error"},
		{Key: "log.format", Default: "text", Comment: "text or json"},

		{Key: "metrics.enabled", Default: true, Comment: "Expose Prometheus metrics on /metrics"},
	}
}

// Config is the typed view of a loaded Viper instance.
type Config struct {
	DataDir   string
	DBPath    string
	UploadDir string
	HTTPAddr  string

	MaxBodyBytes int64
	TLSDomains   []string
	TLSEmail     string

	AuthSecret   string
	CookieSecure bool
	SessionTTL   time.Duration

	GPTBaseURL string
	GPTAPIKey  string
	GPTModel   string
	GPTTimeout time.Duration

	LogLevel  string
	LogFormat string

	MetricsEnabled bool
}

// FromViper snapshots v into a Config, resolving derived paths.
func FromViper(v *viper.Viper) Config {
	return Config{
		DataDir:        expandHome(v.GetString("data_dir")),
		DBPath:         ResolveDBPath(v),
		UploadDir:      ResolveUploadDir(v),
		HTTPAddr:       v.GetString("http_addr"),
		MaxBodyBytes:   v.GetInt64("http.max_body_mb") << 20,
		TLSDomains:     v.GetStringSlice("http.tls_domains"),
		TLSEmail:       v.GetString("http.tls_email"),
		AuthSecret:     v.GetString("auth.secret"),
		CookieSecure:   v.GetBool("auth.cookie_secure"),
		SessionTTL:     time.Duration(v.GetInt("auth.session_hours")) * time.Hour,
		GPTBaseURL:     v.GetString("gpt.base_url"),
		GPTAPIKey:      v.GetString("gpt.api_key"),
		GPTModel:       v.GetString("gpt.model"),
		GPTTimeout:     time.Duration(v.GetInt("gpt.timeout_seconds")) * time.Second,
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		MetricsEnabled: v.GetBool("metrics.enabled"),
	}
}

// ResolveDBPath returns db_path when set, otherwise data_dir/restaurant.db.
func ResolveDBPath(v *viper.Viper) string {
	if p := strings.TrimSpace(v.GetString("db_path")); p != "" {
		return expandHome(p)
	}
	return filepath.Join(dataDir(v), "restaurant.db")
}

// ResolveUploadDir returns the static root that uploads/ lives under.
func ResolveUploadDir(v *viper.Viper) string {
	if p := strings.TrimSpace(v.GetString("upload_dir")); p != "" {
		return expandHome(p)
	}
	return filepath.Join(dataDir(v), "static")
}

func dataDir(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	return expandHome(dir)
}

// expandHome expands a leading ~ for convenience.
func expandHome(dir string) string {
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
