// Package wire builds the application's services from configuration.
package wire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/doralyyyyy/Restaurant-Platform/internal/advisor"
	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/cart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/config"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/imaging"
	"github.com/doralyyyyy/Restaurant-Platform/internal/metrics"
	"github.com/doralyyyyy/Restaurant-Platform/internal/server"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg     config.Config
	V       *viper.Viper
	Log     *slog.Logger
	Store   *db.Store
	Metrics *metrics.Metrics
	AI      *advisor.Client
	Advisor *advisor.Advisor
	Cart    *cart.Service
	Uploads *imaging.Uploads

	closer io.Closer
}

// BuildApp wires dependencies from a loaded Viper instance. Sessions are not
// built here because only serve needs a secret; see Server.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	cfg := config.FromViper(v)
	logger := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	store, closer, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	uploads := imaging.New(cfg.UploadDir)
	if err := uploads.EnsureDirs(); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("create upload dirs: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	ai := advisor.NewClient(advisor.Config{
		BaseURL: cfg.GPTBaseURL,
		APIKey:  cfg.GPTAPIKey,
		Model:   cfg.GPTModel,
		Timeout: cfg.GPTTimeout,
	}, m, logger)

	logger.Debug("app built", "db", cfg.DBPath, "uploads", cfg.UploadDir, "metrics", cfg.MetricsEnabled)
	return &App{
		Cfg:     cfg,
		V:       v,
		Log:     logger,
		Store:   store,
		Metrics: m,
		AI:      ai,
		Advisor: advisor.New(store, ai),
		Cart:    cart.NewService(store),
		Uploads: uploads,
		closer:  closer,
	}, nil
}

// Server builds the HTTP server. It fails when the session secret is unusable.
func (a *App) Server() (*server.Server, error) {
	sessions, err := auth.NewSessions(a.Cfg.AuthSecret, a.Cfg.SessionTTL, a.Cfg.CookieSecure)
	if err != nil {
		return nil, err
	}
	return server.New(server.Options{
		Store:     a.Store,
		Sessions:  sessions,
		Cart:      a.Cart,
		Advisor:   a.Advisor,
		Uploads:   a.Uploads,
		Metrics:   a.Metrics,
		Log:       a.Log,
		StaticDir: a.Cfg.UploadDir,
		MaxBody:   a.Cfg.MaxBodyBytes,
	}), nil
}

func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// NewLogger returns a slog logger writing text or JSON at the given level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
