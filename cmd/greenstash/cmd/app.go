package cmd

import (
	"os"

	"github.com/greenstash/greenstash/internal/app"
	"github.com/greenstash/greenstash/internal/config"
	"github.com/greenstash/greenstash/internal/logger"
)

// withApp loads configuration and runs fn against a fully wired app.
// Logs go to stderr so stdout can carry exported backups.
func withApp(fn func(a *app.App) error) error {
	cfg := config.Load()

	flush := logger.Init(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
	defer flush()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
