package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/newthinker/macrolens/internal/app"
	"github.com/newthinker/macrolens/internal/config"
	"github.com/newthinker/macrolens/internal/logger"
	"github.com/newthinker/macrolens/internal/metrics"
	"github.com/newthinker/macrolens/internal/notifier/telegram"
	"github.com/newthinker/macrolens/internal/notifier/webhook"
	"github.com/newthinker/macrolens/internal/storage/archive"
	"github.com/newthinker/macrolens/internal/storage/history"
	"go.uber.org/zap"
)

// loadConfig reads .env, then the config file or defaults, and validates.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(debug || cfg.Log.Development, cfg.Log.Level)
}

// runtime is a wired app with the resources it owns.
type runtime struct {
	app     *app.App
	metrics *metrics.Registry
	history history.Store
}

func (r *runtime) Close() error {
	return r.history.Close()
}

// buildRuntime wires storage, notifiers and metrics into a new app.
func buildRuntime(cfg *config.Config, log *zap.Logger) (*runtime, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	store, err := history.Open(cfg.Storage.History.DSN, cfg.Storage.History.MemoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("opening report history: %w", err)
	}
	a.SetHistory(store)
	rt := &runtime{app: a, history: store}

	arch, err := archive.New(cfg.Storage.Archive)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("creating report archive: %w", err)
	}
	if arch != nil {
		a.SetArchive(arch)
		log.Info("report archive enabled", zap.String("type", cfg.Storage.Archive.Type))
	}

	if err := registerNotifiers(a, cfg.Notifiers, log); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		rt.metrics = metrics.NewRegistry()
		a.SetMetrics(rt.metrics)
	}

	return rt, nil
}

func registerNotifiers(a *app.App, cfg config.NotifiersConfig, log *zap.Logger) error {
	if cfg.Webhook.Enabled {
		wh, err := webhook.New(cfg.Webhook.URL, cfg.Webhook.Headers)
		if err != nil {
			return fmt.Errorf("creating webhook notifier: %w", err)
		}
		if err := a.RegisterNotifier(wh); err != nil {
			return err
		}
		log.Info("notifier registered", zap.String("notifier", wh.Name()))
	}

	if cfg.Telegram.Enabled {
		tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return fmt.Errorf("creating telegram notifier: %w", err)
		}
		if err := a.RegisterNotifier(tg); err != nil {
			return err
		}
		log.Info("notifier registered", zap.String("notifier", tg.Name()))
	}

	return nil
}
