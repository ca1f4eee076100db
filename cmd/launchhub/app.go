package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dikkadev/launchhub/pkg/config"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/hub"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/storage"
	"github.com/dikkadev/launchhub/pkg/updater"
)

// app holds the wired core for one command invocation
type app struct {
	cfg       *config.Config
	settings  *config.Settings
	registry  *registry.Store
	lifecycle *lifecycle.Controller
	resolver  *updater.Resolver
	history   storage.Storage
	service   *hub.Service

	closers []io.Closer
}

// loadConfig reads the configuration and applies the --root flag
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid root %s: %w", rootFlag, err)
		}
		cfg.RootDir = abs
	}
	return cfg, nil
}

// newApp wires the core. The caller must Close it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	a := &app{cfg: cfg}
	dirs := cfg.GetDirectories()

	if f, err := logging.TeeToFile(dirs.Logs, "launchhub.log"); err != nil {
		log.WithError(err).Warn("Logging to file disabled")
	} else {
		a.closers = append(a.closers, f)
	}

	a.settings = config.LoadSettings(cfg.SettingsPath())
	a.registry = registry.New(cfg.RegistryPath())
	a.lifecycle = lifecycle.New(a.registry, lifecycle.Options{
		Root:        cfg.RootDir,
		InstallRoot: cfg.InstallRoot(a.settings),
	})

	var opts []github.Option
	if cfg.GitHubAPIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHubAPIURL))
	}
	a.resolver = updater.New(github.NewClient(cfg.GitHubToken, opts...))

	if !noHistory {
		db, err := storage.NewLibSQL("file:" + filepath.Join(dirs.DB, "launchhub.db"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.closers = append(a.closers, db)
		if err := db.Initialize(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.history = db
	}

	a.service = hub.New(hub.Options{
		Registry:     a.registry,
		Lifecycle:    a.lifecycle,
		Resolver:     a.resolver,
		History:      a.history,
		SettingsPath: cfg.SettingsPath(),
	})
	return a, nil
}

// Close releases the database and the log file
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// withApp runs fn with a wired core
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
