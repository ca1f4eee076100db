package hub

import (
	"context"
	"time"

	"github.com/dikkadev/launchhub/pkg/config"
)

const (
	// DefaultWatchInterval is the period between automatic checks
	DefaultWatchInterval = 30 * time.Minute
	// DefaultStartupDelay postpones the first automatic check
	DefaultStartupDelay = 5 * time.Second
)

// WatchOptions configures Watch
type WatchOptions struct {
	// Interval defaults to DefaultWatchInterval
	Interval time.Duration
	// StartupDelay is waited once before the first check
	StartupDelay time.Duration
	// OnUpdates receives every completed batch, including empty ones
	OnUpdates func([]AppUpdate)
}

// Watch runs CheckAllUpdates after the startup delay and then on every
// interval until ctx is done. Rounds are skipped while autoUpdate is off.
// Each completed round stamps lastUpdateCheck in the settings file.
func (s *Service) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultWatchInterval
	}

	timer := time.NewTimer(opts.StartupDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		s.watchRound(ctx, opts)
		timer.Reset(opts.Interval)
	}
}

func (s *Service) watchRound(ctx context.Context, opts WatchOptions) {
	settings := config.LoadSettings(s.settingsPath)
	if !settings.AutoUpdate {
		log.Debug("Automatic update checks disabled, skipping round")
		return
	}

	updates, err := s.CheckAllUpdates(ctx)
	if err != nil {
		log.WithError(err).Error("Automatic update check failed")
		return
	}

	now := s.now()
	settings.LastUpdateCheck = &now
	if err := config.SaveSettings(s.settingsPath, settings); err != nil {
		log.WithError(err).Warn("Failed to stamp last update check")
	}

	if opts.OnUpdates != nil {
		opts.OnUpdates(updates)
	}
}
