// Package hub is the boundary between the launcher core and its front ends.
//
// Service exposes the catalog operations with typed results. Respond turns
// any of them into a Response envelope, so a front end never sees a raw
// failure or a panic.
package hub

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/platform"
	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/storage"
	"github.com/dikkadev/launchhub/pkg/updater"
)

var log = logging.GetLogger("hub")

// maxConcurrentChecks bounds the fan-out of CheckAllUpdates
const maxConcurrentChecks = 8

// Resolver answers update questions against the release feed
type Resolver interface {
	CheckUpdate(ctx context.Context, owner, repo, installed string) (*updater.Result, error)
	ListReleases(ctx context.Context, owner, repo string) ([]*github.Release, error)
}

// Options wires a Service
type Options struct {
	Registry  lifecycle.Registry
	Lifecycle *lifecycle.Controller
	Resolver  Resolver
	// History records update checks; nil disables recording
	History      storage.Storage
	SettingsPath string
}

// Service implements the boundary operations
type Service struct {
	registry     lifecycle.Registry
	lifecycle    *lifecycle.Controller
	resolver     Resolver
	history      storage.Storage
	settingsPath string
	platform     string
	now          func() time.Time
}

// New creates a service
func New(opts Options) *Service {
	return &Service{
		registry:     opts.Registry,
		lifecycle:    opts.Lifecycle,
		resolver:     opts.Resolver,
		history:      opts.History,
		settingsPath: opts.SettingsPath,
		platform:     platform.Current().String(),
		now:          time.Now,
	}
}

// ListApps returns every manifest with installed replaced by a live check
func (s *Service) ListApps(ctx context.Context) ([]registry.Manifest, error) {
	apps, err := s.registry.Load()
	if err != nil {
		return nil, err
	}

	for i := range apps {
		installed, err := s.lifecycle.IsInstalled(&apps[i])
		if err != nil {
			log.WithError(err).WithField("app", apps[i].ID).Warn("Presence check failed")
		}
		apps[i].Installed = installed
	}
	return apps, nil
}

// Launch starts an installed application
func (s *Service) Launch(ctx context.Context, id string) (*lifecycle.LaunchResult, error) {
	return s.lifecycle.Launch(ctx, id)
}

// Uninstall removes an installed application
func (s *Service) Uninstall(ctx context.Context, id string) (*lifecycle.UninstallResult, error) {
	return s.lifecycle.Uninstall(ctx, id)
}

// GetAppSize measures an installed application
func (s *Service) GetAppSize(ctx context.Context, id string) (*lifecycle.SizeResult, error) {
	return s.lifecycle.Size(ctx, id)
}

// ClearAll removes every installed application
func (s *Service) ClearAll(ctx context.Context) error {
	return s.lifecycle.ClearAll(ctx)
}

// CheckUpdate checks one application against its release feed and records
// the outcome in the check history
func (s *Service) CheckUpdate(ctx context.Context, id string) (*updater.Result, error) {
	m, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, m)
}

func (s *Service) check(ctx context.Context, m *registry.Manifest) (*updater.Result, error) {
	if m.RepoOwner == "" || m.RepoName == "" {
		return nil, apperr.New(apperr.Format, "%s has no repository configured", m.ID)
	}

	result, err := s.resolver.CheckUpdate(ctx, m.RepoOwner, m.RepoName, m.Version)
	s.record(ctx, m, result, err)
	return result, err
}

// record stores a check in the history. Failures are logged only.
func (s *Service) record(ctx context.Context, m *registry.Manifest, result *updater.Result, checkErr error) {
	if s.history == nil {
		return
	}

	check := &storage.Check{
		AppID:          m.ID,
		Owner:          m.RepoOwner,
		Repo:           m.RepoName,
		CurrentVersion: m.Version,
		Platform:       s.platform,
		CheckedAt:      s.now(),
	}
	if result != nil {
		check.CurrentVersion = result.CurrentVersion
		check.LatestVersion = result.LatestVersion
		check.Available = result.Available
	}
	if checkErr != nil {
		check.Error = checkErr.Error()
	}

	if err := s.history.RecordCheck(ctx, check); err != nil {
		log.WithError(err).WithField("app", m.ID).Warn("Failed to record update check")
	}
}

// AppUpdate is one entry of CheckAllUpdates
type AppUpdate struct {
	AppID   string `json:"appId"`
	AppName string `json:"appName"`
	*updater.Result
}

// CheckAllUpdates checks every installed application concurrently and
// returns the ones with an update available. A failing application is left
// out of the result and never fails the batch.
func (s *Service) CheckAllUpdates(ctx context.Context) ([]AppUpdate, error) {
	apps, err := s.registry.Load()
	if err != nil {
		return nil, err
	}

	results := make([]*AppUpdate, len(apps))

	var g errgroup.Group
	g.SetLimit(maxConcurrentChecks)

	for i := range apps {
		m := &apps[i]
		installed, err := s.lifecycle.IsInstalled(m)
		if err != nil || !installed {
			continue
		}

		i := i
		g.Go(func() error {
			result, err := s.check(ctx, m)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"app":  m.ID,
					"kind": apperr.KindOf(err).String(),
				}).Warn("Update check failed, skipping")
				return nil
			}
			results[i] = &AppUpdate{AppID: m.ID, AppName: m.Name, Result: result}
			return nil
		})
	}
	_ = g.Wait()

	updates := make([]AppUpdate, 0)
	for _, r := range results {
		if r != nil && r.Available {
			updates = append(updates, *r)
		}
	}

	log.WithField("available", len(updates)).Info("Checked all apps for updates")
	return updates, nil
}

// ListReleases returns the full release list of an application's repository
func (s *Service) ListReleases(ctx context.Context, id string) ([]*github.Release, error) {
	m, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if m.RepoOwner == "" || m.RepoName == "" {
		return nil, apperr.New(apperr.Format, "%s has no repository configured", m.ID)
	}
	return s.resolver.ListReleases(ctx, m.RepoOwner, m.RepoName)
}

// History lists recorded update checks, newest first. An empty id lists
// every application.
func (s *Service) History(ctx context.Context, id string, limit int) ([]*storage.Check, error) {
	if s.history == nil {
		return nil, apperr.New(apperr.Unknown, "check history is disabled")
	}
	if id != "" {
		if _, err := s.registry.Get(id); err != nil {
			return nil, err
		}
	}
	return s.history.ListChecks(ctx, id, limit)
}

// PruneHistory deletes recorded checks older than maxAge
func (s *Service) PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s.history == nil {
		return 0, apperr.New(apperr.Unknown, "check history is disabled")
	}
	n, err := s.history.PruneChecks(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	log.WithField("deleted", n).Info("Pruned check history")
	return n, nil
}
