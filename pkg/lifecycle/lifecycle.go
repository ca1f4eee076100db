// Package lifecycle launches, measures and removes installed applications,
// keeping the registry's cached installed flag in line with the filesystem.
package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/sirupsen/logrus"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/registry"
)

var log = logging.GetLogger("lifecycle")

// DefaultSpawnWindow is how long a launched process is watched for an early failure
const DefaultSpawnWindow = 2 * time.Second

// State is the lifecycle state of one application
type State int32

const (
	NotInstalled State = iota
	Installed
	// Launching and Uninstalling are transient while an operation runs
	Launching
	Uninstalling
)

func (s State) String() string {
	switch s {
	case NotInstalled:
		return "not_installed"
	case Installed:
		return "installed"
	case Launching:
		return "launching"
	case Uninstalling:
		return "uninstalling"
	default:
		return "unknown"
	}
}

// Registry is the part of the registry store the controller needs
type Registry interface {
	Load() ([]registry.Manifest, error)
	Get(id string) (*registry.Manifest, error)
	Patch(id string, fields registry.Fields) error
}

// Options configures a Controller
type Options struct {
	// Root is the directory executable paths are relative to
	Root string
	// InstallRoot holds one directory per application id
	InstallRoot string
	// SpawnWindow bounds the early-failure watch of launched processes
	SpawnWindow time.Duration
}

// Controller is the only writer of installed-state transitions.
// Operations on the same application id run one at a time.
type Controller struct {
	registry    Registry
	root        string
	installRoot string
	spawnWindow time.Duration

	// bulk is held exclusively by ClearAll and shared by every other operation
	bulk  sync.RWMutex
	slots cmap.ConcurrentMap
}

type slot struct {
	mu    sync.Mutex
	state atomic.Int32
	busy  atomic.Bool
}

// New creates a controller
func New(reg Registry, opts Options) *Controller {
	if opts.SpawnWindow <= 0 {
		opts.SpawnWindow = DefaultSpawnWindow
	}
	return &Controller{
		registry:    reg,
		root:        opts.Root,
		installRoot: opts.InstallRoot,
		spawnWindow: opts.SpawnWindow,
		slots:       cmap.New(),
	}
}

// InstallRoot returns the directory holding installed applications
func (c *Controller) InstallRoot() string {
	return c.installRoot
}

// ExecutablePath resolves a manifest's executable against the root directory
func (c *Controller) ExecutablePath(m *registry.Manifest) string {
	if filepath.IsAbs(m.ExecutablePath) {
		return m.ExecutablePath
	}
	return filepath.Join(c.root, m.ExecutablePath)
}

// AppDir returns the installation directory of an application id
func (c *Controller) AppDir(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", apperr.New(apperr.Format, "invalid app id %q", id)
	}
	return filepath.Join(c.installRoot, id), nil
}

// IsInstalled checks whether the manifest's executable exists right now
func (c *Controller) IsInstalled(m *registry.Manifest) (bool, error) {
	_, err := os.Stat(c.ExecutablePath(m))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, apperr.Wrap(apperr.Filesystem, err, "failed to check %s", m.ID)
}

// QueryState checks the filesystem for the application's executable. The
// registry's cached installed flag is never consulted.
func (c *Controller) QueryState(ctx context.Context, id string) (State, error) {
	m, err := c.registry.Get(id)
	if err != nil {
		return NotInstalled, err
	}
	installed, err := c.IsInstalled(m)
	if err != nil {
		return NotInstalled, err
	}
	if installed {
		return Installed, nil
	}
	return NotInstalled, nil
}

// Status is QueryState, except that it reports Launching or Uninstalling
// while such an operation is in flight for id
func (c *Controller) Status(ctx context.Context, id string) (State, error) {
	if v, ok := c.slots.Get(id); ok {
		s := v.(*slot)
		if s.busy.Load() {
			return State(s.state.Load()), nil
		}
	}
	return c.QueryState(ctx, id)
}

// hold serializes operations on id without publishing a state
func (c *Controller) hold(id string) (*slot, func()) {
	c.bulk.RLock()
	c.slots.SetIfAbsent(id, &slot{})
	v, _ := c.slots.Get(id)
	s := v.(*slot)

	s.mu.Lock()
	return s, func() {
		s.mu.Unlock()
		c.bulk.RUnlock()
	}
}

// acquire is hold for state-changing operations; Status reports state
// until the returned release is called
func (c *Controller) acquire(id string, state State) func() {
	s, unlock := c.hold(id)
	s.state.Store(int32(state))
	s.busy.Store(true)

	return func() {
		s.busy.Store(false)
		unlock()
	}
}

// UninstallResult is returned by a successful Uninstall
type UninstallResult struct {
	Message string `json:"message"`
	AppName string `json:"appName"`
}

// Uninstall removes the application's installation directory and marks it
// not installed. A missing directory counts as already uninstalled. When the
// directory cannot be removed the registry is left untouched.
func (c *Controller) Uninstall(ctx context.Context, id string) (*UninstallResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := c.acquire(id, Uninstalling)
	defer release()

	entry := log.WithField("app", id)
	entry.Info("Uninstalling")

	m, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}

	dir, err := c.AppDir(id)
	if err != nil {
		return nil, err
	}

	if _, err := os.Lstat(dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.Filesystem, err, "failed to inspect %s", dir)
		}

		entry.WithField("dir", dir).Info("Installation directory missing, updating registry only")
		if err := c.registry.Patch(id, registry.Fields{"installed": false}); err != nil {
			return nil, err
		}
		return &UninstallResult{
			Message: "app already uninstalled, registry updated",
			AppName: m.Name,
		}, nil
	}

	// RemoveAll ignores entries that vanish while it runs
	if err := os.RemoveAll(dir); err != nil {
		entry.WithError(err).Error("Failed to remove installation directory")
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to remove %s", dir)
	}
	entry.WithField("dir", dir).Info("Removed installation directory")

	if err := c.registry.Patch(id, registry.Fields{"installed": false}); err != nil {
		return nil, err
	}

	entry.Infof("%s uninstalled", m.Name)
	return &UninstallResult{
		Message: m.Name + " uninstalled successfully",
		AppName: m.Name,
	}, nil
}

// ClearAll deletes the whole installation root, recreates it empty and marks
// every application not installed. The first error aborts; manifests patched
// before it stay patched.
func (c *Controller) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.bulk.Lock()
	defer c.bulk.Unlock()

	if _, err := os.Stat(c.installRoot); err == nil {
		if err := os.RemoveAll(c.installRoot); err != nil {
			return apperr.Wrap(apperr.Filesystem, err, "failed to remove %s", c.installRoot)
		}
	}
	if err := os.MkdirAll(c.installRoot, 0755); err != nil {
		return apperr.Wrap(apperr.Filesystem, err, "failed to recreate %s", c.installRoot)
	}

	apps, err := c.registry.Load()
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := c.registry.Patch(app.ID, registry.Fields{"installed": false}); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{"root": c.installRoot, "apps": len(apps)}).Warn("Removed all installed apps")
	return nil
}
