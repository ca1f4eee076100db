package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

// SpawnStatus says how much is known about a launched process
type SpawnStatus int

const (
	// SpawnIssued means the process was started and has a PID
	SpawnIssued SpawnStatus = iota
	// SpawnConfirmed means the process survived the spawn window
	SpawnConfirmed
)

func (s SpawnStatus) String() string {
	if s == SpawnConfirmed {
		return "confirmed"
	}
	return "issued"
}

func (s SpawnStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LaunchResult describes a detached process. Launch returns it as soon as the
// process has a PID; an early exit shows up on Failed.
type LaunchResult struct {
	PID     int         `json:"pid"`
	Status  SpawnStatus `json:"status"`
	Message string      `json:"message"`
	AppName string      `json:"appName"`

	failed chan error
	mu     sync.Mutex
}

// Failed yields an error if the process exits unsuccessfully within the spawn
// window, then closes. It closes without a value otherwise.
func (r *LaunchResult) Failed() <-chan error {
	return r.failed
}

// Confirm waits out the spawn window. It returns the early failure if one
// happened, and marks the result confirmed when the process is still running.
func (r *LaunchResult) Confirm(ctx context.Context) (SpawnStatus, error) {
	select {
	case err, ok := <-r.failed:
		if ok && err != nil {
			return r.status(), err
		}
	case <-ctx.Done():
		return r.status(), ctx.Err()
	}

	alive, err := process.PidExistsWithContext(ctx, int32(r.PID))
	if err != nil {
		return r.status(), apperr.Wrap(apperr.Unknown, err, "failed to look up pid %d", r.PID)
	}
	if alive {
		r.mu.Lock()
		r.Status = SpawnConfirmed
		r.mu.Unlock()
	}
	return r.status(), nil
}

func (r *LaunchResult) status() SpawnStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}

// Launch starts the application's executable as a detached process with its
// own directory as working directory and no standard streams. The launched
// process is never killed by the controller.
func (c *Controller) Launch(ctx context.Context, id string) (*LaunchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := c.acquire(id, Launching)
	defer release()

	m, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}

	path := c.ExecutablePath(m)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.NotInstalled, "%s is not installed", m.Name)
		}
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to check %s", path)
	}

	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		log.WithError(err).WithField("app", id).Error("Failed to start process")
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to start %s", m.Name)
	}

	result := &LaunchResult{
		PID:     cmd.Process.Pid,
		Status:  SpawnIssued,
		Message: m.Name + " launched successfully",
		AppName: m.Name,
		failed:  make(chan error, 1),
	}

	log.WithFields(logrus.Fields{"app": id, "pid": result.PID, "path": path}).Info("Launched")
	go c.watch(cmd, m.Name, result.failed)

	return result, nil
}

// watch reaps the child and reports an unsuccessful exit inside the spawn window
func (c *Controller) watch(cmd *exec.Cmd, name string, failed chan<- error) {
	defer close(failed)

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	timer := time.NewTimer(c.spawnWindow)
	defer timer.Stop()

	select {
	case err := <-exited:
		if err != nil {
			log.WithError(err).WithField("pid", cmd.Process.Pid).Errorf("%s exited during startup", name)
			failed <- fmt.Errorf("%s exited during startup: %w", name, err)
		}
	case <-timer.C:
	}
}
