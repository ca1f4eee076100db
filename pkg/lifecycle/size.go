package lifecycle

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n in the largest unit that keeps the mantissa below
// 1024, rounded to two decimals with no trailing zeros. Rounding happens after
// the unit is chosen, so 1048575 is "1024 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return humanize.FtoaWithDigits(math.Round(v*100)/100, 2) + " " + sizeUnits[i]
}

// SizeResult is the on-disk size of an installation
type SizeResult struct {
	Bytes     int64  `json:"bytes"`
	Formatted string `json:"formatted"`
}

// Size sums the sizes of all files below the application's directory
func (c *Controller) Size(ctx context.Context, id string) (*SizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// read-only: waits out a running uninstall but leaves Status live
	_, release := c.hold(id)
	defer release()

	if _, err := c.registry.Get(id); err != nil {
		return nil, err
	}

	dir, err := c.AppDir(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.NotInstalled, "%s is not installed", id)
		}
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to stat %s", dir)
	}

	var total int64
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			// removed mid-walk or a dangling link
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to measure %s", dir)
	}

	return &SizeResult{Bytes: total, Formatted: FormatBytes(total)}, nil
}

// ExecutableInfo describes an installed executable
type ExecutableInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Info stats the application's executable
func (c *Controller) Info(ctx context.Context, id string) (*ExecutableInfo, error) {
	m, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}

	path := c.ExecutablePath(m)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.NotInstalled, "%s is not installed", m.Name)
		}
		return nil, apperr.Wrap(apperr.Filesystem, err, "failed to stat %s", path)
	}

	return &ExecutableInfo{Path: path, Size: info.Size(), Modified: info.ModTime()}, nil
}
