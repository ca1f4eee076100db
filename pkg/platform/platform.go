package platform

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/dikkadev/launchhub/pkg/github"
)

// Platform represents a target platform
type Platform struct {
	OS   string
	Arch string
}

// Current returns the current platform
func Current() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: normalizeArch(runtime.GOARCH),
	}
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// SelectInstaller returns the first asset, in feed order, that looks like an
// installer: a name ending in ".exe" or ".zip", or containing "Setup".
// It returns nil when no asset qualifies.
func SelectInstaller(assets []github.Asset) *github.Asset {
	for i := range assets {
		if isInstaller(assets[i].Name) {
			return &assets[i]
		}
	}
	return nil
}

func isInstaller(name string) bool {
	return strings.HasSuffix(name, ".exe") ||
		strings.HasSuffix(name, ".zip") ||
		strings.Contains(name, "Setup")
}

// OpenURL opens a URL or a local path with the desktop's default handler
func (p Platform) OpenURL(target string) error {
	args := p.openCommand(target)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	// The opener hands off to the desktop and exits on its own
	go cmd.Wait()
	return nil
}

func (p Platform) openCommand(target string) []string {
	switch p.OS {
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}
	case "darwin":
		return []string{"open", target}
	default:
		return []string{"xdg-open", target}
	}
}

// normalizeArch normalizes architecture names
func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "x86":
		return "386"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
