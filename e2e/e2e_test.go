//go:build e2e

// Package e2e runs the update resolver and the hub against a release feed
// served by a real nginx container.
package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/hub"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/updater"
)

var logger = logging.GetLogger("e2e")

const fooRelease = `{
  "tag_name": "v1.1.0",
  "name": "Foo 1.1.0",
  "html_url": "https://github.com/acme/foo/releases/tag/v1.1.0",
  "body": "Bug fixes",
  "published_at": "2024-05-01T10:00:00Z",
  "assets": [
    {"name": "checksums.txt", "size": 120, "browser_download_url": "https://github.com/acme/foo/releases/download/v1.1.0/checksums.txt"},
    {"name": "foo-Setup.exe", "size": 4096, "browser_download_url": "https://github.com/acme/foo/releases/download/v1.1.0/foo-Setup.exe"}
  ]
}`

const barRelease = `{
  "tag_name": "2.0.0",
  "html_url": "https://github.com/acme/bar/releases/tag/2.0.0",
  "assets": []
}`

const brokenRelease = `{"tag_name": `

type feedContainer struct {
	container testcontainers.Container
	baseURL   string
}

// writeRelease stores a release document under the path nginx serves for it
func writeRelease(t *testing.T, dir, repo, body string) testcontainers.ContainerFile {
	t.Helper()
	host := filepath.Join(dir, repo+".json")
	if err := os.WriteFile(host, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write release for %s: %v", repo, err)
	}
	return testcontainers.ContainerFile{
		HostFilePath:      host,
		ContainerFilePath: fmt.Sprintf("/usr/share/nginx/html/repos/acme/%s/releases/latest", repo),
		FileMode:          0644,
	}
}

func setupFeed(ctx context.Context, t *testing.T) *feedContainer {
	t.Helper()
	dir := t.TempDir()

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		Files: []testcontainers.ContainerFile{
			writeRelease(t, dir, "foo", fooRelease),
			writeRelease(t, dir, "bar", barRelease),
			writeRelease(t, dir, "broken", brokenRelease),
		},
		WaitingFor: wait.ForHTTP("/repos/acme/foo/releases/latest").
			WithPort("80/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	logger.Info("Starting release feed container")
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to terminate container")
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "80/tcp")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	baseURL := fmt.Sprintf("http://%s:%s", host, port.Port())
	logger.WithField("url", baseURL).Info("Release feed ready")
	return &feedContainer{container: container, baseURL: baseURL}
}

func TestResolverAgainstFeed(t *testing.T) {
	ctx := context.Background()
	feed := setupFeed(ctx, t)
	resolver := updater.New(github.NewClient("", github.WithBaseURL(feed.baseURL)))

	t.Run("update available", func(t *testing.T) {
		result, err := resolver.CheckUpdate(ctx, "acme", "foo", "1.0.0")
		if err != nil {
			t.Fatalf("CheckUpdate failed: %v", err)
		}
		if !result.Available || result.LatestVersion != "1.1.0" || result.CurrentVersion != "1.0.0" {
			t.Errorf("Unexpected result: %+v", result)
		}
		if result.DownloadURL != "https://github.com/acme/foo/releases/download/v1.1.0/foo-Setup.exe" {
			t.Errorf("Unexpected download URL: %s", result.DownloadURL)
		}
	})

	t.Run("no installer asset", func(t *testing.T) {
		result, err := resolver.CheckUpdate(ctx, "acme", "bar", "v2.0")
		if err != nil {
			t.Fatalf("CheckUpdate failed: %v", err)
		}
		if result.Available {
			t.Error("2.0.0 is not newer than 2.0")
		}
		if result.DownloadURL != "" || result.Target() != "https://github.com/acme/bar/releases/tag/2.0.0" {
			t.Errorf("Expected the release page as target, got %q", result.Target())
		}
	})

	t.Run("no release published", func(t *testing.T) {
		result, err := resolver.CheckUpdate(ctx, "acme", "missing", "1.0.0")
		if err != nil {
			t.Fatalf("404 must not be an error: %v", err)
		}
		if result.Available || result.Message != updater.NoReleaseMessage {
			t.Errorf("Unexpected result: %+v", result)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := resolver.CheckUpdate(ctx, "acme", "broken", "1.0.0")
		if !apperr.Is(err, apperr.Parse) {
			t.Errorf("Expected Parse error, got %v", err)
		}
	})
}

func TestCheckAllUpdatesAgainstFeed(t *testing.T) {
	ctx := context.Background()
	feed := setupFeed(ctx, t)

	root := t.TempDir()
	store := registry.New(filepath.Join(root, "config", "apps-registry.json"))
	err := store.Save([]registry.Manifest{
		{ID: "foo", Name: "Foo", Version: "1.0.0", ExecutablePath: "apps/foo/foo.exe", RepoOwner: "acme", RepoName: "foo"},
		{ID: "bar", Name: "Bar", Version: "2.0.0", ExecutablePath: "apps/bar/bar.exe", RepoOwner: "acme", RepoName: "bar"},
		{ID: "broken", Name: "Broken", Version: "1.0.0", ExecutablePath: "apps/broken/broken.exe", RepoOwner: "acme", RepoName: "broken"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"foo", "bar", "broken"} {
		dir := filepath.Join(root, "apps", id)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, id+".exe"), []byte("bin"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	service := hub.New(hub.Options{
		Registry:     store,
		Lifecycle:    lifecycle.New(store, lifecycle.Options{Root: root, InstallRoot: filepath.Join(root, "apps")}),
		Resolver:     updater.New(github.NewClient("", github.WithBaseURL(feed.baseURL))),
		SettingsPath: filepath.Join(root, "config", "settings.json"),
	})

	resp := hub.Respond("checkAllUpdates", func() (interface{}, error) {
		return service.CheckAllUpdates(ctx)
	})
	if !resp.Success {
		t.Fatalf("Batch failed: %s", resp.Error)
	}

	updates := resp.Data.([]hub.AppUpdate)
	if len(updates) != 1 || updates[0].AppID != "foo" || updates[0].LatestVersion != "1.1.0" {
		t.Errorf("Unexpected updates: %+v", updates)
	}
}
