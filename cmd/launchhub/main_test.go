package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/config"
	"github.com/dikkadev/launchhub/pkg/registry"
)

// setupRoot creates a data root with one installed and one missing app
func setupRoot(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.RootEnv, "")

	root := t.TempDir()
	store := registry.New(filepath.Join(root, "config", "apps-registry.json"))
	err := store.Save([]registry.Manifest{
		{ID: "alpha", Name: "Alpha", Version: "1.0.0", ExecutablePath: "apps/alpha/alpha", Installed: true},
		{ID: "beta", Name: "Beta", Version: "2.0", ExecutablePath: "apps/beta/beta"},
	})
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(root, "apps", "alpha")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alpha"), make([]byte, 2048), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	// flag variables outlive a single execution
	rootFlag, verbose, logLevelFlag, noHistory, assumeYes = "", false, "warn", false, false
	rootCmd.SetArgs(args)
	return run(context.Background())
}

func TestListCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "--no-history", "list"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

func TestSizeCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "--no-history", "size", "alpha"); err != nil {
		t.Fatalf("size failed: %v", err)
	}

	err := execute(t, "--root", root, "--no-history", "size", "beta")
	if !apperr.Is(err, apperr.NotInstalled) {
		t.Errorf("Expected NotInstalled, got %v", err)
	}

	err = execute(t, "--root", root, "--no-history", "size", "ghost")
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestUninstallCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "--no-history", "uninstall", "--yes", "alpha"); err != nil {
		t.Fatalf("uninstall failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "apps", "alpha")); !os.IsNotExist(err) {
		t.Errorf("alpha still on disk: %v", err)
	}

	m, err := registry.New(filepath.Join(root, "config", "apps-registry.json")).Get("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if m.Installed {
		t.Error("Registry still marks alpha installed")
	}
}

func TestConfigSetCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "config", "set", "theme", "light"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	settings := config.LoadSettings(filepath.Join(root, "config", "settings.json"))
	if settings.Theme != "light" || !settings.AutoUpdate {
		t.Errorf("Unexpected settings: %+v", settings)
	}

	if err := execute(t, "--root", root, "config", "set", "autoUpdate", "maybe"); err == nil {
		t.Error("Expected an error for a bad boolean")
	}
	if err := execute(t, "--root", root, "config", "set", "nope", "x"); err == nil {
		t.Error("Expected an error for an unknown setting")
	}
}

func TestConfigIntegrityCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "config", "integrity"); err != nil {
		t.Errorf("integrity failed with a registry present: %v", err)
	}
	if err := execute(t, "--root", t.TempDir(), "config", "integrity"); err == nil {
		t.Error("integrity should fail without a registry")
	}
}

func TestHistoryCommand(t *testing.T) {
	root := setupRoot(t)

	if err := execute(t, "--root", root, "history"); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "db", "launchhub.db")); err != nil {
		t.Errorf("History database not created: %v", err)
	}
}
