package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/hub"
	"github.com/dikkadev/launchhub/pkg/lifecycle"
	"github.com/dikkadev/launchhub/pkg/registry"
	"github.com/dikkadev/launchhub/pkg/storage"
	"github.com/dikkadev/launchhub/pkg/updater"
)

// mockService answers from fixed data; known ids are "one" and "two"
type mockService struct {
	cleared    bool
	historyApp string
	historyLim int
}

func (m *mockService) find(id string) (*registry.Manifest, error) {
	switch id {
	case "one":
		return &registry.Manifest{ID: "one", Name: "One", Category: "tools", Installed: true}, nil
	case "two":
		return &registry.Manifest{ID: "two", Name: "Two", Category: "finance"}, nil
	}
	return nil, apperr.New(apperr.NotFound, "app %s not found", id)
}

func (m *mockService) ListApps(ctx context.Context) ([]registry.Manifest, error) {
	one, _ := m.find("one")
	two, _ := m.find("two")
	return []registry.Manifest{*one, *two}, nil
}

func (m *mockService) Launch(ctx context.Context, id string) (*lifecycle.LaunchResult, error) {
	app, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if !app.Installed {
		return nil, apperr.New(apperr.NotInstalled, "%s is not installed", app.Name)
	}
	return &lifecycle.LaunchResult{PID: 4242, Message: app.Name + " launched successfully"}, nil
}

func (m *mockService) CheckUpdate(ctx context.Context, id string) (*updater.Result, error) {
	if id == "two" {
		return nil, apperr.New(apperr.Network, "connection refused")
	}
	if _, err := m.find(id); err != nil {
		return nil, err
	}
	return &updater.Result{Available: true, LatestVersion: "1.1.0", CurrentVersion: "1.0.0", DownloadURL: "https://example.com/one-Setup.exe"}, nil
}

func (m *mockService) CheckAllUpdates(ctx context.Context) ([]hub.AppUpdate, error) {
	res, _ := m.CheckUpdate(ctx, "one")
	return []hub.AppUpdate{{AppID: "one", AppName: "One", Result: res}}, nil
}

func (m *mockService) Uninstall(ctx context.Context, id string) (*lifecycle.UninstallResult, error) {
	app, err := m.find(id)
	if err != nil {
		return nil, err
	}
	return &lifecycle.UninstallResult{Message: app.Name + " uninstalled successfully", AppName: app.Name}, nil
}

func (m *mockService) GetAppSize(ctx context.Context, id string) (*lifecycle.SizeResult, error) {
	if _, err := m.find(id); err != nil {
		return nil, err
	}
	return &lifecycle.SizeResult{Bytes: 1536, Formatted: "1.5 KB"}, nil
}

func (m *mockService) ClearAll(ctx context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockService) ListReleases(ctx context.Context, id string) ([]*github.Release, error) {
	return []*github.Release{{TagName: "v1.1.0"}, {TagName: "v1.0.0"}}, nil
}

func (m *mockService) History(ctx context.Context, id string, limit int) ([]*storage.Check, error) {
	m.historyApp, m.historyLim = id, limit
	return []*storage.Check{}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func TestRoutes(t *testing.T) {
	router := NewRouter(&mockService{})

	tests := []struct {
		name   string
		method string
		target string
		status int
		ok     bool
		kind   string
	}{
		{"health", "GET", "/health", 200, true, ""},
		{"list", "GET", "/apps", 200, true, ""},
		{"launch", "POST", "/apps/one/launch", 200, true, ""},
		{"launch unknown", "POST", "/apps/ghost/launch", 404, false, "not_found"},
		{"launch not installed", "POST", "/apps/two/launch", 409, false, "not_installed"},
		{"update", "GET", "/apps/one/update", 200, true, ""},
		{"update network failure", "GET", "/apps/two/update", 502, false, "network"},
		{"updates", "GET", "/updates", 200, true, ""},
		{"uninstall", "DELETE", "/apps/one", 200, true, ""},
		{"size", "GET", "/apps/one/size", 200, true, ""},
		{"releases", "GET", "/apps/one/releases", 200, true, ""},
		{"clear without confirm", "DELETE", "/apps", 400, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.target)
			if rec.Code != tt.status {
				t.Errorf("Got status %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if env.Success != tt.ok || env.Kind != tt.kind {
				t.Errorf("Got success=%v kind=%q, want %v %q", env.Success, env.Kind, tt.ok, tt.kind)
			}
			if !env.Success && env.Error == "" {
				t.Error("Failed response without an error message")
			}
		})
	}
}

func TestLaunchPayload(t *testing.T) {
	router := NewRouter(&mockService{})

	_, env := do(t, router, "POST", "/apps/one/launch")
	var result struct {
		PID     int    `json:"pid"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.PID != 4242 || result.Status != "issued" || result.Message != "One launched successfully" {
		t.Errorf("Unexpected payload: %+v", result)
	}
}

func TestSizePayload(t *testing.T) {
	router := NewRouter(&mockService{})

	_, env := do(t, router, "GET", "/apps/one/size")
	var payload map[string]interface{}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["bytes"] != float64(1536) || payload["formatted"] != "1.5 KB" {
		t.Errorf("Unexpected size payload: %v", payload)
	}
	if _, ok := payload["size"]; ok {
		t.Errorf("Size payload carries a stray size key: %v", payload)
	}
}

func TestUpdatesPayloadFlattensResult(t *testing.T) {
	router := NewRouter(&mockService{})

	_, env := do(t, router, "GET", "/updates")
	var updates []map[string]interface{}
	if err := json.Unmarshal(env.Data, &updates); err != nil {
		t.Fatal(err)
	}
	if len(updates) != 1 {
		t.Fatalf("Got %d updates", len(updates))
	}
	u := updates[0]
	if u["appId"] != "one" || u["available"] != true || u["downloadUrl"] != "https://example.com/one-Setup.exe" {
		t.Errorf("Unexpected update entry: %v", u)
	}
}

func TestListAppsFilter(t *testing.T) {
	router := NewRouter(&mockService{})

	_, env := do(t, router, "GET", "/apps?category=finance")
	var apps []registry.Manifest
	if err := json.Unmarshal(env.Data, &apps); err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 || apps[0].ID != "two" {
		t.Errorf("Unexpected apps: %+v", apps)
	}
}

func TestClearAllConfirmed(t *testing.T) {
	svc := &mockService{}
	router := NewRouter(svc)

	rec, env := do(t, router, "DELETE", "/apps?confirm=true")
	if rec.Code != 200 || !env.Success || !svc.cleared {
		t.Errorf("Clear all failed: %d %+v", rec.Code, env)
	}
}

func TestHistoryParams(t *testing.T) {
	svc := &mockService{}
	router := NewRouter(svc)

	rec, _ := do(t, router, "GET", "/history?app=one&limit=5")
	if rec.Code != 200 || svc.historyApp != "one" || svc.historyLim != 5 {
		t.Errorf("Unexpected history call: %d %q %d", rec.Code, svc.historyApp, svc.historyLim)
	}

	rec, _ = do(t, router, "GET", "/history?limit=abc")
	if rec.Code != 400 {
		t.Errorf("Got status %d for a bad limit", rec.Code)
	}
}
