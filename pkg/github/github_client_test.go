package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dikkadev/launchhub/pkg/apperr"
)

const latestReleaseJSON = `{
  "tag_name": "v1.0.0",
  "name": "Release 1.0.0",
  "html_url": "https://github.com/owner/repo/releases/tag/v1.0.0",
  "body": "Release notes",
  "published_at": "2024-01-01T00:00:00Z",
  "assets": [
    {"name": "binary", "size": 1000, "browser_download_url": "https://example.com/binary"}
  ]
}`

func TestGetLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/releases/latest" {
			t.Errorf("Expected request to '/repos/owner/repo/releases/latest', got: %s", r.URL.Path)
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("Expected User-Agent %q, got %q", UserAgent, ua)
		}
		if auth := r.Header.Get("Authorization"); auth != "token secret" {
			t.Errorf("Expected token authorization, got %q", auth)
		}
		fmt.Fprint(w, latestReleaseJSON)
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	release, err := client.GetLatestRelease(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("GetLatestRelease returned error: %v", err)
	}

	if release.TagName != "v1.0.0" {
		t.Errorf("Expected tag name 'v1.0.0', got %s", release.TagName)
	}
	if release.HTMLURL != "https://github.com/owner/repo/releases/tag/v1.0.0" {
		t.Errorf("Unexpected html_url %s", release.HTMLURL)
	}
	if !release.PublishedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected published_at %v", release.PublishedAt)
	}
	if len(release.Assets) != 1 {
		t.Fatalf("Expected 1 asset, got %d", len(release.Assets))
	}
	if release.Assets[0].DownloadURL != "https://example.com/binary" {
		t.Errorf("Unexpected download URL %s", release.Assets[0].DownloadURL)
	}
}

func TestGetLatestReleaseErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   apperr.Kind
		wantStatus int
	}{
		{"not found", http.StatusNotFound, `{"message": "Not Found"}`, apperr.Upstream, http.StatusNotFound},
		{"rate limited", http.StatusForbidden, `{"message": "API rate limit exceeded"}`, apperr.Upstream, http.StatusForbidden},
		{"server error", http.StatusInternalServerError, ``, apperr.Upstream, http.StatusInternalServerError},
		{"bad body", http.StatusOK, `{"tag_name": `, apperr.Parse, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewClient("", WithBaseURL(server.URL))
			_, err := client.GetLatestRelease(context.Background(), "owner", "repo")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("Got kind %v, want %v (%v)", got, tt.wantKind, err)
			}
			if tt.wantStatus != 0 {
				e := err.(*apperr.Error)
				if e.StatusCode != tt.wantStatus {
					t.Errorf("Got status %d, want %d", e.StatusCode, tt.wantStatus)
				}
			}
			if IsNotFound(err) != (tt.status == http.StatusNotFound) {
				t.Errorf("IsNotFound() mismatch for status %d", tt.status)
			}
		})
	}
}

func TestGetLatestReleaseNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("", WithBaseURL(url))
	_, err := client.GetLatestRelease(context.Background(), "owner", "repo")
	if !apperr.Is(err, apperr.Network) {
		t.Errorf("Expected Network error, got %v", err)
	}
}

func TestGetReleasesPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/releases" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/releases?page=2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"tag_name": "v2.0.0"}, {"tag_name": "v1.1.0"}]`)
		case "2":
			fmt.Fprint(w, `[{"tag_name": "v1.0.0"}]`)
		default:
			t.Errorf("Unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))
	releases, err := client.GetReleases(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("GetReleases returned error: %v", err)
	}

	want := []string{"v2.0.0", "v1.1.0", "v1.0.0"}
	if len(releases) != len(want) {
		t.Fatalf("Got %d releases, want %d", len(releases), len(want))
	}
	for i, tag := range want {
		if releases[i].TagName != tag {
			t.Errorf("Release %d: got %s, want %s", i, releases[i].TagName, tag)
		}
	}
}

func TestGetReleasesNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))
	_, err := client.GetReleases(context.Background(), "owner", "repo")
	if !apperr.Is(err, apperr.Upstream) {
		t.Errorf("Expected Upstream error, got %v", err)
	}
}
