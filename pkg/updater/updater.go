// Package updater decides whether a newer release of an application exists.
package updater

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dikkadev/launchhub/pkg/apperr"
	"github.com/dikkadev/launchhub/pkg/github"
	"github.com/dikkadev/launchhub/pkg/logging"
	"github.com/dikkadev/launchhub/pkg/platform"
	"github.com/dikkadev/launchhub/pkg/version"
)

var log = logging.GetLogger("updater")

// NoReleaseMessage explains an unavailable update when the repository has
// never published a release
const NoReleaseMessage = "no release published on GitHub"

// Result describes the outcome of one update check
type Result struct {
	Available      bool   `json:"available"`
	LatestVersion  string `json:"latestVersion,omitempty"`
	CurrentVersion string `json:"currentVersion,omitempty"`
	// Installer asset URL, empty when no asset qualified
	DownloadURL  string     `json:"downloadUrl"`
	ReleaseURL   string     `json:"releaseUrl,omitempty"`
	ReleaseName  string     `json:"releaseName,omitempty"`
	ReleaseNotes string     `json:"releaseNotes,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Message      string     `json:"message,omitempty"`
	// Malformed version strings encountered while comparing
	Warnings []string `json:"warnings,omitempty"`
}

// Target returns where the user should go to get the update
func (r *Result) Target() string {
	if r.DownloadURL != "" {
		return r.DownloadURL
	}
	return r.ReleaseURL
}

// Resolver queries the release feed. It keeps no state between calls.
type Resolver struct {
	client github.Client
}

// New creates a resolver on top of a release feed client
func New(client github.Client) *Resolver {
	return &Resolver{client: client}
}

// CheckUpdate compares the latest published release of owner/repo with the
// installed version. A repository without releases is not an error.
func (r *Resolver) CheckUpdate(ctx context.Context, owner, repo, installed string) (*Result, error) {
	entry := log.WithFields(logrus.Fields{"owner": owner, "repo": repo})
	entry.Debug("Checking for updates")

	release, err := r.client.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		if github.IsNotFound(err) {
			entry.Debug("No release published")
			return &Result{
				Available:      false,
				CurrentVersion: version.Normalize(installed),
				Message:        NoReleaseMessage,
			}, nil
		}
		return nil, err
	}

	if release.TagName == "" {
		return nil, apperr.New(apperr.Parse, "release of %s/%s has no tag_name", owner, repo)
	}

	latest := version.Normalize(release.TagName)
	current := version.Normalize(installed)

	result := &Result{
		Available:      version.Compare(latest, current) > 0,
		LatestVersion:  latest,
		CurrentVersion: current,
		ReleaseURL:     release.HTMLURL,
		ReleaseName:    release.Name,
		ReleaseNotes:   release.Body,
	}
	if !release.PublishedAt.IsZero() {
		published := release.PublishedAt
		result.PublishedAt = &published
	}
	if asset := platform.SelectInstaller(release.Assets); asset != nil {
		result.DownloadURL = asset.DownloadURL
	}

	for _, v := range []string{latest, current} {
		if err := version.Check(v); err != nil {
			entry.WithError(err).Warn("Malformed version, non-numeric segments compared as 0")
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	entry.WithFields(logrus.Fields{
		"current":   current,
		"latest":    latest,
		"available": result.Available,
	}).Info("Checked for updates")

	return result, nil
}

// ListReleases returns every release of owner/repo as published upstream
func (r *Resolver) ListReleases(ctx context.Context, owner, repo string) ([]*github.Release, error) {
	return r.client.GetReleases(ctx, owner, repo)
}
