package storage

import (
	"context"
	"time"
)

// Check represents one recorded update check
type Check struct {
	ID             int64     // Row id, assigned on insert
	AppID          string    // Registry id of the application
	Owner          string    // GitHub repository owner
	Repo           string    // GitHub repository name
	CurrentVersion string    // Installed version at check time
	LatestVersion  string    // Latest upstream version, empty if none published
	Available      bool      // Whether an update was available
	Platform       string    // Platform the check ran on (e.g., windows-amd64)
	Error          string    // Failure message, empty on success
	CheckedAt      time.Time // When the check completed
}

// Storage defines the interface for check history storage
type Storage interface {
	// Initialize initializes the storage (e.g., creates tables)
	Initialize(ctx context.Context) error

	// RecordCheck adds a check result
	RecordCheck(ctx context.Context, check *Check) error

	// ListChecks lists the most recent checks, newest first. An empty appID
	// lists checks for every application; limit <= 0 means no limit.
	ListChecks(ctx context.Context, appID string, limit int) ([]*Check, error)

	// LatestCheck returns the most recent check for an application, or nil
	LatestCheck(ctx context.Context, appID string) (*Check, error)

	// PruneChecks deletes checks older than the given time
	PruneChecks(ctx context.Context, before time.Time) (int64, error)

	// Close closes the storage
	Close() error
}
