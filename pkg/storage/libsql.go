package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// LibSQL implements the Storage interface using libsql
type LibSQL struct {
	db *sql.DB
}

// NewLibSQL creates a new LibSQL storage
func NewLibSQL(url string) (*LibSQL, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &LibSQL{db: db}, nil
}

// Initialize creates the database schema
func (s *LibSQL) Initialize(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS update_checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_id TEXT NOT NULL,
			owner TEXT NOT NULL,
			repo TEXT NOT NULL,
			current_version TEXT NOT NULL,
			latest_version TEXT NOT NULL,
			available BOOLEAN NOT NULL DEFAULT 0,
			platform TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			checked_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create update_checks table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS update_checks_app ON update_checks (app_id, checked_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create update_checks index: %w", err)
	}

	return nil
}

// RecordCheck adds a check result
func (s *LibSQL) RecordCheck(ctx context.Context, check *Check) error {
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO update_checks (
			app_id, owner, repo, current_version, latest_version,
			available, platform, error, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		check.AppID, check.Owner, check.Repo, check.CurrentVersion, check.LatestVersion,
		check.Available, check.Platform, check.Error, check.CheckedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}

	check.ID = id
	return nil
}

const checkColumns = `
	id, app_id, owner, repo, current_version, latest_version,
	available, platform, error, checked_at
`

// ListChecks lists the most recent checks, newest first
func (s *LibSQL) ListChecks(ctx context.Context, appID string, limit int) ([]*Check, error) {
	query := `SELECT ` + checkColumns + ` FROM update_checks`
	var args []interface{}
	if appID != "" {
		query += ` WHERE app_id = ?`
		args = append(args, appID)
	}
	query += ` ORDER BY checked_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	var checks []*Check
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checks: %w", err)
	}

	return checks, nil
}

// LatestCheck returns the most recent check for an application
func (s *LibSQL) LatestCheck(ctx context.Context, appID string) (*Check, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+checkColumns+`
		FROM update_checks
		WHERE app_id = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`, appID)

	check, err := scanCheck(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return check, nil
}

// PruneChecks deletes checks older than the given time
func (s *LibSQL) PruneChecks(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM update_checks
		WHERE checked_at < ?
	`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune checks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// Close closes the database connection
func (s *LibSQL) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCheck(row scanner) (*Check, error) {
	check := &Check{}
	var checkedAt int64
	err := row.Scan(
		&check.ID, &check.AppID, &check.Owner, &check.Repo, &check.CurrentVersion, &check.LatestVersion,
		&check.Available, &check.Platform, &check.Error, &checkedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan check: %w", err)
	}

	check.CheckedAt = time.UnixMilli(checkedAt)
	return check, nil
}
