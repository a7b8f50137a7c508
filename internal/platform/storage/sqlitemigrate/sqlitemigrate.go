// Package sqlitemigrate applies embedded "-- +migrate Up" SQL files to a
// SQLite database, recording each file once in schema_migrations.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// ErrDBRequired reports a nil database handle.
var ErrDBRequired = errors.New("sql db is required")

// Apply runs every pending .sql file under root in lexical order and returns
// the names it applied. Files already recorded are skipped, and a failed file
// is left unrecorded so a fixed version can run later.
func Apply(ctx context.Context, sqlDB *sql.DB, migrations fs.FS, root string) ([]string, error) {
	if sqlDB == nil {
		return nil, ErrDBRequired
	}
	root = path.Clean(strings.TrimSpace(root))

	names, err := migrationFiles(migrations, root)
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+migrationTable+
		" (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)"); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	var applied []string
	for _, name := range names {
		key := name
		if root != "." {
			key = path.Join(root, name)
		}
		done, err := isApplied(ctx, sqlDB, key)
		if err != nil {
			return applied, fmt.Errorf("check migration %s: %w", key, err)
		}
		if done {
			continue
		}
		content, err := fs.ReadFile(migrations, path.Join(root, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", key, err)
		}
		upSQL := ExtractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}
		if err := applyOne(ctx, sqlDB, key, upSQL); err != nil {
			return applied, err
		}
		applied = append(applied, key)
	}
	return applied, nil
}

func migrationFiles(migrations fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(migrations, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func applyOne(ctx context.Context, sqlDB *sql.DB, key, upSQL string) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, upSQL); err != nil && !IsAlreadyExistsError(err) {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		key, time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", key, err)
	}
	return nil
}

// ExtractUpMigration returns the SQL between the Up and Down markers. Content
// without an Up marker is returned whole.
func ExtractUpMigration(content string) string {
	start := strings.Index(content, upMarker)
	if start == -1 {
		return content
	}
	body := content[start+len(upMarker):]
	if end := strings.Index(body, downMarker); end != -1 {
		body = body[:end]
	}
	return body
}

// IsAlreadyExistsError reports DDL errors that mean the change is already in
// place.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func isApplied(ctx context.Context, sqlDB *sql.DB, key string) (bool, error) {
	var found int
	err := sqlDB.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", key).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
