// Package sqlite persists the favorites list in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/wear-tiles/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for the favorites list. Changes
// made through the store are pushed to its watchers; writes from other
// processes are not observed.
type Store struct {
	sqlDB   *sql.DB
	writeMu sync.Mutex
	hub     storage.Hub
	now     func() time.Time
}

// Open opens a favorites SQLite store at the provided path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close ends every watch and closes the database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	s.hub.Close()
	return s.sqlDB.Close()
}

// ListFavorites returns the stored favorites in order.
func (s *Store) ListFavorites(ctx context.Context) ([]domain.Contact, error) {
	if s == nil || s.sqlDB == nil {
		return nil, storage.ErrNotConfigured
	}
	return listFavorites(ctx, s.sqlDB)
}

// WatchFavorites emits the stored list and every later replacement.
func (s *Store) WatchFavorites(ctx context.Context) (<-chan []domain.Contact, error) {
	if s == nil || s.sqlDB == nil {
		return nil, storage.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.hub.Watch(ctx, func() ([]domain.Contact, error) {
		return listFavorites(ctx, s.sqlDB)
	})
}

// UpdateFavorites atomically replaces the stored list.
func (s *Store) UpdateFavorites(ctx context.Context, favorites []domain.Contact) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := domain.NormalizeContacts(favorites)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin favorites write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback favorites write: %v", cause, rollbackErr)
		}
		return cause
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM favorites"); err != nil {
		return rollbackWith(fmt.Errorf("clear favorites: %w", err))
	}
	updatedAt := s.now().UTC().UnixMilli()
	for position, contact := range normalized {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (position, contact_id, display_name, avatar_source, updated_at) VALUES (?, ?, ?, ?, ?)`,
			position, contact.ID, contact.Name, contact.AvatarSource, updatedAt,
		); err != nil {
			return rollbackWith(fmt.Errorf("insert favorite %s: %w", contact.ID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit favorites write: %w", err)
	}

	s.hub.Publish(normalized)
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listFavorites(ctx context.Context, q queryer) ([]domain.Contact, error) {
	rows, err := q.QueryContext(ctx, `SELECT contact_id, display_name, avatar_source FROM favorites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []domain.Contact{}
	for rows.Next() {
		var contact domain.Contact
		if err := rows.Scan(&contact.ID, &contact.Name, &contact.AvatarSource); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return favorites, nil
}
