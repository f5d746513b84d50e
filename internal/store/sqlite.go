// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The clipsync Authors

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/clipvault/clipsync/models"
	_ "github.com/mattn/go-sqlite3"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS history (
		id            TEXT PRIMARY KEY,
		type          TEXT NOT NULL,
		value         TEXT NOT NULL DEFAULT '',
		files         TEXT NOT NULL DEFAULT '[]',
		package       TEXT,
		favorite      INTEGER NOT NULL DEFAULT 0,
		create_time   TIMESTAMP NOT NULL,
		last_modified TIMESTAMP NOT NULL,
		note          TEXT NOT NULL DEFAULT '',
		device_id     TEXT NOT NULL DEFAULT '',
		deleted       INTEGER NOT NULL DEFAULT 0,
		checksum      TEXT NOT NULL DEFAULT '',
		size          INTEGER NOT NULL DEFAULT 0,
		from_cloud    INTEGER NOT NULL DEFAULT 0,
		synced_at     TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_deleted ON history(deleted);
	CREATE INDEX IF NOT EXISTS idx_history_last_modified ON history(last_modified);`

var historyColumns = []string{
	"id", "type", "value", "files", "package", "favorite", "create_time",
	"last_modified", "note", "device_id", "deleted", "checksum", "size",
	"from_cloud", "synced_at",
}

// sqliteStore is the SQLite-backed HistoryStore.
type sqliteStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteStore opens (creating if necessary) the history database at
// dbPath and ensures the schema exists. Use ":memory:" for an ephemeral
// store.
func NewSQLiteStore(dbPath string) (HistoryStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err = db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &sqliteStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Save implements [HistoryStore] with an upsert per item.
func (s *sqliteStore) Save(ctx context.Context, items ...*models.HistoryItem) error {
	for _, item := range items {
		files, err := json.Marshal(item.Files)
		if err != nil {
			return fmt.Errorf("encode files for %s: %w", item.ID, err)
		}

		var pkg any
		if item.Package != nil {
			data, perr := json.Marshal(item.Package)
			if perr != nil {
				return fmt.Errorf("encode package for %s: %w", item.ID, perr)
			}
			pkg = string(data)
		}

		query := s.sb.Insert("history").
			Columns(historyColumns...).
			Values(item.ID, string(item.Type), item.Value, string(files), pkg,
				item.Favorite, item.CreateTime, item.LastModified, item.Note,
				item.DeviceID, item.Deleted, item.Checksum, item.Size,
				item.FromCloud, item.SyncedAt).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				value = excluded.value,
				files = excluded.files,
				package = excluded.package,
				favorite = excluded.favorite,
				create_time = excluded.create_time,
				last_modified = excluded.last_modified,
				note = excluded.note,
				device_id = excluded.device_id,
				deleted = excluded.deleted,
				checksum = excluded.checksum,
				size = excluded.size,
				from_cloud = excluded.from_cloud,
				synced_at = excluded.synced_at`)

		if _, err = query.RunWith(s.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("save item %s: %w", item.ID, err)
		}
	}

	return nil
}

// Get implements [HistoryStore].
func (s *sqliteStore) Get(ctx context.Context, id string) (models.HistoryItem, error) {
	row := s.sb.Select(historyColumns...).
		From("history").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HistoryItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return models.HistoryItem{}, fmt.Errorf("get item %s: %w", id, err)
	}

	return item, nil
}

// List implements [HistoryStore].
func (s *sqliteStore) List(ctx context.Context, includeDeleted bool) ([]models.HistoryItem, error) {
	query := s.sb.Select(historyColumns...).
		From("history").
		OrderBy("create_time DESC")
	if !includeDeleted {
		query = query.Where(sq.Eq{"deleted": false})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.HistoryItem
	for rows.Next() {
		item, serr := scanItem(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan item: %w", serr)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SoftDelete implements [HistoryStore]. A never-synced item is removed
// outright: no other device knows it existed, so no tombstone is needed.
func (s *sqliteStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.SyncedAt == nil {
		return s.HardDelete(ctx, id)
	}

	_, err = s.sb.Update("history").
		Set("deleted", true).
		Set("last_modified", at).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("soft delete item %s: %w", id, err)
	}

	return nil
}

// HardDelete implements [HistoryStore].
func (s *sqliteStore) HardDelete(ctx context.Context, id string) error {
	_, err := s.sb.Delete("history").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("hard delete item %s: %w", id, err)
	}

	return nil
}

// MarkSynced implements [HistoryStore].
func (s *sqliteStore) MarkSynced(ctx context.Context, at time.Time, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.sb.Update("history").
		Set("synced_at", at).
		Where(sq.Eq{"id": ids}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	return nil
}

// Close implements [HistoryStore].
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.HistoryItem, error) {
	var (
		item     models.HistoryItem
		typ      string
		files    string
		pkg      sql.NullString
		syncedAt sql.NullTime
	)

	err := row.Scan(&item.ID, &typ, &item.Value, &files, &pkg, &item.Favorite,
		&item.CreateTime, &item.LastModified, &item.Note, &item.DeviceID,
		&item.Deleted, &item.Checksum, &item.Size, &item.FromCloud, &syncedAt)
	if err != nil {
		return models.HistoryItem{}, err
	}

	item.Type = models.ItemType(typ)
	if err = json.Unmarshal([]byte(files), &item.Files); err != nil {
		return models.HistoryItem{}, fmt.Errorf("decode files: %w", err)
	}
	if pkg.Valid {
		item.Package = &models.PackageDescriptor{}
		if err = json.Unmarshal([]byte(pkg.String), item.Package); err != nil {
			return models.HistoryItem{}, fmt.Errorf("decode package: %w", err)
		}
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		item.SyncedAt = &t
	}

	return item, nil
}
