/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocardlayout/internal/batch"
	applog "gocardlayout/internal/log"
	"gocardlayout/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema of the result index.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// ErrCardNotFound is returned by LoadCard when no card is stored.
var ErrCardNotFound = errors.New("card not found")

// OpenIndex opens (creating if needed) the result index at path, enables WAL
// mode and brings the schema up to date.
func OpenIndex(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema; runMigrations moves it forward.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the current schema on a fresh database.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			layout_id  TEXT NOT NULL,
			record     INTEGER NOT NULL,
			name       TEXT NOT NULL,
			data       TEXT NOT NULL,
			overflow   INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			PRIMARY KEY(layout_id, record)
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// v1 stored cards without the overflow flag.
			has, err := hasColumn(ctx, db, "cards", "overflow")
			if err != nil {
				return fmt.Errorf("migration %d: %w", next, err)
			}
			if !has {
				stmts = append(stmts, `ALTER TABLE cards ADD COLUMN overflow INTEGER NOT NULL DEFAULT 0;`)
			}
		}
		if err := migrate(ctx, db, next, stmts); err != nil {
			return err
		}
		cur = next
	}
	// Indexes of the current schema; cheap to re-assert on every open.
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_cards_overflow ON cards(layout_id, overflow);`); err != nil {
		return fmt.Errorf("create overflow index: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB, next int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", next, err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d stmt failed: %w", next, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d update version: %w", next, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d commit: %w", next, err)
	}
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SaveCards stores cards for layoutID in one transaction, replacing cards
// with the same record index.
func SaveCards(ctx context.Context, db *sql.DB, layoutID string, cards []batch.Card) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save cards: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards(layout_id, record, name, data, overflow, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(layout_id, record) DO UPDATE SET
			name=excluded.name, data=excluded.data, overflow=excluded.overflow, created_at=excluded.created_at`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare save cards: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range cards {
		data, err := json.Marshal(c)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal card %d: %w", c.Index, err)
		}
		overflow := 0
		if len(c.Overflowing()) > 0 {
			overflow = 1
		}
		if _, err := stmt.ExecContext(ctx, layoutID, c.Index, c.Name, string(data), overflow, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save card %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cards: %w", err)
	}
	return nil
}

// LoadCard returns the stored card for a record of layoutID.
func LoadCard(ctx context.Context, db *sql.DB, layoutID string, record int) (batch.Card, error) {
	var data string
	err := db.QueryRowContext(ctx, `SELECT data FROM cards WHERE layout_id=? AND record=?`, layoutID, record).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return batch.Card{}, fmt.Errorf("layout %s record %d: %w", layoutID, record, ErrCardNotFound)
	}
	if err != nil {
		return batch.Card{}, fmt.Errorf("load card: %w", err)
	}
	var c batch.Card
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return batch.Card{}, fmt.Errorf("decode card: %w", err)
	}
	return c, nil
}

// CountCards returns how many cards are stored for layoutID.
func CountCards(ctx context.Context, db *sql.DB, layoutID string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE layout_id=?`, layoutID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// OverflowingRecords lists the record indexes of cards with text that did
// not fit, in ascending order.
func OverflowingRecords(ctx context.Context, db *sql.DB, layoutID string) ([]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT record FROM cards WHERE layout_id=? AND overflow=1 ORDER BY record`, layoutID)
	if err != nil {
		return nil, fmt.Errorf("query overflow: %w", err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
