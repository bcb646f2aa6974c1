package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pricecatalog/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS reloads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT,
  extracted INTEGER NOT NULL DEFAULT 0,
  items INTEGER NOT NULL DEFAULT 0,
  durationMs REAL NOT NULL DEFAULT 0,
  sheetsJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reloads_traceId ON reloads(traceId);

CREATE TABLE IF NOT EXISTS price_items (
  position INTEGER PRIMARY KEY,
  identifier TEXT NOT NULL,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  unit TEXT NOT NULL,
  sourceSheet TEXT NOT NULL,
  reloadId INTEGER NOT NULL,
  FOREIGN KEY(reloadId) REFERENCES reloads(id)
);

CREATE TABLE IF NOT EXISTS intake (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  filename TEXT NOT NULL,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  path TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'stored',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId, filename)
);
CREATE INDEX IF NOT EXISTS idx_intake_hash ON intake(hash);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// RecordReload stores one reload outcome. A successful reload also replaces
// the persisted catalog with items, in catalog order.
func (d *DB) RecordReload(row internal.ReloadRow, items []internal.PriceItem) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
INSERT INTO reloads (traceId, source, status, error, extracted, items, durationMs, sheetsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, row.TraceID, row.Source, row.Status, row.Error, row.Extracted, row.Items, row.DurationMs, nonEmpty(row.SheetsJSON, "[]"))
	if err != nil {
		return err
	}
	reloadID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if row.Status == "ok" {
		if _, err := tx.Exec(`DELETE FROM price_items`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
INSERT INTO price_items (position, identifier, name, price, unit, sourceSheet, reloadId)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, item := range items {
			if _, err := stmt.Exec(i, item.Identifier, item.Name, item.Price.String(), item.Unit, item.SourceSheet, reloadID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (d *DB) ListReloads(limit int) ([]internal.ReloadRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, source, status, error, extracted, items, durationMs, sheetsJson, createdAt
FROM reloads ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ReloadRow
	for rows.Next() {
		var row internal.ReloadRow
		if err := rows.Scan(&row.ID, &row.TraceID, &row.Source, &row.Status, &row.Error, &row.Extracted, &row.Items, &row.DurationMs, &row.SheetsJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListPriceItems returns the last persisted catalog in catalog order.
func (d *DB) ListPriceItems() ([]internal.PriceItem, error) {
	rows, err := d.conn.Query(`
SELECT identifier, name, price, unit, sourceSheet
FROM price_items ORDER BY position ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.PriceItem{}
	for rows.Next() {
		var item internal.PriceItem
		var price string
		if err := rows.Scan(&item.Identifier, &item.Name, &price, &item.Unit, &item.SourceSheet); err != nil {
			return nil, err
		}
		item.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("price_items %s: %w", item.Identifier, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) UpsertIntake(row internal.IntakeRow) (internal.IntakeRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO intake (provider, messageId, filename, receivedAt, hash, path, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId, filename) DO UPDATE SET
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  path=excluded.path,
  updatedAt=CURRENT_TIMESTAMP
`, row.Provider, row.MessageID, row.Filename, row.ReceivedAt, row.Hash, row.Path, nonEmpty(row.Status, "stored"))
	if err != nil {
		return internal.IntakeRow{}, err
	}

	stored, err := d.getIntake(`provider = ? AND messageId = ? AND filename = ?`, row.Provider, row.MessageID, row.Filename)
	if err != nil {
		return internal.IntakeRow{}, err
	}
	if stored == nil {
		return internal.IntakeRow{}, errors.New("failed to upsert intake")
	}
	return *stored, nil
}

// GetIntakeByHash returns the oldest intake row carrying hash, or nil.
func (d *DB) GetIntakeByHash(hash string) (*internal.IntakeRow, error) {
	return d.getIntake(`hash = ? ORDER BY id ASC LIMIT 1`, hash)
}

func (d *DB) getIntake(where string, args ...any) (*internal.IntakeRow, error) {
	var row internal.IntakeRow
	var receivedAt sql.NullString
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, filename, receivedAt, hash, path, status
FROM intake WHERE `+where, args...).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Filename, &receivedAt, &row.Hash, &row.Path, &row.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.ReceivedAt = receivedAt.String
	return &row, nil
}

func (d *DB) ListIntakeByStatus(status string, limit int) ([]internal.IntakeRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, filename, receivedAt, hash, path, status
FROM intake WHERE status = ? ORDER BY receivedAt ASC, id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.IntakeRow
	for rows.Next() {
		var row internal.IntakeRow
		var receivedAt sql.NullString
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Filename, &receivedAt, &row.Hash, &row.Path, &row.Status); err != nil {
			return nil, err
		}
		row.ReceivedAt = receivedAt.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateIntakeStatus(id int, status string) error {
	_, err := d.conn.Exec(`UPDATE intake SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
