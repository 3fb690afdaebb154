package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"fitquote/internal"
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
CREATE TABLE IF NOT EXISTS catalogue (
  code TEXT PRIMARY KEY,
  installTimeHours REAL NOT NULL,
  wasteVolumeM3 REAL NOT NULL DEFAULT 0,
  isHeavy INTEGER NOT NULL DEFAULT 0,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS catalogue_aliases (
  alias TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(code) REFERENCES catalogue(code)
);
CREATE INDEX IF NOT EXISTS idx_aliases_code ON catalogue_aliases(code);

CREATE TABLE IF NOT EXISTS learn_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL,
  installTimeHours REAL NOT NULL,
  wasteVolumeM3 REAL NOT NULL,
  isHeavy INTEGER NOT NULL,
  source TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  clientName TEXT,
  projectName TEXT,
  detailsJson TEXT NOT NULL,
  productsJson TEXT NOT NULL,
  resultsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rules (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  documentJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertCatalogueEntry(entry internal.CatalogueEntry) error {
	_, err := d.conn.Exec(`
INSERT INTO catalogue (code, installTimeHours, wasteVolumeM3, isHeavy, updatedAt)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  installTimeHours=excluded.installTimeHours,
  wasteVolumeM3=excluded.wasteVolumeM3,
  isHeavy=excluded.isHeavy,
  updatedAt=CURRENT_TIMESTAMP
`, entry.Code, entry.InstallTimeHours, entry.WasteVolumeM3, boolToInt(entry.IsHeavy))
	return err
}

func (d *DB) UpsertCatalogueEntries(entries []internal.CatalogueEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO catalogue (code, installTimeHours, wasteVolumeM3, isHeavy, updatedAt)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(code) DO UPDATE SET
  installTimeHours=excluded.installTimeHours,
  wasteVolumeM3=excluded.wasteVolumeM3,
  isHeavy=excluded.isHeavy,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(entry.Code, entry.InstallTimeHours, entry.WasteVolumeM3, boolToInt(entry.IsHeavy)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalogueEntries() ([]internal.CatalogueEntry, error) {
	rows, err := d.conn.Query(`SELECT code, installTimeHours, wasteVolumeM3, isHeavy FROM catalogue ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogueEntry
	for rows.Next() {
		var entry internal.CatalogueEntry
		var heavy int
		if err := rows.Scan(&entry.Code, &entry.InstallTimeHours, &entry.WasteVolumeM3, &heavy); err != nil {
			return nil, err
		}
		entry.IsHeavy = heavy != 0
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (d *DB) AttachCatalogueAlias(alias, code string) error {
	_, err := d.conn.Exec(`
INSERT INTO catalogue_aliases (alias, code)
VALUES (?, ?)
ON CONFLICT(alias) DO UPDATE SET code=excluded.code
`, alias, code)
	return err
}

func (d *DB) ListCatalogueAliases() (map[string]string, error) {
	rows, err := d.conn.Query(`SELECT alias, code FROM catalogue_aliases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var alias, code string
		if err := rows.Scan(&alias, &code); err != nil {
			return nil, err
		}
		out[alias] = code
	}
	return out, rows.Err()
}

func (d *DB) InsertLearnEvent(event internal.LearnEvent) error {
	_, err := d.conn.Exec(`
INSERT INTO learn_events (code, installTimeHours, wasteVolumeM3, isHeavy, source)
VALUES (?, ?, ?, ?, ?)
`, event.Code, event.InstallTimeHours, event.WasteVolumeM3, boolToInt(event.IsHeavy), string(event.Source))
	return err
}

func (d *DB) ListLearnEvents(limit int) ([]internal.LearnEvent, error) {
	rows, err := d.conn.Query(`
SELECT code, installTimeHours, wasteVolumeM3, isHeavy, source
FROM learn_events ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LearnEvent
	for rows.Next() {
		var event internal.LearnEvent
		var heavy int
		var source string
		if err := rows.Scan(&event.Code, &event.InstallTimeHours, &event.WasteVolumeM3, &heavy, &source); err != nil {
			return nil, err
		}
		event.IsHeavy = heavy != 0
		event.Source = internal.ProductSource(source)
		out = append(out, event)
	}
	return out, rows.Err()
}

func (d *DB) SaveQuote(record internal.QuoteRecord) error {
	detailsJSON, err := json.Marshal(record.Details)
	if err != nil {
		return err
	}
	productsJSON, err := json.Marshal(record.Products)
	if err != nil {
		return err
	}
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return err
	}

	_, err = d.conn.Exec(`
INSERT INTO quotes (id, clientName, projectName, detailsJson, productsJson, resultsJson)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  clientName=excluded.clientName,
  projectName=excluded.projectName,
  detailsJson=excluded.detailsJson,
  productsJson=excluded.productsJson,
  resultsJson=excluded.resultsJson,
  updatedAt=CURRENT_TIMESTAMP
`, record.ID, record.ClientName, record.ProjectName, string(detailsJSON), string(productsJSON), string(resultsJSON))
	return err
}

func (d *DB) GetQuote(id string) (*internal.QuoteRecord, error) {
	var record internal.QuoteRecord
	var detailsJSON, productsJSON, resultsJSON string
	err := d.conn.QueryRow(`
SELECT id, clientName, projectName, detailsJson, productsJson, resultsJson, createdAt, updatedAt
FROM quotes WHERE id = ?
`, id).Scan(&record.ID, &record.ClientName, &record.ProjectName, &detailsJSON, &productsJSON, &resultsJSON, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(detailsJSON), &record.Details); err != nil {
		return nil, fmt.Errorf("decode quote %s details: %w", id, err)
	}
	if err := json.Unmarshal([]byte(productsJSON), &record.Products); err != nil {
		return nil, fmt.Errorf("decode quote %s products: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &record.Results); err != nil {
		return nil, fmt.Errorf("decode quote %s results: %w", id, err)
	}
	return &record, nil
}

func (d *DB) ListQuotes(limit int) ([]internal.QuoteRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, clientName, projectName, createdAt, updatedAt
FROM quotes ORDER BY updatedAt DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteRecord
	for rows.Next() {
		var record internal.QuoteRecord
		if err := rows.Scan(&record.ID, &record.ClientName, &record.ProjectName, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (d *DB) SaveRulesDocument(document string) error {
	_, err := d.conn.Exec(`
INSERT INTO rules (id, documentJson) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET documentJson=excluded.documentJson, updatedAt=CURRENT_TIMESTAMP
`, document)
	return err
}

func (d *DB) LoadRulesDocument() (*string, error) {
	var document string
	err := d.conn.QueryRow(`SELECT documentJson FROM rules WHERE id = 1`).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
