package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/internpipe/internpipe/internal/model"
)

// SQLiteStore persists raw and processed job batches in a SQLite database.
// Batches are stored as JSON payloads; per-job and per-company rows are kept
// alongside for ad-hoc querying.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS raw_batches (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS processed_batches (
	id           TEXT PRIMARY KEY,
	raw_batch_id TEXT,
	payload      TEXT NOT NULL,
	created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS jobs (
	rowid_pk   INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id   TEXT NOT NULL,
	job_id     TEXT,
	title      TEXT,
	company    TEXT,
	location   TEXT,
	url        TEXT,
	posted_at  TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS companies (
	name        TEXT PRIMARY KEY,
	industry    TEXT,
	size        TEXT,
	description TEXT,
	updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_batch ON jobs (batch_id);
CREATE INDEX IF NOT EXISTS idx_processed_created ON processed_batches (created_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRawBatch stores an unprocessed batch and returns its ID. A new ID is
// assigned when the batch does not carry one.
func (s *SQLiteStore) SaveRawBatch(batch model.Batch) (string, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("encoding raw batch: %w", err)
	}

	_, err = s.db.Exec("INSERT INTO raw_batches (id, payload) VALUES (?, ?)", batch.ID, string(payload))
	if err != nil {
		return "", fmt.Errorf("saving raw batch %s: %w", batch.ID, err)
	}
	return batch.ID, nil
}

// SaveProcessedBatch stores a cleaned batch, its per-job rows, and any company
// metadata the jobs carry, all in one transaction. Returns the batch ID.
func (s *SQLiteStore) SaveProcessedBatch(batch model.Batch) (string, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("encoding processed batch: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO processed_batches (id, raw_batch_id, payload) VALUES (?, ?, ?)",
		batch.ID, batch.RawBatchID, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("saving processed batch %s: %w", batch.ID, err)
	}

	for _, job := range batch.Jobs {
		_, err = tx.Exec(
			"INSERT INTO jobs (batch_id, job_id, title, company, location, url, posted_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			batch.ID, job.ID, job.Title, job.Company, job.Location, job.URL, job.PostedAt,
		)
		if err != nil {
			return "", fmt.Errorf("saving job row for batch %s: %w", batch.ID, err)
		}

		if ci := job.CompanyInfo; ci != nil {
			_, err = tx.Exec(
				`INSERT INTO companies (name, industry, size, description, updated_at)
				 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
				 ON CONFLICT(name) DO UPDATE SET
					industry = excluded.industry,
					size = excluded.size,
					description = excluded.description,
					updated_at = CURRENT_TIMESTAMP`,
				ci.Name, ci.Industry, ci.Size, ci.Description,
			)
			if err != nil {
				return "", fmt.Errorf("upserting company %s: %w", ci.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing processed batch %s: %w", batch.ID, err)
	}
	return batch.ID, nil
}

// RawBatch loads a raw batch by ID. Returns nil without error when no batch
// with that ID exists.
func (s *SQLiteStore) RawBatch(id string) (*model.Batch, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM raw_batches WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading raw batch %s: %w", id, err)
	}
	return decodeBatch(payload)
}

// ProcessedBatchByDate returns the most recent processed batch saved on the
// given date (YYYY-MM-DD), or nil when none exists.
func (s *SQLiteStore) ProcessedBatchByDate(date string) (*model.Batch, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM processed_batches WHERE DATE(created_at) = ? ORDER BY created_at DESC LIMIT 1",
		date,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading processed batch for %s: %w", date, err)
	}
	return decodeBatch(payload)
}

// ProcessedBatchesInRange returns all processed batches saved between
// startDate and endDate inclusive (YYYY-MM-DD), oldest first.
func (s *SQLiteStore) ProcessedBatchesInRange(startDate, endDate string) ([]model.Batch, error) {
	rows, err := s.db.Query(
		"SELECT payload FROM processed_batches WHERE DATE(created_at) BETWEEN ? AND ? ORDER BY created_at ASC",
		startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("loading processed batches %s..%s: %w", startDate, endDate, err)
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning processed batch: %w", err)
		}
		b, err := decodeBatch(payload)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processed batches: %w", err)
	}
	return batches, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeBatch(payload string) (*model.Batch, error) {
	var batch model.Batch
	if err := json.Unmarshal([]byte(payload), &batch); err != nil {
		return nil, fmt.Errorf("decoding batch payload: %w", err)
	}
	return &batch, nil
}
