// Package store archives extraction records in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-extractor/internal/common"
	"github.com/joseph-ayodele/claims-extractor/internal/entity"
)

// Store is a SQLite archive of extraction records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at dbPath and bootstraps the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			subject TEXT,
			vendor TEXT,
			event_date TEXT,
			submission_date TEXT,
			amount REAL,
			tax REAL,
			invoice_number TEXT,
			policy_number TEXT,
			method TEXT NOT NULL,
			confidence REAL NOT NULL,
			payload TEXT NOT NULL,
			extracted_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_vendor ON extractions(vendor)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_event_date ON extractions(event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_method ON extractions(method)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

// Save inserts one record. The full record is kept as a JSON payload so the
// archive survives schema drift in the flat columns.
func (s *Store) Save(ctx context.Context, rec entity.ExtractionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f := rec.Result.Fields
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (
			id, source, subject, vendor, event_date, submission_date,
			amount, tax, invoice_number, policy_number,
			method, confidence, payload, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		rec.Source,
		rec.Email.Subject,
		nullStr(f.Vendor),
		nullStr(f.EventDate),
		nullStr(f.SubmissionDate),
		nullFloat(f.Amount),
		nullFloat(f.Tax),
		nullStr(f.InvoiceNumber),
		nullStr(f.PolicyNumber),
		string(rec.Result.Method),
		rec.Result.Confidence,
		string(payload),
		rec.ExtractedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Vendor    string // substring match, case-insensitive
	FromDate  string // YYYY-MM-DD, inclusive, on event_date
	ToDate    string // YYYY-MM-DD, inclusive, on event_date
	MinAmount *float64
	Limit     int // 0 = no limit
}

// List returns archived records newest-first, optionally filtered.
func (s *Store) List(ctx context.Context, f Filter) ([]entity.ExtractionRecord, error) {
	query := `SELECT payload FROM extractions WHERE 1=1`
	var args []any
	if f.Vendor != "" {
		query += ` AND vendor LIKE ? COLLATE NOCASE`
		args = append(args, "%"+f.Vendor+"%")
	}
	if f.FromDate != "" {
		query += ` AND event_date >= ?`
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += ` AND event_date <= ?`
		args = append(args, f.ToDate)
	}
	if f.MinAmount != nil {
		query += ` AND amount >= ?`
		args = append(args, *f.MinAmount)
	}
	query += ` ORDER BY extracted_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var out []entity.ExtractionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		var rec entity.ExtractionRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode extraction payload: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, nil
}

// Get looks up one record by id. Missing ids yield common.ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM extractions WHERE id = ?`, id.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("EXTRACTION_NOT_FOUND", "no extraction with id "+id.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query extraction: %w", err)
	}
	var rec entity.ExtractionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode extraction payload: %w", err)
	}
	return &rec, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
