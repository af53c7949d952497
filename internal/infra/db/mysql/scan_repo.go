package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/safescanx/safescanx/internal/domain/scans"
)

// Schema:
//
//	CREATE TABLE scans (
//	  id              CHAR(36) PRIMARY KEY,
//	  url             VARCHAR(2048) NULL,
//	  file_name       VARCHAR(512)  NULL,
//	  combined_result DOUBLE NOT NULL,
//	  file_url        VARCHAR(2048) NULL,
//	  scanned_at      DATETIME(6) NOT NULL,
//	  KEY idx_scans_scanned_at (scanned_at)
//	);
type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Save appends one scan record; the collection is append-only so plain insert.
func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	const q = `
INSERT INTO scans (id, url, file_name, combined_result, file_url, scanned_at)
VALUES (?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		nullString(rec.URL),
		nullString(rec.FileName),
		rec.CombinedResult,
		nullString(rec.FileURL),
		rec.ScannedAt,
	)
	if err != nil {
		return &domain.StoreError{Op: "mysql insert", Err: err}
	}
	return nil
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	const q = `
SELECT id, url, file_name, combined_result, file_url, scanned_at
FROM scans
WHERE id=? LIMIT 1;
`
	rec, err := scanRow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "mysql select", Err: err}
	}
	return rec, nil
}

// Latest scans, newest first
func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, url, file_name, combined_result, file_url, scanned_at
FROM scans
ORDER BY scanned_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "mysql select", Err: err}
	}
	defer rows.Close()

	var out []*domain.ScanRecord
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "mysql scan", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "mysql rows", Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord
	var u, fn, fu sql.NullString
	if err := row.Scan(&rec.ID, &u, &fn, &rec.CombinedResult, &fu, &rec.ScannedAt); err != nil {
		return nil, err
	}
	rec.URL = u.String
	rec.FileName = fn.String
	rec.FileURL = fu.String
	return &rec, nil
}
