package postgres

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/safescanx/safescanx/internal/domain/scans"
)

// Schema:
//
//	CREATE TABLE scans (
//	  id              UUID PRIMARY KEY,
//	  url             TEXT NULL,
//	  file_name       TEXT NULL,
//	  combined_result DOUBLE PRECISION NOT NULL,
//	  file_url        TEXT NULL,
//	  scanned_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_scans_scanned_at ON scans (scanned_at DESC);
type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

func (r *ScanRepository) Save(ctx context.Context, rec *domain.ScanRecord) error {
	const q = `
INSERT INTO scans (id, url, file_name, combined_result, file_url, scanned_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		nullString(rec.URL),
		nullString(rec.FileName),
		rec.CombinedResult,
		nullString(rec.FileURL),
		rec.ScannedAt,
	)
	if err != nil {
		return &domain.StoreError{Op: "postgres insert", Err: err}
	}
	return nil
}

func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	const q = `
SELECT id, url, file_name, combined_result, file_url, scanned_at
FROM scans
WHERE id=$1
LIMIT 1;`
	rec, err := scanRow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StoreError{Op: "postgres select", Err: err}
	}
	return rec, nil
}

func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, url, file_name, combined_result, file_url, scanned_at
FROM scans
ORDER BY scanned_at DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "postgres select", Err: err}
	}
	defer rows.Close()

	var out []*domain.ScanRecord
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "postgres scan", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "postgres rows", Err: err}
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
