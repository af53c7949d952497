package scans

import "context"

// Repository port (interface untuk persistence)
// Save appends one record per completed scan; records are never rewritten.
type Repository interface {
	Save(ctx context.Context, rec *ScanRecord) error
	Get(ctx context.Context, id ScanID) (*ScanRecord, error)
	Latest(ctx context.Context, limit int) ([]*ScanRecord, error)
}

// Provider port (interface untuk reputation service)
type Provider interface {
	ScanURL(ctx context.Context, target string) (Report, error)
	ScanFile(ctx context.Context, fileName string, data []byte) (Report, error)
}

// BlobStore port (interface untuk penyimpanan file upload)
// Put overwrites on key conflict and returns a public fetch URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
