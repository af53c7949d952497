package scans

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced across the HTTP boundary. Validation errors keep
// their detail; everything behind ErrScanFailed stays server-side.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFileTooLarge = fmt.Errorf("file is too large to scan, max file size is %d MB", MaxFileSize>>20)
	ErrScanFailed   = errors.New("scan failed")
	ErrNotFound     = errors.New("scan not found")
)

// StatusError is a non-success response from the reputation provider.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.Status)
}

// StoreError wraps a database or blob-storage backend failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
