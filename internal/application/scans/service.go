package scans

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/safescanx/safescanx/internal/application"
	domain "github.com/safescanx/safescanx/internal/domain/scans"
	"github.com/safescanx/safescanx/internal/retry"
)

// Service implements use-cases untuk scan submission.
// Stateless across requests; safe for concurrent use.
type Service struct {
	Repo     domain.Repository
	Blobs    domain.BlobStore
	Provider domain.Provider
	Retry    retry.Policy
	Clock    application.Clock
	Loggerf  func(format string, args ...interface{})
}

// Command untuk file scan. Size mirrors the multipart header so the cap is
// checked before the body is handed to storage or the provider.
type FileScanCommand struct {
	FileName    string
	ContentType string
	Data        []byte
	Size        int64
}

// SubmitURLScan: validate -> scan-with-retry -> normalize -> persist -> respond.
func (s *Service) SubmitURLScan(ctx context.Context, target string) (domain.ScanResult, error) {
	if target == "" {
		return domain.ScanResult{}, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	var report domain.Report
	err := s.Retry.Do(ctx, func(ctx context.Context) error {
		var perr error
		report, perr = s.Provider.ScanURL(ctx, target)
		return perr
	})
	if err != nil {
		s.logf("url scan failed: target=%s err=%v", target, err)
		return domain.ScanResult{}, fmt.Errorf("%w: %v", domain.ErrScanFailed, err)
	}

	combined := report.Percentage()
	rec := &domain.ScanRecord{
		ID:             domain.ScanID(uuid.New().String()),
		URL:            target,
		CombinedResult: combined,
		ScannedAt:      s.now(),
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		s.logf("saving url scan record: target=%s err=%v", target, err)
		return domain.ScanResult{}, fmt.Errorf("%w: %v", domain.ErrScanFailed, err)
	}

	return domain.ScanResult{CombinedResult: combined}, nil
}

// SubmitFileScan: validate -> upload -> scan-with-retry -> normalize -> persist -> respond.
// The uploaded blob is NOT removed when a later step fails; orphaned blobs are
// an accepted cost.
func (s *Service) SubmitFileScan(ctx context.Context, cmd FileScanCommand) (domain.ScanResult, error) {
	if cmd.FileName == "" && len(cmd.Data) == 0 {
		return domain.ScanResult{}, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	size := cmd.Size
	if size == 0 {
		size = int64(len(cmd.Data))
	}
	if size > domain.MaxFileSize {
		return domain.ScanResult{}, domain.ErrFileTooLarge
	}

	// Later uploads with the same name overwrite the earlier blob.
	key := "uploads/" + cmd.FileName
	fileURL, err := s.Blobs.Put(ctx, key, cmd.Data, cmd.ContentType)
	if err != nil {
		s.logf("uploading file: name=%s err=%v", cmd.FileName, err)
		return domain.ScanResult{}, fmt.Errorf("%w: %v", domain.ErrScanFailed, err)
	}

	var report domain.Report
	err = s.Retry.Do(ctx, func(ctx context.Context) error {
		var perr error
		report, perr = s.Provider.ScanFile(ctx, cmd.FileName, cmd.Data)
		return perr
	})
	if err != nil {
		s.logf("file scan failed: name=%s err=%v", cmd.FileName, err)
		return domain.ScanResult{}, fmt.Errorf("%w: %v", domain.ErrScanFailed, err)
	}

	combined := report.Percentage()
	rec := &domain.ScanRecord{
		ID:             domain.ScanID(uuid.New().String()),
		FileName:       cmd.FileName,
		CombinedResult: combined,
		FileURL:        fileURL,
		ScannedAt:      s.now(),
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		s.logf("saving file scan record: name=%s err=%v", cmd.FileName, err)
		return domain.ScanResult{}, fmt.Errorf("%w: %v", domain.ErrScanFailed, err)
	}

	return domain.ScanResult{CombinedResult: combined, FileURL: fileURL}, nil
}

// Get ambil 1 record by id.
func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N record terakhir untuk dashboard chart.
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.Repo.Latest(ctx, limit)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Loggerf != nil {
		s.Loggerf(format, args...)
		return
	}
	log.Printf(format, args...)
}
