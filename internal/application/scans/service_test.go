package scans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safescanx/safescanx/internal/application"
	domain "github.com/safescanx/safescanx/internal/domain/scans"
	"github.com/safescanx/safescanx/internal/retry"
)

type mockRepo struct {
	records []*domain.ScanRecord
	saveErr error
}

func (m *mockRepo) Save(ctx context.Context, rec *domain.ScanRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id domain.ScanID) (*domain.ScanRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) Latest(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]*domain.ScanRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

type mockBlobs struct {
	objects map[string][]byte
	puts    int
	err     error
}

func (m *mockBlobs) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.puts++
	if m.err != nil {
		return "", m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = append([]byte(nil), data...)
	return "http://blobs.local/safescanx/" + key, nil
}

type mockProvider struct {
	report    domain.Report
	err       error
	failures  int // fail this many calls before succeeding
	urlCalls  int
	fileCalls int
}

func (m *mockProvider) call() error {
	if m.err != nil {
		return m.err
	}
	if m.failures > 0 {
		m.failures--
		return &domain.StatusError{Status: 503}
	}
	return nil
}

func (m *mockProvider) ScanURL(ctx context.Context, target string) (domain.Report, error) {
	m.urlCalls++
	if err := m.call(); err != nil {
		return domain.Report{}, err
	}
	return m.report, nil
}

func (m *mockProvider) ScanFile(ctx context.Context, fileName string, data []byte) (domain.Report, error) {
	m.fileCalls++
	if err := m.call(); err != nil {
		return domain.Report{}, err
	}
	return m.report, nil
}

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newService(repo *mockRepo, blobs *mockBlobs, provider *mockProvider) *Service {
	return &Service{
		Repo:     repo,
		Blobs:    blobs,
		Provider: provider,
		Retry:    retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Clock:    application.FixedClock{T: testTime},
		Loggerf:  func(string, ...interface{}) {},
	}
}

func TestSubmitURLScan(t *testing.T) {
	repo := &mockRepo{}
	provider := &mockProvider{report: domain.Report{Positives: 5, Total: 20}}
	svc := newService(repo, &mockBlobs{}, provider)

	result, err := svc.SubmitURLScan(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.CombinedResult)
	assert.Empty(t, result.FileURL)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "http://example.com", rec.URL)
	assert.Empty(t, rec.FileName)
	assert.Empty(t, rec.FileURL)
	assert.Equal(t, 25.0, rec.CombinedResult)
	assert.Equal(t, testTime, rec.ScannedAt)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 1, provider.urlCalls)
}

func TestSubmitURLScan_EmptyURL(t *testing.T) {
	repo := &mockRepo{}
	provider := &mockProvider{}
	svc := newService(repo, &mockBlobs{}, provider)

	_, err := svc.SubmitURLScan(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, provider.urlCalls, "no network call for empty url")
	assert.Empty(t, repo.records)
}

func TestSubmitURLScan_RetriesExhausted(t *testing.T) {
	repo := &mockRepo{}
	provider := &mockProvider{err: &domain.StatusError{Status: 500}}
	svc := newService(repo, &mockBlobs{}, provider)

	_, err := svc.SubmitURLScan(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, domain.ErrScanFailed)
	assert.Equal(t, 3, provider.urlCalls, "one logical call, three physical attempts")
	assert.Empty(t, repo.records, "no record on failure")
}

func TestSubmitURLScan_RetrySucceedsOnLastAttempt(t *testing.T) {
	repo := &mockRepo{}
	provider := &mockProvider{failures: 2, report: domain.Report{Positives: 1, Total: 4}}
	svc := newService(repo, &mockBlobs{}, provider)

	result, err := svc.SubmitURLScan(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.CombinedResult)
	assert.Equal(t, 3, provider.urlCalls)
	assert.Len(t, repo.records, 1)
}

func TestSubmitURLScan_StoreFailure(t *testing.T) {
	repo := &mockRepo{saveErr: &domain.StoreError{Op: "insert", Err: errors.New("down")}}
	provider := &mockProvider{report: domain.Report{Positives: 1, Total: 2}}
	svc := newService(repo, &mockBlobs{}, provider)

	_, err := svc.SubmitURLScan(context.Background(), "http://example.com")
	assert.ErrorIs(t, err, domain.ErrScanFailed)
}

func TestSubmitFileScan(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{}
	provider := &mockProvider{report: domain.Report{Positives: 3, Total: 10}}
	svc := newService(repo, blobs, provider)

	result, err := svc.SubmitFileScan(context.Background(), FileScanCommand{
		FileName:    "sample.bin",
		ContentType: "application/octet-stream",
		Data:        []byte("payload"),
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, result.CombinedResult)
	assert.Equal(t, "http://blobs.local/safescanx/uploads/sample.bin", result.FileURL)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "sample.bin", rec.FileName)
	assert.Empty(t, rec.URL)
	assert.Equal(t, result.FileURL, rec.FileURL)

	assert.Equal(t, []byte("payload"), blobs.objects["uploads/sample.bin"])
	assert.Equal(t, 1, provider.fileCalls)
}

func TestSubmitFileScan_EmptyReport(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockBlobs{}, &mockProvider{report: domain.Report{}})

	result, err := svc.SubmitFileScan(context.Background(), FileScanCommand{
		FileName: "empty.bin",
		Data:     []byte("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.CombinedResult, "empty report normalizes to 0/1")
}

func TestSubmitFileScan_Missing(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{}
	provider := &mockProvider{}
	svc := newService(repo, blobs, provider)

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, blobs.puts)
	assert.Zero(t, provider.fileCalls)
}

func TestSubmitFileScan_TooLarge(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{}
	provider := &mockProvider{}
	svc := newService(repo, blobs, provider)

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{
		FileName: "huge.bin",
		Data:     []byte("stub"),
		Size:     32*1024*1024 + 1,
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Zero(t, blobs.puts, "no blob upload")
	assert.Zero(t, provider.fileCalls, "no provider call")
	assert.Empty(t, repo.records)
}

func TestSubmitFileScan_ExactCapAllowed(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockBlobs{}, &mockProvider{report: domain.Report{Positives: 0, Total: 1}})

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{
		FileName: "cap.bin",
		Data:     []byte("stub"),
		Size:     32 * 1024 * 1024,
	})
	assert.NoError(t, err)
}

func TestSubmitFileScan_SameNameOverwrites(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{}
	svc := newService(repo, blobs, &mockProvider{report: domain.Report{Positives: 1, Total: 2}})

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{FileName: "dup.bin", Data: []byte("first")})
	require.NoError(t, err)
	_, err = svc.SubmitFileScan(context.Background(), FileScanCommand{FileName: "dup.bin", Data: []byte("second")})
	require.NoError(t, err)

	assert.Equal(t, 2, blobs.puts)
	assert.Equal(t, []byte("second"), blobs.objects["uploads/dup.bin"], "last write wins")
	assert.Len(t, repo.records, 2, "both scans still recorded")
}

func TestSubmitFileScan_ProviderFailureKeepsBlob(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{}
	provider := &mockProvider{err: &domain.StatusError{Status: 500}}
	svc := newService(repo, blobs, provider)

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{FileName: "orphan.bin", Data: []byte("data")})
	assert.ErrorIs(t, err, domain.ErrScanFailed)
	assert.Contains(t, blobs.objects, "uploads/orphan.bin", "no rollback of uploaded blob")
	assert.Empty(t, repo.records)
}

func TestSubmitFileScan_UploadFailure(t *testing.T) {
	repo := &mockRepo{}
	blobs := &mockBlobs{err: &domain.StoreError{Op: "blob put", Err: errors.New("down")}}
	provider := &mockProvider{}
	svc := newService(repo, blobs, provider)

	_, err := svc.SubmitFileScan(context.Background(), FileScanCommand{FileName: "f.bin", Data: []byte("data")})
	assert.ErrorIs(t, err, domain.ErrScanFailed)
	assert.Zero(t, provider.fileCalls, "provider not contacted after upload failure")
}

func TestLatestClampsLimit(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockBlobs{}, &mockProvider{report: domain.Report{Positives: 1, Total: 2}})

	for i := 0; i < 30; i++ {
		_, err := svc.SubmitURLScan(context.Background(), "http://example.com")
		require.NoError(t, err)
	}

	list, err := svc.Latest(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 20, "default limit")

	list, err = svc.Latest(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, list, 30, "cap larger than data returns everything")
}
