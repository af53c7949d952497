package virustotal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/safescanx/safescanx/internal/domain/scans"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient("test-key", srv.URL, 5*time.Second), srv
}

func TestScanURL(t *testing.T) {
	var gotPath, gotKey, gotResource string
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apikey")
		gotResource = r.URL.Query().Get("resource")
		w.Write([]byte(`{"positives": 5, "total": 20}`))
	}))
	defer srv.Close()

	report, err := cli.ScanURL(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "/vtapi/v2/url/report", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "http://example.com", gotResource)
	assert.Equal(t, domain.Report{Positives: 5, Total: 20}, report)
}

func TestScanURL_EmptyBody(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	report, err := cli.ScanURL(context.Background(), "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.Report{}, report, "absent fields decode to zero")
}

func TestScanURL_NonSuccessStatus(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := cli.ScanURL(context.Background(), "http://example.com")
	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}

func TestScanFile(t *testing.T) {
	var gotPath, gotFileName string
	var gotData []byte
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFileName = header.Filename
		gotData, _ = io.ReadAll(file)
		w.Write([]byte(`{"positives": 1, "total": 4}`))
	}))
	defer srv.Close()

	report, err := cli.ScanFile(context.Background(), "sample.bin", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "/vtapi/v2/file/scan", gotPath)
	assert.Equal(t, "sample.bin", gotFileName)
	assert.Equal(t, []byte("payload"), gotData)
	assert.Equal(t, domain.Report{Positives: 1, Total: 4}, report)
}

func TestScanFile_ServerError(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := cli.ScanFile(context.Background(), "sample.bin", []byte("payload"))
	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
}

func TestScanURL_MalformedBody(t *testing.T) {
	cli, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := cli.ScanURL(context.Background(), "http://example.com")
	assert.Error(t, err)
}
