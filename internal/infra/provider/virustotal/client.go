// Package virustotal talks to the VirusTotal v2 public API.
package virustotal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	domain "github.com/safescanx/safescanx/internal/domain/scans"
)

const DefaultBaseURL = "https://www.virustotal.com"

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a provider client. baseURL may be empty (public API);
// timeout bounds every single attempt, retries are the caller's concern.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// wire format: positives/total may be absent while the scan is queued
type reportBody struct {
	Positives *int `json:"positives"`
	Total     *int `json:"total"`
}

func (b reportBody) toReport() domain.Report {
	var r domain.Report
	if b.Positives != nil {
		r.Positives = *b.Positives
	}
	if b.Total != nil {
		r.Total = *b.Total
	}
	return r
}

// ScanURL issues a GET lookup keyed by URL.
func (c *Client) ScanURL(ctx context.Context, target string) (domain.Report, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("resource", target)
	endpoint := c.baseURL + "/vtapi/v2/url/report?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Report{}, fmt.Errorf("building url report request: %w", err)
	}
	return c.do(req)
}

// ScanFile submits the raw bytes as a multipart upload.
func (c *Client) ScanFile(ctx context.Context, fileName string, data []byte) (domain.Report, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return domain.Report{}, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return domain.Report{}, fmt.Errorf("writing multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.Report{}, fmt.Errorf("closing multipart body: %w", err)
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/vtapi/v2/file/scan?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return domain.Report{}, fmt.Errorf("building file scan request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (domain.Report, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Report{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return domain.Report{}, &domain.StatusError{Status: resp.StatusCode}
	}

	var body reportBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Report{}, fmt.Errorf("decoding provider response: %w", err)
	}
	return body.toReport(), nil
}
