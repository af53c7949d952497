package scans

import (
	"time"
)

// ID tipe untuk ScanRecord
type ScanID string

// MaxFileSize is the provider's free-tier upload cap.
const MaxFileSize = 32 << 20 // 32 MiB

// Report is the raw detection ratio returned by the reputation provider.
// A zero value means the provider omitted the field.
type Report struct {
	Positives int `json:"positives"`
	Total     int `json:"total"`
}

// Percentage normalizes the report and returns the share of engines that
// flagged the input, in [0,100]. A missing or zero total counts as 1 and
// negative positives count as 0, so the division is always defined.
func (r Report) Percentage() float64 {
	positives := r.Positives
	if positives < 0 {
		positives = 0
	}
	total := r.Total
	if total <= 0 {
		total = 1
	}
	pct := 100 * float64(positives) / float64(total)
	if pct > 100 {
		return 100
	}
	return pct
}

// Aggregate Root: ScanRecord
// Append-only: exactly one of URL/FileName is set, records are never updated.
type ScanRecord struct {
	ID             ScanID    `json:"id" bson:"_id"`
	URL            string    `json:"url,omitempty" bson:"url,omitempty"`
	FileName       string    `json:"fileName,omitempty" bson:"fileName,omitempty"`
	CombinedResult float64   `json:"combinedResult" bson:"combinedResult"`
	FileURL        string    `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	ScannedAt      time.Time `json:"scannedAt" bson:"scannedAt"`
}

// ScanResult is what the workflow echoes back to the caller.
type ScanResult struct {
	CombinedResult float64 `json:"combinedResult"`
	FileURL        string  `json:"fileUrl,omitempty"`
}
