package ai

import (
	"context"

	"github.com/safescanx/safescanx/internal/domain/scans"
)

type Client interface {
	Summarize(ctx context.Context, rec *scans.ScanRecord) (string, error)
}
