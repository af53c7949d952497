package ai

import (
	"context"

	"github.com/safescanx/safescanx/internal/domain/ai"
	"github.com/safescanx/safescanx/internal/domain/scans"
)

// Service produces a human-readable risk summary for a stored scan record.
type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Summarize(ctx context.Context, rec *scans.ScanRecord) (string, error) {
	return s.client.Summarize(ctx, rec)
}
