package limiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/zombor/receipt-items/internal/scanning"
)

var _ scanning.Scanner = (*limitedScanner)(nil)

type limitedScanner struct {
	limiter *rate.Limiter
	scanner scanning.Scanner
}

// NewScanner wraps a Scanner so that every call waits for the limiter.
// A nil limiter disables limiting.
func NewScanner(l *rate.Limiter, s scanning.Scanner) scanning.Scanner {
	return &limitedScanner{
		limiter: l,
		scanner: s,
	}
}

func (s *limitedScanner) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *limitedScanner) StartAnalysis(ctx context.Context, doc scanning.Document) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return s.scanner.StartAnalysis(ctx, doc)
}

func (s *limitedScanner) GetAnalysis(ctx context.Context, jobID string) (*scanning.Analysis, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.scanner.GetAnalysis(ctx, jobID)
}

func (s *limitedScanner) Close() error {
	return s.scanner.Close()
}
