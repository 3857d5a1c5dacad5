package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombor/receipt-items/internal/scanning"
)

var _ scanning.Scanner = (*observableScanner)(nil)

type observableScanner struct {
	provider string
	scanner  scanning.Scanner
}

// NewScanner wraps a Scanner with a span per call
func NewScanner(provider string, s scanning.Scanner) scanning.Scanner {
	return &observableScanner{
		provider: provider,
		scanner:  s,
	}
}

func (s *observableScanner) StartAnalysis(ctx context.Context, doc scanning.Document) (string, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "start analysis "+s.provider,
		trace.WithAttributes(
			attribute.String("document.bucket", doc.Bucket),
			attribute.String("document.key", doc.Key),
		),
	)
	defer span.End()

	jobID, err := s.scanner.StartAnalysis(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("analysis.job_id", jobID))
	return jobID, nil
}

func (s *observableScanner) GetAnalysis(ctx context.Context, jobID string) (*scanning.Analysis, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "get analysis "+s.provider,
		trace.WithAttributes(attribute.String("analysis.job_id", jobID)),
	)
	defer span.End()

	analysis, err := s.scanner.GetAnalysis(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("analysis.blocks", len(analysis.Blocks)))
	return analysis, nil
}

func (s *observableScanner) Close() error {
	return s.scanner.Close()
}
