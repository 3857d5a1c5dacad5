package scanning

import (
	"context"
	"errors"

	"github.com/zombor/receipt-items/internal/document"
)

// ErrAnalysisPending is returned when a document analysis job has not finished yet
var ErrAnalysisPending = errors.New("analysis in progress")

// ErrThrottled is returned when the analysis service rejects a call for rate or quota reasons
var ErrThrottled = errors.New("analysis service throttled")

// ErrUnknownJob is returned when the analysis service does not know a job ID
var ErrUnknownJob = errors.New("unknown analysis job")

// Document locates a receipt image or PDF in object storage
type Document struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Analysis is the finished result of a document analysis job
type Analysis struct {
	JobID    string
	Status   string
	Blocks   []document.Block
	Warnings []string
}

// Scanner defines the interface for asynchronous document analysis
type Scanner interface {
	// StartAnalysis starts table analysis of a stored document and returns the job ID
	StartAnalysis(ctx context.Context, doc Document) (string, error)
	// GetAnalysis fetches every block of a finished analysis job
	GetAnalysis(ctx context.Context, jobID string) (*Analysis, error)
	// Close releases resources held by the scanner
	Close() error
}
