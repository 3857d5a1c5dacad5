package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-items/internal/scanning"
)

const recordsContentType = "application/x-ndjson"

var (
	// ErrUploadsDisabled is returned when no input bucket is configured
	ErrUploadsDisabled = errors.New("uploads are not configured")

	// ErrJobNotProcessed is returned when records are requested for an unfinished job
	ErrJobNotProcessed = errors.New("job not processed")

	// ErrAnalysisFailed is returned when the analysis service reports a failed job
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrInvalidNotification is returned for completion messages without a job ID
	ErrInvalidNotification = errors.New("notification without job ID")

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// IDGenerator generates unique IDs for uploaded objects
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Options configures a Service
type Options struct {
	// InputBucket receives uploaded receipts; uploads are disabled when empty
	InputBucket string
	Currency    string
	Heuristics  Heuristics
}

// Service handles receipt analysis jobs
type Service struct {
	db          DB
	scanner     scanning.Scanner
	inputs      Storage
	outputs     Storage
	options     Options
	idGenerator IDGenerator
	timeSource  TimeSource
	metrics     *metrics
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, inputs, outputs Storage, options Options) *Service {
	return NewServiceWithDeps(db, scanner, inputs, outputs, options, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, inputs, outputs Storage, options Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		inputs:      inputs,
		outputs:     outputs,
		options:     options,
		idGenerator: idGen,
		timeSource:  timeSrc,
		metrics:     newMetrics(),
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// 50 chars for base, plus extension
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// Trigger starts analysis of a stored document and records the job
func (s *Service) Trigger(ctx context.Context, doc scanning.Document) (*Job, error) {
	jobID, err := s.scanner.StartAnalysis(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("starting analysis: %w", err)
	}

	// redelivered events reuse the request token and get the same job back
	if job, err := s.db.GetJob(jobID); err == nil {
		return job, nil
	}

	now := s.timeSource.Now()
	job := &Job{
		ID:        jobID,
		Document:  doc,
		Status:    JobStatusStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.SaveJob(job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	slog.Info("Analysis started", "job_id", jobID, "bucket", doc.Bucket, "key", doc.Key)
	return job, nil
}

// Upload stores a receipt in the input bucket and starts its analysis
func (s *Service) Upload(ctx context.Context, filename string, data []byte, contentType string) (*Job, error) {
	if s.inputs == nil || s.options.InputBucket == "" {
		return nil, ErrUploadsDisabled
	}

	prepared, mimeType, converted, err := scanning.PrepareDocument(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("preparing document: %w", err)
	}

	name := sanitizeFilename(filename)
	if converted {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}

	key, err := s.inputs.Save(fmt.Sprintf("uploads/%s_%s", s.idGenerator.Generate(), name), prepared, mimeType)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	job, err := s.Trigger(ctx, scanning.Document{Bucket: s.options.InputBucket, Key: key})
	if err != nil {
		slog.Error("Failed to start analysis",
			"filename", filename,
			"content_type", mimeType,
			"file_size", len(prepared),
			"error", err,
		)
		if delErr := s.inputs.Delete(key); delErr != nil {
			slog.Warn("Failed to delete upload", "key", key, "error", delErr)
		}
		return nil, err
	}

	return job, nil
}

// Process turns a finished analysis into records in output storage.
// Jobs that were already processed are returned unchanged.
func (s *Service) Process(ctx context.Context, jobID string) (*Job, error) {
	job, err := s.db.GetJob(jobID)
	if errors.Is(err, ErrJobNotFound) {
		now := s.timeSource.Now()
		job = &Job{ID: jobID, Status: JobStatusStarted, CreatedAt: now, UpdatedAt: now}
	} else if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	if job.Status == JobStatusProcessed {
		return job, nil
	}

	return s.process(ctx, job)
}

// HandleNotification processes the job named by a completion message
func (s *Service) HandleNotification(ctx context.Context, n Notification) (*Job, error) {
	if n.JobID == "" {
		return nil, ErrInvalidNotification
	}

	job, err := s.db.GetJob(n.JobID)
	if errors.Is(err, ErrJobNotFound) {
		now := s.timeSource.Now()
		job = &Job{
			ID:        n.JobID,
			Document:  n.DocumentLocation.Document(),
			Status:    JobStatusStarted,
			CreatedAt: now,
			UpdatedAt: now,
		}
	} else if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}

	if job.Status == JobStatusProcessed {
		return job, nil
	}

	if n.Status != notificationSucceeded {
		s.fail(ctx, job, fmt.Errorf("%w: %s", ErrAnalysisFailed, n.Status))
		return job, nil
	}

	return s.process(ctx, job)
}

func (s *Service) process(ctx context.Context, job *Job) (*Job, error) {
	analysis, err := s.scanner.GetAnalysis(ctx, job.ID)
	if errors.Is(err, scanning.ErrAnalysisPending) || errors.Is(err, scanning.ErrThrottled) {
		return nil, err
	}
	if errors.Is(err, scanning.ErrUnknownJob) {
		return nil, fmt.Errorf("%w: %w", ErrJobNotFound, err)
	}
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("fetching analysis: %w", err))
	}

	result, err := s.options.Heuristics.Interpret(analysis.Blocks)
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("interpreting receipt: %w", err))
	}

	records, ts, err := BuildRecords(result, s.options.Currency)
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("building records: %w", err))
	}

	var buf bytes.Buffer
	if err := EncodeRecords(&buf, records); err != nil {
		return nil, s.fail(ctx, job, err)
	}

	key, err := s.outputs.Save(ObjectKey(result.Info.Store, ts), buf.Bytes(), recordsContentType)
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("saving records: %w", err))
	}

	job.Status = JobStatusProcessed
	job.Store = result.Info.Store
	job.OutputKey = key
	job.ItemCount = len(records)
	job.Stats = &result.Stats
	job.Error = ""
	job.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveJob(job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}
	s.metrics.processed(ctx, job)

	slog.Info("Receipt processed",
		"job_id", job.ID,
		"store", job.Store,
		"items", job.ItemCount,
		"output_key", key,
	)
	return job, nil
}

// fail records a processing error on the job and returns it
func (s *Service) fail(ctx context.Context, job *Job, err error) error {
	job.Status = JobStatusFailed
	job.Error = err.Error()
	job.UpdatedAt = s.timeSource.Now()

	slog.Error("Failed to process receipt", "job_id", job.ID, "key", job.Document.Key, "error", err)
	if saveErr := s.db.SaveJob(job); saveErr != nil {
		slog.Error("Failed to save job", "job_id", job.ID, "error", saveErr)
	}
	s.metrics.processed(ctx, job)

	return err
}

// GetJob retrieves a job by ID
func (s *Service) GetJob(id string) (*Job, error) {
	job, err := s.db.GetJob(id)
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs
func (s *Service) ListJobs() ([]*Job, error) {
	jobs, err := s.db.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// GetJobRecords returns the NDJSON records written for a processed job
func (s *Service) GetJobRecords(id string) ([]byte, error) {
	job, err := s.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status != JobStatusProcessed {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobNotProcessed, id, job.Status)
	}

	data, err := s.outputs.Get(job.OutputKey)
	if err != nil {
		return nil, fmt.Errorf("getting records: %w", err)
	}
	return data, nil
}
