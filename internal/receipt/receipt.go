package receipt

import (
	"time"

	"github.com/zombor/receipt-items/internal/scanning"
)

// JobStatus is the processing state of a receipt analysis job
type JobStatus string

const (
	JobStatusStarted   JobStatus = "STARTED"
	JobStatusProcessed JobStatus = "PROCESSED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job tracks one receipt from analysis start to written records
type Job struct {
	ID        string            `json:"id"` // analysis job ID
	Document  scanning.Document `json:"document"`
	Status    JobStatus         `json:"status"`
	Store     string            `json:"store,omitempty"`
	OutputKey string            `json:"output_key,omitempty"`
	ItemCount int               `json:"item_count"`
	Stats     *Stats            `json:"stats,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
