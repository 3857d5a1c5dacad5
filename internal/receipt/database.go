package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const jobBucketName = "jobs"

// ErrJobNotFound is returned when no job exists with the requested ID
var ErrJobNotFound = errors.New("job not found")

// DB defines the interface for database operations
type DB interface {
	// SaveJob creates or replaces a job
	SaveJob(job *Job) error

	// GetJob retrieves a job by ID
	GetJob(id string) (*Job, error)

	// ListJobs returns all jobs
	ListJobs() ([]*Job, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(jobBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveJob saves a job to the database
func (b *BoltDB) SaveJob(job *Job) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobBucketName))
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshaling job: %w", err)
		}
		return bucket.Put([]byte(job.ID), data)
	})
}

// GetJob retrieves a job by ID
func (b *BoltDB) GetJob(id string) (*Job, error) {
	var job *Job
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return json.Unmarshal(data, &job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns all jobs ordered by job ID
func (b *BoltDB) ListJobs() ([]*Job, error) {
	jobs := make([]*Job, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return fmt.Errorf("unmarshaling job: %w", err)
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
