package receipt

import "github.com/zombor/receipt-items/internal/scanning"

const notificationSucceeded = "SUCCEEDED"

// Notification is the completion message published when an analysis job finishes
type Notification struct {
	JobID            string           `json:"JobId"`
	Status           string           `json:"Status"`
	API              string           `json:"API"`
	JobTag           string           `json:"JobTag,omitempty"`
	Timestamp        int64            `json:"Timestamp"`
	DocumentLocation DocumentLocation `json:"DocumentLocation"`
}

// DocumentLocation is the analyzed object as reported in a Notification
type DocumentLocation struct {
	S3ObjectName string `json:"S3ObjectName"`
	S3Bucket     string `json:"S3Bucket"`
}

// Document returns the location as a scanning.Document
func (l DocumentLocation) Document() scanning.Document {
	return scanning.Document{Bucket: l.S3Bucket, Key: l.S3ObjectName}
}
