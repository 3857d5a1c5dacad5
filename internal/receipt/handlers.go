package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-items/internal/scanning"
)

const (
	// 50MB to handle high-resolution phone photos
	maxUploadSize = int64(50 << 20)

	snsSubscriptionConfirmation = "SubscriptionConfirmation"
	snsNotification             = "Notification"
)

// objectCreatedEvent is an EventBridge "Object Created" event from S3
type objectCreatedEvent struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

// snsMessage is the envelope SNS posts to HTTP subscribers
type snsMessage struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicARN     string `json:"TopicArn"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL"`
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, scanning.ErrAnalysisPending), errors.Is(err, ErrJobNotProcessed):
		return http.StatusConflict
	case errors.Is(err, scanning.ErrThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, scanning.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrNoTableFound), errors.Is(err, ErrUnresolvedHeader):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidNotification):
		return http.StatusBadRequest
	case errors.Is(err, ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs a service error and writes the matching response
func writeServiceError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
		writeError(w, status, "Internal server error")
		return
	}
	slog.Warn(msg, "error", err)
	writeError(w, status, err.Error())
}

// contentTypeFor guesses a MIME type from a file extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleUploadReceipt stores an uploaded receipt and starts its analysis
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	// multipart writers default file parts to application/octet-stream
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}

	job, err := s.service.Upload(r.Context(), header.Filename, data, contentType)
	if err != nil {
		writeServiceError(w, "Error uploading receipt", err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// handleObjectCreated starts analysis of a receipt written to the input bucket
func (s *Server) handleObjectCreated(w http.ResponseWriter, r *http.Request) {
	var event objectCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event")
		return
	}

	doc := scanning.Document{Bucket: event.Detail.Bucket.Name, Key: event.Detail.Object.Key}
	if doc.Bucket == "" || doc.Key == "" {
		writeError(w, http.StatusBadRequest, "Event has no bucket or object key")
		return
	}

	job, err := s.service.Trigger(r.Context(), doc)
	if err != nil {
		writeServiceError(w, "Error starting analysis", err)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// handleNotification consumes analysis completion messages delivered by SNS
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	var msg snsMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message")
		return
	}

	switch msg.Type {
	case snsSubscriptionConfirmation:
		slog.Info("Subscription confirmation received", "topic_arn", msg.TopicARN, "subscribe_url", msg.SubscribeURL)
		w.WriteHeader(http.StatusOK)
		return
	case snsNotification:
	default:
		writeError(w, http.StatusBadRequest, "Unsupported message type")
		return
	}

	var n Notification
	if err := json.Unmarshal([]byte(msg.Message), &n); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification")
		return
	}

	job, err := s.service.HandleNotification(r.Context(), n)
	if err != nil {
		writeServiceError(w, "Error handling notification", err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleListJobs returns all jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.service.ListJobs()
	if err != nil {
		writeServiceError(w, "Error listing jobs", err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob returns a single job
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.GetJob(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Error getting job", err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleGetJobRecords returns the NDJSON records of a processed job
func (s *Server) handleGetJobRecords(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetJobRecords(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Error getting records", err)
		return
	}

	w.Header().Set("Content-Type", recordsContentType)
	w.Write(data)
}

// handleProcessJob processes a job without waiting for its notification
func (s *Server) handleProcessJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Process(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "Error processing job", err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}
