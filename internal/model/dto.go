package model

import "time"

// RecordRequest is the body of single create and update calls. ValidUpto
// accepts a spreadsheet serial number or a date string. CodeNo and AdhaarNo
// accept numbers as well as strings.
type RecordRequest struct {
	Name        string      `json:"name"`
	Designation string      `json:"designation"`
	WorkingArea string      `json:"workingArea"`
	ValidUpto   interface{} `json:"validUpto"`
	CodeNo      interface{} `json:"codeNo"`
	AdhaarNo    interface{} `json:"adhaarNo"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type ImportJob struct {
	ID         string    `json:"id"`
	S3Path     string    `json:"s3_path"`
	FileName   string    `json:"file_name"`
	Checksum   string    `json:"checksum"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusDone       JobStatus = "DONE"
	JobStatusFailed     JobStatus = "FAILED"
)

type ImportJobState struct {
	JobID     string        `json:"job_id"`
	Status    JobStatus     `json:"status"`
	FileName  string        `json:"file_name,omitempty"`
	Report    *ImportReport `json:"report,omitempty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}
