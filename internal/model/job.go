package model

import "time"

// Job status
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// File status
type FileStatus string

const (
	FileStatusQueued     FileStatus = "queued"
	FileStatusProcessing FileStatus = "processing"
	FileStatusDone       FileStatus = "done"
	FileStatusError      FileStatus = "error"
)

// FileTask is one uploaded file inside a job. Status and OutputName are
// mutated only through the job registry, which serializes all writes.
type FileTask struct {
	OriginalName string     `json:"originalName"`
	InputPath    string     `json:"-"`
	OutputName   string     `json:"outputName,omitempty"`
	Status       FileStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// Job is one upload batch. Files are processed strictly in upload order;
// the job reaches done when every file is done, or error on the first
// file failure. The whole record and its on-disk artifacts are destroyed
// at ExpiresAt regardless of processing state.
type Job struct {
	ID        string      `json:"id"`
	Status    JobStatus   `json:"status"`
	Files     []*FileTask `json:"files"`
	UploadDir string      `json:"-"`
	OutputDir string      `json:"-"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
