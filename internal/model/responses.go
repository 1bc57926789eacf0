package model

import "time"

// JobCreatedResponse is returned when an upload batch is accepted.
type JobCreatedResponse struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	StatusURL string    `json:"statusUrl"`
	FileCount int       `json:"fileCount"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileStatusResponse is the per-file view in a status lookup.
type FileStatusResponse struct {
	OriginalName string     `json:"originalName"`
	Status       FileStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
	DownloadURL  string     `json:"downloadUrl,omitempty"`
}

// JobStatusResponse is returned by the status entry point.
type JobStatusResponse struct {
	ID        string               `json:"id"`
	Status    JobStatus            `json:"status"`
	Error     string               `json:"error,omitempty"`
	Files     []FileStatusResponse `json:"files"`
	CreatedAt time.Time            `json:"createdAt"`
	ExpiresAt time.Time            `json:"expiresAt"`
}
