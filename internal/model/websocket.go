package model

// WebSocket message types
const (
	WSMessageTypeJobStatus  = "job_status"
	WSMessageTypeFileStatus = "file_status"
	WSMessageTypeError      = "error"
	WSMessageTypePing       = "ping"
	WSMessageTypePong       = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSJobStatusMessage announces a job state transition
type WSJobStatusMessage struct {
	Type   string    `json:"type"`
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

// WSFileStatusMessage announces a file state transition within a job
type WSFileStatusMessage struct {
	Type         string     `json:"type"`
	JobID        string     `json:"jobId"`
	OriginalName string     `json:"originalName"`
	Status       FileStatus `json:"status"`
	OutputName   string     `json:"outputName,omitempty"`
}

// WSErrorMessage represents a job or file failure
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
