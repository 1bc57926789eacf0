package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quietcut/api/internal/config"
	"github.com/quietcut/api/internal/model"
	"github.com/quietcut/api/internal/service"
	"github.com/quietcut/api/internal/worker"
	"github.com/quietcut/api/pkg/response"
)

type UploadHandler struct {
	jobs      *service.JobService
	scheduler *worker.Scheduler
	cfg       config.UploadConfig
}

func NewUploadHandler(jobs *service.JobService, scheduler *worker.Scheduler, cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{
		jobs:      jobs,
		scheduler: scheduler,
		cfg:       cfg,
	}
}

// Create handles POST /api/jobs: accepts a multipart batch of media
// files, creates a queued job and submits it to the scheduler.
func (h *UploadHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "Multipart form required", nil)
	}

	files := form.File["files"]
	if len(files) == 0 {
		return response.ValidationError(c, "At least one file is required", nil)
	}
	if len(files) > h.cfg.MaxFiles {
		return response.ValidationError(c, fmt.Sprintf("At most %d files per job", h.cfg.MaxFiles), map[string]interface{}{
			"maxFiles": h.cfg.MaxFiles,
			"got":      len(files),
		})
	}

	maxSize := int64(h.cfg.MaxFileSizeMB) * 1024 * 1024
	for _, fh := range files {
		if fh.Size > maxSize {
			return response.ValidationError(c, fmt.Sprintf("File %q exceeds the %dMB limit", fh.Filename, h.cfg.MaxFileSizeMB), map[string]interface{}{
				"maxSize":  maxSize,
				"fileSize": fh.Size,
			})
		}
		if !isMediaContentType(fh.Header.Get("Content-Type")) {
			return response.ValidationError(c, fmt.Sprintf("File %q is not an audio or video file", fh.Filename), map[string]interface{}{
				"contentType": fh.Header.Get("Content-Type"),
			})
		}
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return response.ServiceError(c, "Failed to open uploaded file")
		}
		defer f.Close()
		uploads = append(uploads, service.Upload{Name: fh.Filename, Data: f})
	}

	job, err := h.jobs.Create(uploads)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	h.scheduler.Submit(job.ID)

	return response.Accepted(c, model.JobCreatedResponse{
		ID:        job.ID,
		Status:    job.Status,
		StatusURL: fmt.Sprintf("/api/jobs/%s", job.ID),
		FileCount: len(job.Files),
		ExpiresAt: job.ExpiresAt,
	})
}

func isMediaContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "video/")
}
