package handler

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/quietcut/api/internal/model"
	"github.com/quietcut/api/internal/service"
	"github.com/quietcut/api/pkg/response"
)

type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Status handles GET /api/jobs/:jobId. Unknown and expired jobs get the
// same response: the record is gone either way.
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, ok := h.jobs.Snapshot(jobID)
	if !ok {
		return response.Expired(c, "Job expired or not found")
	}

	files := make([]model.FileStatusResponse, 0, len(job.Files))
	for _, f := range job.Files {
		fr := model.FileStatusResponse{
			OriginalName: f.OriginalName,
			Status:       f.Status,
			Error:        f.Error,
		}
		if f.Status == model.FileStatusDone && f.OutputName != "" {
			fr.DownloadURL = fmt.Sprintf("/api/jobs/%s/files/%s", job.ID, f.OutputName)
		}
		files = append(files, fr)
	}

	return response.OK(c, model.JobStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Error:     job.Error,
		Files:     files,
		CreatedAt: job.CreatedAt,
		ExpiresAt: job.ExpiresAt,
	})
}

// Download handles GET /api/jobs/:jobId/files/:name and streams the
// produced output file.
func (h *JobHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	name := c.Params("name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if name == "" {
		return response.ValidationError(c, "File name is required", nil)
	}

	path, err := h.jobs.ResolveDownload(jobID, name)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.Expired(c, "Job expired or not found")
		}
		return response.NotFound(c, "Output file not found")
	}

	return c.Download(path, name)
}
