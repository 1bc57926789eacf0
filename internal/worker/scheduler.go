// Package worker contains the scheduler that drains the job queue: it
// admits queued jobs up to a fixed concurrency limit and advances each
// job's files through their state machine, one file at a time.
package worker

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/quietcut/api/internal/client"
	"github.com/quietcut/api/internal/config"
	"github.com/quietcut/api/internal/model"
	"github.com/quietcut/api/internal/processor"
	"github.com/quietcut/api/internal/service"
	"github.com/quietcut/api/internal/storage"
	"github.com/quietcut/api/internal/websocket"
)

// Scheduler owns the pending queue and the active-job count. All queue
// state is mutated only inside Run's loop, which receives submissions and
// completions over channels; nothing else touches it, so no lock is
// needed. The limit bounds jobs in processing, not tool processes — a
// job's files run strictly sequentially.
type Scheduler struct {
	jobs  *service.JobService
	store *storage.Store
	tool  client.MediaTool
	hub   *websocket.Hub
	cfg   config.ProcessingConfig

	submitCh chan string
	doneCh   chan string
}

// NewScheduler wires the scheduler to the registry, disk store, media
// tool and (optionally nil) websocket hub.
func NewScheduler(jobs *service.JobService, store *storage.Store, tool client.MediaTool, hub *websocket.Hub, cfg config.ProcessingConfig) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		store:    store,
		tool:     tool,
		hub:      hub,
		cfg:      cfg,
		submitCh: make(chan string, 64),
		doneCh:   make(chan string),
	}
}

// Submit enqueues a created job for admission.
func (s *Scheduler) Submit(jobID string) {
	s.submitCh <- jobID
}

// Run is the queue-owning loop. It admits pending jobs whenever a slot is
// free and re-attempts admission on every completion, including failed
// ones, so one errored job never stalls the queue.
func (s *Scheduler) Run(ctx context.Context) {
	var pending []string
	active := 0

	admit := func() {
		for active < s.cfg.Concurrency && len(pending) > 0 {
			id := pending[0]
			pending = pending[1:]
			active++
			go s.runJob(ctx, id)
		}
	}

	for {
		select {
		case id := <-s.submitCh:
			pending = append(pending, id)
			admit()
		case <-s.doneCh:
			active--
			admit()
		case <-ctx.Done():
			return
		}
	}
}

// runJob advances one job through its state machine. Files are processed
// in upload order; the first failure marks the job errored and the
// remaining files are not attempted.
func (s *Scheduler) runJob(ctx context.Context, jobID string) {
	defer func() {
		// Run may already have exited on shutdown and stopped reading
		// completions; don't block forever on the handoff.
		select {
		case s.doneCh <- jobID:
		case <-ctx.Done():
		}
	}()

	snap, ok := s.jobs.Snapshot(jobID)
	if !ok {
		// Expired while waiting in the queue.
		return
	}

	s.setJobStatus(jobID, model.JobStatusProcessing, "")

	for i, f := range snap.Files {
		s.setFileStatus(jobID, i, f.OriginalName, model.FileStatusProcessing, "", "")

		outputName, err := s.processFile(ctx, snap, f)
		if err != nil {
			if _, alive := s.jobs.Snapshot(jobID); !alive {
				// Expired mid-file: the paths are gone and the record
				// with them; nothing left to report against.
				log.Printf("Job %s expired while processing %q", jobID, f.OriginalName)
				return
			}
			log.Printf("Job %s: file %q failed: %v", jobID, f.OriginalName, err)
			s.setFileStatus(jobID, i, f.OriginalName, model.FileStatusError, err.Error(), "")
			s.setJobStatus(jobID, model.JobStatusError, fmt.Sprintf("%s: %v", f.OriginalName, err))
			if s.hub != nil {
				s.hub.BroadcastError(jobID, "PROCESSING_FAILED", err.Error())
			}
			return
		}

		s.jobs.SetFileOutput(jobID, i, outputName)
		s.setFileStatus(jobID, i, f.OriginalName, model.FileStatusDone, "", outputName)

		if err := s.store.RemoveInput(f.InputPath); err != nil {
			log.Printf("Job %s: could not remove input %q: %v", jobID, f.InputPath, err)
		}
	}

	s.setJobStatus(jobID, model.JobStatusDone, "")
	log.Printf("Job %s completed", jobID)
}

// processFile runs the full pipeline for one file: probe, detect, plan,
// then either the fast copy path (no silences) or a trim/fade/concat
// re-encode, and returns the produced output name.
func (s *Scheduler) processFile(ctx context.Context, job *model.Job, f *model.FileTask) (string, error) {
	total, err := processor.ProbeDuration(ctx, s.tool, f.InputPath)
	if err != nil {
		return "", err
	}

	silences, err := processor.DetectSilences(ctx, s.tool, f.InputPath, s.cfg.NoiseDb, s.cfg.MinSilenceSec)
	if err != nil {
		return "", err
	}

	outputName := outputNameFor(f.InputPath)
	outputPath := filepath.Join(job.OutputDir, outputName)

	var args []string
	if len(silences) == 0 {
		// Fast path: nothing to cut, stream copy.
		args = []string{"-y", "-i", f.InputPath, "-c", "copy", outputPath}
	} else {
		segments := processor.PlanSegments(silences, total, processor.PlanOptions{
			PreBuffer:    s.cfg.PreBufferSec,
			PostBuffer:   s.cfg.PostBufferSec,
			MinKeep:      s.cfg.MinKeepSec,
			KeepTrailing: s.cfg.KeepTrailing,
		})
		if len(segments) == 0 {
			// The whole file is silence; surface it instead of emitting
			// an empty encode.
			return "", processor.ErrEmptyResult
		}
		graph := processor.BuildFilterGraph(segments, s.cfg.FadeSec)
		args = []string{
			"-y", "-i", f.InputPath,
			"-filter_complex", graph.Spec,
			"-map", graph.VideoLabel,
			"-map", graph.AudioLabel,
			outputPath,
		}
	}

	if out, err := s.tool.Run(ctx, args...); err != nil {
		return "", &processor.ToolError{Op: "encode", Output: tail(out), Err: err}
	}
	return outputName, nil
}

func (s *Scheduler) setJobStatus(jobID string, status model.JobStatus, errMsg string) {
	if !s.jobs.SetJobStatus(jobID, status, errMsg) {
		return
	}
	if s.hub != nil {
		s.hub.BroadcastJobStatus(jobID, status)
	}
}

func (s *Scheduler) setFileStatus(jobID string, idx int, originalName string, status model.FileStatus, errMsg, outputName string) {
	if !s.jobs.SetFileStatus(jobID, idx, status, errMsg) {
		return
	}
	if s.hub != nil {
		s.hub.BroadcastFileStatus(jobID, originalName, status, outputName)
	}
}

// outputNameFor derives the output filename from the stored input name:
// "00_talk.mp4" becomes "00_talk_cut.mp4". Stored names already carry an
// index prefix, so outputs of duplicate uploads stay distinct.
func outputNameFor(inputPath string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_cut" + ext
}

func tail(out string) string {
	const max = 512
	if len(out) <= max {
		return out
	}
	return "..." + out[len(out)-max:]
}
