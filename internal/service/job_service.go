package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quietcut/api/internal/model"
	"github.com/quietcut/api/internal/storage"
)

var (
	// ErrJobNotFound covers both unknown and expired job identifiers; an
	// expired job is indistinguishable from one that never existed.
	ErrJobNotFound = errors.New("job not found or expired")
	// ErrFileNotFound reports a download name that does not belong to a
	// completed file of the job.
	ErrFileNotFound = errors.New("output file not found")
)

// Upload is one file of an upload batch, as handed over by the HTTP layer.
type Upload struct {
	Name string
	Data io.Reader
}

// JobService is the in-memory job registry. Job records live only for the
// process lifetime and each carries a TTL timer started at creation; at
// expiry the record is dropped and its directories removed regardless of
// processing state. Every mutation of a record goes through this service
// under its lock.
type JobService struct {
	mu     sync.RWMutex
	jobs   map[string]*model.Job
	timers map[string]*time.Timer

	store *storage.Store
	ttl   time.Duration
}

// NewJobService creates a registry whose jobs expire after ttl.
func NewJobService(store *storage.Store, ttl time.Duration) *JobService {
	return &JobService{
		jobs:   make(map[string]*model.Job),
		timers: make(map[string]*time.Timer),
		store:  store,
		ttl:    ttl,
	}
}

// Create allocates a job with isolated upload/output directories, stores
// every upload, registers the record as queued and arms its expiry timer.
func (s *JobService) Create(uploads []Upload) (*model.Job, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files to process")
	}

	id := uuid.New().String()
	uploadDir, outputDir, err := s.store.CreateJobDirs(id)
	if err != nil {
		return nil, err
	}

	files := make([]*model.FileTask, 0, len(uploads))
	for i, u := range uploads {
		// Index prefix keeps duplicate client filenames apart on disk.
		stored := fmt.Sprintf("%02d_%s", i, storage.SanitizeName(u.Name))
		path, err := s.store.SaveUpload(uploadDir, stored, u.Data)
		if err != nil {
			_ = s.store.RemoveJob(id)
			return nil, err
		}
		files = append(files, &model.FileTask{
			OriginalName: u.Name,
			InputPath:    path,
			Status:       model.FileStatusQueued,
		})
	}

	now := time.Now()
	job := &model.Job{
		ID:        id,
		Status:    model.JobStatusQueued,
		Files:     files,
		UploadDir: uploadDir,
		OutputDir: outputDir,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.timers[id] = time.AfterFunc(s.ttl, func() { s.expire(id) })
	s.mu.Unlock()

	return copyJob(job), nil
}

// Snapshot returns a deep copy of the job so readers never observe a
// record mid-mutation.
func (s *JobService) Snapshot(id string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return copyJob(job), true
}

// SetJobStatus transitions the job; false means the record already
// expired, which the scheduler treats as an abort signal.
func (s *JobService) SetJobStatus(id string, status model.JobStatus, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	job.Status = status
	if errMsg != "" {
		job.Error = errMsg
	}
	return true
}

// SetFileStatus transitions one file of the job.
func (s *JobService) SetFileStatus(id string, idx int, status model.FileStatus, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || idx < 0 || idx >= len(job.Files) {
		return false
	}
	job.Files[idx].Status = status
	if errMsg != "" {
		job.Files[idx].Error = errMsg
	}
	return true
}

// SetFileOutput records a file's output name; set exactly once, on success.
func (s *JobService) SetFileOutput(id string, idx int, outputName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || idx < 0 || idx >= len(job.Files) {
		return false
	}
	job.Files[idx].OutputName = outputName
	return true
}

// ResolveDownload maps a job id and output name to a file on disk,
// requiring the file to be done.
func (s *JobService) ResolveDownload(id, name string) (string, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.RUnlock()
		return "", ErrJobNotFound
	}
	outputDir := job.OutputDir
	found := false
	for _, f := range job.Files {
		if f.Status == model.FileStatusDone && f.OutputName == name {
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if !found {
		return "", ErrFileNotFound
	}
	path, err := s.store.OutputPath(outputDir, name)
	if err != nil {
		return "", ErrFileNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}

// expire drops the record and removes the job's directory tree. A job may
// expire while processing; the in-flight tool invocation then fails on the
// missing paths and the scheduler finds the record gone.
func (s *JobService) expire(id string) {
	s.mu.Lock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	delete(s.timers, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.store.RemoveJob(id); err != nil {
		log.Printf("Failed to remove expired job %s: %v", id, err)
		return
	}
	log.Printf("Job %s expired and was removed", id)
}

// Close stops all expiry timers. Job directories are left for the next
// start to reuse or clean.
func (s *JobService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func copyJob(job *model.Job) *model.Job {
	cp := *job
	cp.Files = make([]*model.FileTask, len(job.Files))
	for i, f := range job.Files {
		fc := *f
		cp.Files[i] = &fc
	}
	return &cp
}
