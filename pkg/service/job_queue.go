package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lingosense/pkg/pipeline"
)

// ErrJobNotFound is returned for unknown or purged job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a pipeline job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Finished reports whether the job has reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobRequest describes an asynchronous pipeline run.
type JobRequest struct {
	RequestID string   `json:"request_id"`
	Text      string   `json:"text"`
	Source    string   `json:"source"`
	Targets   []string `json:"targets"`
}

// PipelineJob represents an asynchronous pipeline run.
type PipelineJob struct {
	ID        string
	RequestID string // Client-provided job ID
	CreatedAt time.Time
	Request   JobRequest

	mu              sync.RWMutex
	status          JobStatus
	stage           pipeline.Stage
	startedAt       *time.Time
	completedAt     *time.Time
	err             string
	result          *pipeline.Result
	progressPercent int32
	progressMessage string
}

// JobSnapshot is a consistent copy of a job's mutable state.
type JobSnapshot struct {
	ID              string
	RequestID       string
	Status          JobStatus
	Stage           pipeline.Stage
	ProgressPercent int32
	ProgressMessage string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	Error           string
	Result          *pipeline.Result
}

// JobQueue manages asynchronous pipeline jobs.
type JobQueue struct {
	jobs      map[string]*PipelineJob
	jobsMu    sync.RWMutex
	logger    *logrus.Logger
	processor *JobProcessor
}

// NewJobQueue creates a new job queue.
func NewJobQueue(logger *logrus.Logger) *JobQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobQueue{
		jobs:   make(map[string]*PipelineJob),
		logger: logger,
	}
}

// SetProcessor sets the job processor for this queue.
func (q *JobQueue) SetProcessor(processor *JobProcessor) {
	q.processor = processor
}

// CreateJob validates req, stores a new job and starts it in the background
// when a processor is set.
func (q *JobQueue) CreateJob(req JobRequest) (string, error) {
	if strings.TrimSpace(req.Source) == "" {
		return "", fmt.Errorf("source is required")
	}
	if q.processor != nil {
		if err := q.processor.Validate(req); err != nil {
			return "", err
		}
	}

	job := &PipelineJob{
		ID:        uuid.New().String(),
		RequestID: req.RequestID,
		CreatedAt: time.Now(),
		Request:   req,
		status:    JobStatusQueued,
	}
	job.Request.Targets = append([]string(nil), req.Targets...)

	q.jobsMu.Lock()
	q.jobs[job.ID] = job
	q.jobsMu.Unlock()

	q.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"request_id":  req.RequestID,
		"source_lang": req.Source,
		"targets":     len(req.Targets),
	}).Info("Created pipeline job")

	if q.processor != nil {
		go q.processor.ProcessJob(job)
	}

	return job.ID, nil
}

// GetJob retrieves a job by ID.
func (q *JobQueue) GetJob(jobID string) (*PipelineJob, error) {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()

	job, exists := q.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// Len returns the number of stored jobs.
func (q *JobQueue) Len() int {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()
	return len(q.jobs)
}

// UpdateStatus updates the status of a job.
func (j *PipelineJob) UpdateStatus(status JobStatus, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.status = status
	j.progressMessage = message

	now := time.Now()
	switch status {
	case JobStatusProcessing:
		if j.startedAt == nil {
			j.startedAt = &now
		}
	case JobStatusCompleted, JobStatusFailed:
		if j.completedAt == nil {
			j.completedAt = &now
		}
	}
}

// UpdateProgress records the current stage and progress of a job.
func (j *PipelineJob) UpdateProgress(stage pipeline.Stage, percent int32, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stage = stage
	if percent > j.progressPercent {
		j.progressPercent = percent
	}
	j.progressMessage = message
}

// SetError sets the error message for a failed job.
func (j *PipelineJob) SetError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.err = err.Error()
	j.status = JobStatusFailed
	now := time.Now()
	j.completedAt = &now
}

// SetResult stores the pipeline result of a completed job.
func (j *PipelineJob) SetResult(res *pipeline.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.result = res
	j.status = JobStatusCompleted
	j.stage = pipeline.StageDone
	now := time.Now()
	j.completedAt = &now
	j.progressPercent = 100
	j.progressMessage = "Pipeline completed"
}

// Snapshot returns a copy of the job state (thread-safe).
func (j *PipelineJob) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return JobSnapshot{
		ID:              j.ID,
		RequestID:       j.RequestID,
		Status:          j.status,
		Stage:           j.stage,
		ProgressPercent: j.progressPercent,
		ProgressMessage: j.progressMessage,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.startedAt,
		CompletedAt:     j.completedAt,
		Error:           j.err,
		Result:          j.result,
	}
}

// View renders the snapshot as a JSON-compatible document.
func (s JobSnapshot) View() map[string]interface{} {
	view := map[string]interface{}{
		"job_id":           s.ID,
		"request_id":       s.RequestID,
		"status":           string(s.Status),
		"stage":            string(s.Stage),
		"progress_percent": s.ProgressPercent,
		"progress_message": s.ProgressMessage,
		"created_at":       s.CreatedAt.Format(time.RFC3339),
	}
	if s.StartedAt != nil {
		view["started_at"] = s.StartedAt.Format(time.RFC3339)
	}
	if s.CompletedAt != nil {
		view["completed_at"] = s.CompletedAt.Format(time.RFC3339)
	}
	if s.Error != "" {
		view["error"] = s.Error
	}
	if s.Status == JobStatusCompleted && s.Result != nil {
		view["result"] = ResultView(s.Result)
	}
	return view
}

// CleanupOldJobs removes finished jobs that completed more than maxAge ago.
func (q *JobQueue) CleanupOldJobs(maxAge time.Duration) int {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()

	now := time.Now()
	removed := 0

	for id, job := range q.jobs {
		snap := job.Snapshot()
		if snap.Status.Finished() && snap.CompletedAt != nil && now.Sub(*snap.CompletedAt) > maxAge {
			delete(q.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		q.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(q.jobs),
		}).Info("Cleaned up old pipeline jobs")
	}
	return removed
}
