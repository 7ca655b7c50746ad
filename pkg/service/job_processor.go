package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lingosense/pkg/pipeline"
)

// DefaultJobTimeout bounds a single background pipeline run.
const DefaultJobTimeout = 10 * time.Minute

// JobProcessor runs pipeline jobs asynchronously.
type JobProcessor struct {
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
	timeout  time.Duration
}

// NewJobProcessor creates a new job processor. A non-positive timeout
// selects DefaultJobTimeout.
func NewJobProcessor(p *pipeline.Pipeline, logger *logrus.Logger, timeout time.Duration) *JobProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &JobProcessor{pipeline: p, logger: logger, timeout: timeout}
}

// Validate rejects requests naming unsupported languages before a job is
// queued.
func (p *JobProcessor) Validate(req JobRequest) error {
	reg := p.pipeline.Registry()
	if _, err := reg.Lookup(req.Source); err != nil {
		return err
	}
	for _, tag := range req.Targets {
		if _, err := reg.Lookup(tag); err != nil {
			return err
		}
	}
	return nil
}

// ProcessJob runs the pipeline for job and records its progress and outcome.
func (p *JobProcessor) ProcessJob(job *PipelineJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	startTime := time.Now()
	log := p.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"request_id": job.RequestID,
	})
	log.Info("Starting pipeline job processing")

	job.UpdateStatus(JobStatusProcessing, "Starting pipeline...")

	req := job.Request
	res, err := p.pipeline.RunWithProgress(ctx, req.Text, req.Source, req.Targets, job.UpdateProgress)
	if err != nil {
		log.WithError(err).Error("Pipeline job failed")
		job.SetError(fmt.Errorf("pipeline failed: %w", err))
		return
	}

	job.SetResult(res)

	log.WithFields(logrus.Fields{
		"duration_seconds": time.Since(startTime).Seconds(),
		"entries":          len(res.Entries),
		"failures":         len(res.Failures),
	}).Info("Pipeline job completed")
}
