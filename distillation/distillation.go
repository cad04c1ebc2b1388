// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package distillation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/google/uuid"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/pipeline"
)

// Service submits distillation pipeline jobs and tracks them to completion.
//
// Methods, except Close, may be called concurrently.
type Service struct {
	pipelines *pipeline.Service
	logger    *slog.Logger
}

// NewService creates a distillation client for the given project and
// location.
func NewService(ctx context.Context, projectID, location string, opts ...aiplatform.Option) (*Service, error) {
	cfg := aiplatform.NewClientConfig(opts...)
	pipelines, err := pipeline.NewService(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pipeline service: %w", err)
	}
	return &Service{
		pipelines: pipelines,
		logger:    cfg.LoggerFor(ctx),
	}, nil
}

// Close releases the connections held by the client.
func (s *Service) Close() error {
	return s.pipelines.Close()
}

// Pipelines returns the underlying pipeline service client.
func (s *Service) Pipelines() *pipeline.Service { return s.pipelines }

// Start validates the config, builds the distillation pipeline job and
// submits it. The returned Job is already running server-side.
func (s *Service) Start(ctx context.Context, cfg *Config, opts ...gax.CallOption) (*Job, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	params, err := cfg.parameterValues()
	if err != nil {
		return nil, err
	}

	jobID := "distillation-" + uuid.NewString()
	req := &aiplatformpb.CreatePipelineJobRequest{
		Parent:        s.pipelines.GetParent(),
		PipelineJobId: jobID,
		PipelineJob: &aiplatformpb.PipelineJob{
			DisplayName: jobID,
			TemplateUri: cfg.templateURI(),
			RuntimeConfig: &aiplatformpb.PipelineJob_RuntimeConfig{
				GcsOutputDirectory: cfg.PipelineRootURI,
				ParameterValues:    params,
			},
		},
	}

	created, err := s.pipelines.CreatePipelineJob(ctx, req, opts...)
	if err != nil {
		return nil, fmt.Errorf("submit distillation job: %w", err)
	}
	s.logger.InfoContext(ctx, "distillation job submitted",
		slog.String("job", created.GetName()),
		slog.String("student", cfg.StudentModel),
		slog.String("teacher", cfg.TeacherModel),
	)
	return &Job{service: s, name: created.GetName(), job: created}, nil
}

// Job tracks a submitted distillation pipeline job.
//
// Job is not safe for concurrent use.
type Job struct {
	service *Service
	name    string
	job     *aiplatformpb.PipelineJob

	// PollInterval is the initial delay between Wait's polls; the delay
	// backs off to a five minute cap. Zero means 10 seconds.
	PollInterval time.Duration
}

// Job returns a handle to a previously submitted distillation job by its
// pipeline job resource name.
func (s *Service) Job(name string) *Job {
	return &Job{service: s, name: name}
}

// Name returns the pipeline job resource name.
func (j *Job) Name() string { return j.name }

// State returns the job state from the most recent poll, or UNSPECIFIED if
// the job has not been polled yet.
func (j *Job) State() aiplatformpb.PipelineState {
	return j.job.GetState()
}

// Done reports whether the most recently observed state is terminal.
func (j *Job) Done() bool {
	switch j.job.GetState() {
	case aiplatformpb.PipelineState_PIPELINE_STATE_SUCCEEDED,
		aiplatformpb.PipelineState_PIPELINE_STATE_FAILED,
		aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLED:
		return true
	}
	return false
}

// Poll fetches the job's current server-side state.
func (j *Job) Poll(ctx context.Context, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	job, err := j.service.pipelines.GetPipelineJob(ctx, &aiplatformpb.GetPipelineJobRequest{Name: j.name}, opts...)
	if err != nil {
		return nil, err
	}
	j.job = job
	return job, nil
}

// Wait polls the job until it reaches a terminal state or ctx is done. It
// returns the terminal job; a failed or cancelled run also yields an error
// carrying the pipeline's reported failure.
func (j *Job) Wait(ctx context.Context, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	initial := j.PollInterval
	if initial == 0 {
		initial = 10 * time.Second
	}
	bo := gax.Backoff{
		Initial:    initial,
		Max:        5 * time.Minute,
		Multiplier: 1.6,
	}
	for {
		job, err := j.Poll(ctx, opts...)
		if err != nil {
			return nil, err
		}
		if j.Done() {
			switch job.GetState() {
			case aiplatformpb.PipelineState_PIPELINE_STATE_FAILED:
				return job, fmt.Errorf("distillation job %s failed: %s", j.name, job.GetError().GetMessage())
			case aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLED:
				return job, fmt.Errorf("distillation job %s was cancelled", j.name)
			}
			return job, nil
		}
		if err := gax.Sleep(ctx, bo.Pause()); err != nil {
			return nil, err
		}
	}
}

// Cancel asks the server to cancel the job. The job transitions to
// CANCELLED asynchronously; Wait observes the transition.
func (j *Job) Cancel(ctx context.Context, opts ...gax.CallOption) error {
	return j.service.pipelines.CancelPipelineJob(ctx, &aiplatformpb.CancelPipelineJobRequest{Name: j.name}, opts...)
}
