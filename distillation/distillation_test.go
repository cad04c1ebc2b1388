// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package distillation_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/distillation"
)

func newTestService(t *testing.T, handler http.Handler) *distillation.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := distillation.NewService(t.Context(), "p", "us-central1",
		aiplatform.WithEndpoint(srv.URL),
		aiplatform.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func validConfig() *distillation.Config {
	return &distillation.Config{
		StudentModel:       "text-bison@002",
		TeacherModel:       "text-unicorn@001",
		TrainingDatasetURI: "gs://bucket/prompts.jsonl",
		PipelineRootURI:    "gs://bucket/pipeline-root",
		TrainSteps:         300,
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distill.yaml")
	if err := os.WriteFile(path, []byte(`
student_model: text-bison@002
teacher_model: text-unicorn@001
training_dataset_uri: gs://bucket/prompts.jsonl
pipeline_root_uri: gs://bucket/root
train_steps: 200
learning_rate_multiplier: 0.5
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := distillation.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got, want := cfg.StudentModel, "text-bison@002"; got != want {
		t.Errorf("StudentModel = %q, want %q", got, want)
	}
	if got, want := cfg.TrainSteps, 200; got != want {
		t.Errorf("TrainSteps = %d, want %d", got, want)
	}
	if got, want := cfg.LearningRateMultiplier, 0.5; got != want {
		t.Errorf("LearningRateMultiplier = %v, want %v", got, want)
	}
}

func TestService_Start_invalidConfig(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
	}))

	cfg := validConfig()
	cfg.TeacherModel = ""
	if _, err := svc.Start(t.Context(), cfg); err == nil {
		t.Fatal("Start() succeeded, want validation error")
	}
}

func TestService_Start(t *testing.T) {
	var gotJob map[string]any
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/projects/p/locations/us-central1/pipelineJobs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotJob); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		io.WriteString(w, `{
			"name": "projects/p/locations/us-central1/pipelineJobs/`+r.URL.Query().Get("pipelineJobId")+`",
			"state": "PIPELINE_STATE_PENDING"
		}`)
	}))

	job, err := svc.Start(t.Context(), validConfig())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got, want := gotJob["templateUri"], distillation.DefaultTemplateURI; got != want {
		t.Errorf("templateUri = %v, want %q", got, want)
	}
	rc, _ := gotJob["runtimeConfig"].(map[string]any)
	params, _ := rc["parameterValues"].(map[string]any)
	if got, want := params["student_model_reference"], "text-bison@002"; got != want {
		t.Errorf("student_model_reference = %v, want %q", got, want)
	}
	if got, want := params["train_steps"], float64(300); got != want {
		t.Errorf("train_steps = %v, want %v", got, want)
	}
	if _, ok := params["learning_rate_multiplier"]; ok {
		t.Error("learning_rate_multiplier sent despite being unset")
	}
	if !strings.Contains(job.Name(), "/pipelineJobs/distillation-") {
		t.Errorf("job name = %q, want a distillation- pipeline job", job.Name())
	}
}

func TestJob_Wait(t *testing.T) {
	const name = "projects/p/locations/us-central1/pipelineJobs/distillation-1"

	polls := 0
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/"+name {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		polls++
		state := "PIPELINE_STATE_RUNNING"
		if polls >= 2 {
			state = "PIPELINE_STATE_SUCCEEDED"
		}
		io.WriteString(w, `{"name": "`+name+`", "state": "`+state+`"}`)
	}))

	job := svc.Job(name)
	job.PollInterval = time.Millisecond
	final, err := job.Wait(t.Context())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !job.Done() {
		t.Error("Done() = false after Wait")
	}
	if got, want := final.GetState().String(), "PIPELINE_STATE_SUCCEEDED"; got != want {
		t.Errorf("state = %q, want %q", got, want)
	}
	if polls < 2 {
		t.Errorf("polls = %d, want at least 2", polls)
	}
}

func TestJob_Wait_failure(t *testing.T) {
	const name = "projects/p/locations/us-central1/pipelineJobs/distillation-2"

	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"name": "`+name+`",
			"state": "PIPELINE_STATE_FAILED",
			"error": {"code": 3, "message": "bad dataset"}
		}`)
	}))

	final, err := svc.Job(name).Wait(t.Context())
	if err == nil {
		t.Fatal("Wait() succeeded, want failure error")
	}
	if !strings.Contains(err.Error(), "bad dataset") {
		t.Errorf("error = %v, want it to carry the pipeline message", err)
	}
	if final == nil || final.GetState().String() != "PIPELINE_STATE_FAILED" {
		t.Errorf("terminal job = %v, want FAILED job alongside the error", final)
	}
}

func TestJob_Cancel(t *testing.T) {
	const name = "projects/p/locations/us-central1/pipelineJobs/distillation-3"

	var cancelled bool
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/"+name+":cancel" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		cancelled = true
		io.WriteString(w, `{}`)
	}))

	if err := svc.Job(name).Cancel(t.Context()); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !cancelled {
		t.Error("cancel endpoint was not called")
	}
}
