// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package dataset_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/dataset"
)

func newTestService(t *testing.T, handler http.Handler) *dataset.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := dataset.NewService(t.Context(), "p", "us-central1",
		aiplatform.WithEndpoint(srv.URL),
		aiplatform.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		location  string
		wantErr   bool
	}{
		{name: "valid configuration", projectID: "p", location: "us-central1"},
		{name: "empty project ID", projectID: "", location: "us-central1", wantErr: true},
		{name: "empty location", projectID: "p", location: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := dataset.NewService(t.Context(), tt.projectID, tt.location,
				aiplatform.WithoutAuthentication(),
			)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got, want := svc.GetParent(), "projects/p/locations/us-central1"; got != want {
				t.Errorf("GetParent() = %q, want %q", got, want)
			}
			if err := svc.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestService_CreateDataset(t *testing.T) {
	const opName = "projects/p/locations/l/datasets/d/operations/1"

	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/projects/p/locations/l/datasets":
			body, _ := io.ReadAll(r.Body)
			var ds map[string]any
			if err := json.Unmarshal(body, &ds); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
			if ds["displayName"] != "flowers" {
				t.Errorf("body displayName = %v, want flowers", ds["displayName"])
			}
			if got := r.Header.Get("X-Goog-Request-Params"); got == "" {
				t.Error("missing x-goog-request-params routing header")
			}
			io.WriteString(w, `{"name": "`+opName+`", "done": false}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/"+opName:
			io.WriteString(w, `{"name": "`+opName+`", "done": true, "response": {"@type": "type.googleapis.com/google.cloud.aiplatform.v1.Dataset", "name": "projects/p/locations/l/datasets/d", "displayName": "flowers"}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	op, err := svc.CreateDataset(t.Context(), &aiplatformpb.CreateDatasetRequest{
		Parent:  "projects/p/locations/l",
		Dataset: &aiplatformpb.Dataset{DisplayName: "flowers"},
	})
	if err != nil {
		t.Fatalf("CreateDataset() error = %v", err)
	}
	if op.Name() != opName {
		t.Errorf("operation name = %q, want %q", op.Name(), opName)
	}

	done, err := op.Wait(t.Context())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !done.GetDone() {
		t.Error("Wait() returned a non-terminal operation")
	}
}

func TestService_GetDataset(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/v1/projects/p/locations/l/datasets/d"; r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		io.WriteString(w, `{"name": "projects/p/locations/l/datasets/d", "displayName": "flowers"}`)
	}))

	ds, err := svc.GetDataset(t.Context(), &aiplatformpb.GetDatasetRequest{
		Name: "projects/p/locations/l/datasets/d",
	})
	if err != nil {
		t.Fatalf("GetDataset() error = %v", err)
	}
	if ds.GetDisplayName() != "flowers" {
		t.Errorf("displayName = %q, want flowers", ds.GetDisplayName())
	}
}

func TestService_UpdateDataset(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", r.Method)
		}
		if want := "/v1/projects/p/locations/l/datasets/d"; r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		if got, want := r.URL.Query().Get("updateMask"), "display_name"; got != want {
			t.Errorf("updateMask = %q, want %q", got, want)
		}
		io.WriteString(w, `{"name": "projects/p/locations/l/datasets/d", "displayName": "renamed"}`)
	}))

	ds, err := svc.UpdateDataset(t.Context(), &aiplatformpb.UpdateDatasetRequest{
		Dataset: &aiplatformpb.Dataset{
			Name:        "projects/p/locations/l/datasets/d",
			DisplayName: "renamed",
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"display_name"}},
	})
	if err != nil {
		t.Fatalf("UpdateDataset() error = %v", err)
	}
	if ds.GetDisplayName() != "renamed" {
		t.Errorf("displayName = %q, want renamed", ds.GetDisplayName())
	}
}

func TestService_ListDatasets(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/v1/projects/p/locations/l/datasets"; r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		io.WriteString(w, `{"datasets": [{"name": "projects/p/locations/l/datasets/a"}, {"name": "projects/p/locations/l/datasets/b"}]}`)
	}))

	it := svc.ListDatasets(t.Context(), &aiplatformpb.ListDatasetsRequest{
		Parent: "projects/p/locations/l",
	})
	var names []string
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		names = append(names, ds.GetName())
	}
	if len(names) != 2 {
		t.Fatalf("got %d datasets, want 2", len(names))
	}
}

func TestService_ImportData(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/v1/projects/p/locations/l/datasets/d:import"; r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		if _, leaked := payload["name"]; leaked {
			t.Error("path-bound field name leaked into the body")
		}
		if _, ok := payload["importConfigs"]; !ok {
			t.Error("body is missing importConfigs")
		}
		io.WriteString(w, `{"name": "projects/p/locations/l/datasets/d/operations/2"}`)
	}))

	_, err := svc.ImportData(t.Context(), &aiplatformpb.ImportDataRequest{
		Name: "projects/p/locations/l/datasets/d",
		ImportConfigs: []*aiplatformpb.ImportDataConfig{{
			Source: &aiplatformpb.ImportDataConfig_GcsSource{
				GcsSource: &aiplatformpb.GcsSource{Uris: []string{"gs://b/data.jsonl"}},
			},
			ImportSchemaUri: "gs://google-cloud-aiplatform/schema/dataset/ioformat/image_classification_single_label_io_format_1.0.0.yaml",
		}},
	})
	if err != nil {
		t.Fatalf("ImportData() error = %v", err)
	}
}
