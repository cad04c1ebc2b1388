// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/go-a2a/aiplatform"
)

const testService = "google.cloud.aiplatform.v1.DatasetService"

var datasetBindings = map[string]MethodBinding{
	"CreateDataset": Post("/v1/{parent=projects/*/locations/*}/datasets", "dataset"),
	"GetDataset":    Get("/v1/{name=projects/*/locations/*/datasets/*}"),
	"ListDatasets":  Get("/v1/{parent=projects/*/locations/*}/datasets"),
	"UpdateDataset": Patch("/v1/{dataset.name=projects/*/locations/*/datasets/*}", "dataset"),
}

func testConn(t *testing.T, handler http.Handler) *Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Conn{
		logger:     slog.New(slog.DiscardHandler),
		httpClient: srv.Client(),
		baseURL:    srv.URL,
	}
}

func TestTranscode_createDataset(t *testing.T) {
	bindings := compileBindings(datasetBindings)

	req := &aiplatformpb.CreateDatasetRequest{
		Parent:  "projects/p/locations/l",
		Dataset: &aiplatformpb.Dataset{DisplayName: "d"},
	}
	tr, err := transcode(testService, "CreateDataset", bindings["CreateDataset"], req)
	if err != nil {
		t.Fatalf("transcode() error = %v", err)
	}
	if tr.Method != http.MethodPost {
		t.Errorf("Method = %q, want POST", tr.Method)
	}
	if want := "/v1/projects/p/locations/l/datasets"; tr.Path != want {
		t.Errorf("Path = %q, want %q", tr.Path, want)
	}
	if got := tr.Query.Get("$alt"); got != "json;enum-encoding=int" {
		t.Errorf("$alt = %q, want enum-encoding=int form", got)
	}
	var body aiplatformpb.Dataset
	if err := respUnmarshal.Unmarshal(tr.Body, &body); err != nil {
		t.Fatalf("body is not a Dataset: %v", err)
	}
	if body.GetDisplayName() != "d" {
		t.Errorf("body display_name = %q, want %q", body.GetDisplayName(), "d")
	}
}

func TestTranscode_queryParams(t *testing.T) {
	bindings := compileBindings(datasetBindings)

	req := &aiplatformpb.ListDatasetsRequest{
		Parent:    "projects/p/locations/l",
		Filter:    `display_name="x"`,
		PageSize:  50,
		PageToken: "tok",
	}
	tr, err := transcode(testService, "ListDatasets", bindings["ListDatasets"], req)
	if err != nil {
		t.Fatalf("transcode() error = %v", err)
	}
	if tr.Body != nil {
		t.Errorf("GET request carries a body: %q", tr.Body)
	}
	for key, want := range map[string]string{
		"filter":    `display_name="x"`,
		"pageSize":  "50",
		"pageToken": "tok",
	} {
		if got := tr.Query.Get(key); got != want {
			t.Errorf("query[%q] = %q, want %q", key, got, want)
		}
	}
	if got := tr.Query.Get("parent"); got != "" {
		t.Errorf("path-bound field leaked into query: parent=%q", got)
	}
}

func TestTranscode_fieldMask(t *testing.T) {
	bindings := compileBindings(datasetBindings)

	req := &aiplatformpb.UpdateDatasetRequest{
		Dataset: &aiplatformpb.Dataset{
			Name:        "projects/p/locations/l/datasets/d",
			DisplayName: "renamed",
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"display_name", "labels"}},
	}
	tr, err := transcode(testService, "UpdateDataset", bindings["UpdateDataset"], req)
	if err != nil {
		t.Fatalf("transcode() error = %v", err)
	}
	if want := "/v1/projects/p/locations/l/datasets/d"; tr.Path != want {
		t.Errorf("Path = %q, want %q", tr.Path, want)
	}
	if got, want := tr.Query.Get("updateMask"), "display_name,labels"; got != want {
		t.Errorf("updateMask = %q, want %q", got, want)
	}
}

func TestTranscode_unresolvedRoute(t *testing.T) {
	bindings := compileBindings(datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/datasets/d"}
	_, err := transcode(testService, "GetDataset", bindings["GetDataset"], req)
	var ure *UnresolvedRouteError
	if !errors.As(err, &ure) {
		t.Fatalf("transcode() error = %v, want *UnresolvedRouteError", err)
	}
	if ure.Method != "GetDataset" {
		t.Errorf("Method = %q, want GetDataset", ure.Method)
	}
}

func TestTranscode_firstMatchWins(t *testing.T) {
	// Both templates fit the same name shape; listed order decides.
	overlapping := MethodBinding{
		Verb: http.MethodGet,
		Templates: []string{
			"/v1/{name=projects/*/locations/*/operations/*}",
			"/ui/{name=projects/*/locations/*/operations/*}",
		},
	}
	cb := compileBindings(map[string]MethodBinding{"GetOperation": overlapping})["GetOperation"]

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/operations/123"}
	for range 10 {
		tr, err := transcode(testService, "GetOperation", cb, req)
		if err != nil {
			t.Fatalf("transcode() error = %v", err)
		}
		if want := "/v1/projects/p/locations/l/operations/123"; tr.Path != want {
			t.Fatalf("Path = %q, want first-listed template %q", tr.Path, want)
		}
	}
}

// A resource name matching zero templates must fail before any HTTP call.
func TestInvoke_noNetworkOnUnresolvedRoute(t *testing.T) {
	calls := 0
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "not-a-resource-name"}
	err := caller.Invoke(t.Context(), "GetDataset", req, &aiplatformpb.Dataset{}, nil)
	var ure *UnresolvedRouteError
	if !errors.As(err, &ure) {
		t.Fatalf("Invoke() error = %v, want *UnresolvedRouteError", err)
	}
	if calls != 0 {
		t.Errorf("server saw %d calls, want 0", calls)
	}
}

func TestInvoke_apiError(t *testing.T) {
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"message": "not found"}}`))
	}))
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	err := caller.Invoke(t.Context(), "GetDataset", req, &aiplatformpb.Dataset{}, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Invoke() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Error() != "not found" {
		t.Errorf("Error() = %q, want %q", apiErr.Error(), "not found")
	}
	if got := status.Code(err); got != codes.NotFound {
		t.Errorf("status.Code() = %v, want NotFound", got)
	}
}

func TestInvoke_errorStatusName(t *testing.T) {
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": {"message": "exists", "status": "ALREADY_EXISTS"}}`))
	}))
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	err := caller.Invoke(t.Context(), "GetDataset", req, &aiplatformpb.Dataset{}, nil)
	if got := status.Code(err); got != codes.AlreadyExists {
		t.Errorf("status.Code() = %v, want AlreadyExists (server-named status wins over HTTP mapping)", got)
	}
}

// Unknown response fields are ignored, not an error.
func TestInvoke_unknownResponseFields(t *testing.T) {
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "projects/p/locations/l/datasets/d", "futureField": {"x": 1}}`))
	}))
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	var resp aiplatformpb.Dataset
	if err := caller.Invoke(t.Context(), "GetDataset", req, &resp, nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if resp.GetName() != "projects/p/locations/l/datasets/d" {
		t.Errorf("Name = %q", resp.GetName())
	}
}

// Two identical calls against the same stubbed response yield identical
// typed responses.
func TestInvoke_idempotent(t *testing.T) {
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "projects/p/locations/l/datasets/d", "displayName": "d", "etag": "abc"}`))
	}))
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	var first, second aiplatformpb.Dataset
	if err := caller.Invoke(t.Context(), "GetDataset", req, &first, nil); err != nil {
		t.Fatalf("first Invoke() error = %v", err)
	}
	if err := caller.Invoke(t.Context(), "GetDataset", req, &second, nil); err != nil {
		t.Fatalf("second Invoke() error = %v", err)
	}
	if diff := cmp.Diff(&first, &second, protocmp.Transform()); diff != "" {
		t.Errorf("responses differ (-first +second):\n%s", diff)
	}
}

func TestInvoke_httpBodyResponse(t *testing.T) {
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("raw bytes"))
	}))
	caller := conn.Caller(testService, map[string]MethodBinding{
		"RawPredict": Post("/v1/{endpoint=projects/*/locations/*/endpoints/*}:rawPredict", "*"),
	})

	req := &aiplatformpb.RawPredictRequest{Endpoint: "projects/p/locations/l/endpoints/e"}
	var resp httpbody.HttpBody
	if err := caller.Invoke(t.Context(), "RawPredict", req, &resp, nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if string(resp.GetData()) != "raw bytes" {
		t.Errorf("Data = %q, want raw body", resp.GetData())
	}
	if resp.GetContentType() != "application/octet-stream" {
		t.Errorf("ContentType = %q", resp.GetContentType())
	}
}

func TestInvoke_interceptor(t *testing.T) {
	var sawHeader string
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawHeader = r.Header.Get("X-Custom")
		w.Write([]byte(`{"name": "projects/p/locations/l/datasets/d"}`))
	}))

	var postResp proto.Message
	conn.interceptor = aiplatform.Interceptor{
		PreCall: func(ctx context.Context, info aiplatform.CallInfo, req proto.Message, headers http.Header) error {
			if info.Method != "GetDataset" {
				t.Errorf("PreCall info.Method = %q", info.Method)
			}
			headers.Set("X-Custom", "yes")
			return nil
		},
		PostCall: func(ctx context.Context, info aiplatform.CallInfo, resp proto.Message) error {
			postResp = resp
			return nil
		},
	}
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	var resp aiplatformpb.Dataset
	if err := caller.Invoke(t.Context(), "GetDataset", req, &resp, nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if sawHeader != "yes" {
		t.Errorf("server saw X-Custom = %q, want header set by PreCall", sawHeader)
	}
	if postResp == nil {
		t.Error("PostCall never ran")
	}
}

func TestInvoke_preCallAbortsBeforeNetwork(t *testing.T) {
	calls := 0
	conn := testConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	wantErr := errors.New("rejected")
	conn.interceptor = aiplatform.Interceptor{
		PreCall: func(ctx context.Context, info aiplatform.CallInfo, req proto.Message, headers http.Header) error {
			return wantErr
		},
	}
	caller := conn.Caller(testService, datasetBindings)

	req := &aiplatformpb.GetDatasetRequest{Name: "projects/p/locations/l/datasets/d"}
	err := caller.Invoke(t.Context(), "GetDataset", req, &aiplatformpb.Dataset{}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Invoke() error = %v, want wrapped pre-call error", err)
	}
	if calls != 0 {
		t.Errorf("server saw %d calls, want 0", calls)
	}
}
