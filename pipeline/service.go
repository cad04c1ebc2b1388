// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/proto"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/internal/transport"
	"github.com/go-a2a/aiplatform/lro"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "google.cloud.aiplatform.v1.PipelineService"

var bindings = map[string]transport.MethodBinding{
	"CreatePipelineJob": transport.Post("/v1/{parent=projects/*/locations/*}/pipelineJobs", "pipeline_job"),
	"GetPipelineJob":    transport.Get("/v1/{name=projects/*/locations/*/pipelineJobs/*}"),
	"ListPipelineJobs":  transport.Get("/v1/{parent=projects/*/locations/*}/pipelineJobs"),
	"CancelPipelineJob": transport.Post("/v1/{name=projects/*/locations/*/pipelineJobs/*}:cancel", "*"),
	"DeletePipelineJob": transport.Delete("/v1/{name=projects/*/locations/*/pipelineJobs/*}"),
}

// CallOptions contains the retry settings for each method of Service.
type CallOptions struct {
	CreatePipelineJob []gax.CallOption
	GetPipelineJob    []gax.CallOption
	ListPipelineJobs  []gax.CallOption
	CancelPipelineJob []gax.CallOption
	DeletePipelineJob []gax.CallOption
}

func defaultCallOptions() *CallOptions {
	idempotent := []gax.CallOption{
		gax.WithRetry(func() gax.Retryer {
			return gax.OnCodes([]codes.Code{
				codes.DeadlineExceeded,
				codes.Unavailable,
			}, gax.Backoff{
				Initial:    100 * time.Millisecond,
				Max:        60 * time.Second,
				Multiplier: 1.3,
			})
		}),
	}
	return &CallOptions{
		GetPipelineJob:    idempotent,
		ListPipelineJobs:  idempotent,
		DeletePipelineJob: idempotent,
	}
}

// Service is a client for the Vertex AI PipelineService, managing pipeline
// jobs compiled from KFP or TFX pipeline definitions.
//
// Methods, except Close, may be called concurrently.
type Service struct {
	conn   *transport.Conn
	caller transport.Caller
	lro    *lro.Client

	projectID string
	location  string
	logger    *slog.Logger

	// CallOptions holds the per-method retry settings.
	CallOptions *CallOptions
}

// NewService creates a PipelineService client for the given project and
// location.
func NewService(ctx context.Context, projectID, location string, opts ...aiplatform.Option) (*Service, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	cfg := aiplatform.NewClientConfig(opts...)
	logger := cfg.LoggerFor(ctx)
	if cfg.Endpoint == "" {
		cfg.Endpoint = transport.DefaultEndpoint(location)
	}
	conn, err := transport.Dial(ctx, &transport.Config{
		Endpoint:          cfg.Endpoint,
		UseGRPC:           cfg.UseGRPC,
		Logger:            logger,
		Interceptor:       cfg.Interceptor,
		DetectCredentials: cfg.DetectCredentials,
		GoogleOptions:     cfg.GoogleOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("dial pipeline service: %w", err)
	}
	lroClient, err := lro.NewClient(ctx, location, opts...)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create operations client: %w", err)
	}

	s := &Service{
		conn:        conn,
		caller:      conn.Caller(ServiceName, bindings),
		lro:         lroClient,
		projectID:   projectID,
		location:    location,
		logger:      logger,
		CallOptions: defaultCallOptions(),
	}
	s.logger.InfoContext(ctx, "pipeline service created",
		slog.String("project_id", projectID),
		slog.String("location", location),
	)
	return s, nil
}

// Close releases the connections held by the client.
func (s *Service) Close() error {
	if err := s.lro.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}

// GetProjectID returns the configured Google Cloud project ID.
func (s *Service) GetProjectID() string { return s.projectID }

// GetLocation returns the configured location.
func (s *Service) GetLocation() string { return s.location }

// GetParent returns the resource name of the configured location.
func (s *Service) GetParent() string {
	return "projects/" + s.projectID + "/locations/" + s.location
}

// Operations returns the long-running-operations client that polls the
// futures returned by this service.
func (s *Service) Operations() *lro.Client { return s.lro }

// CreatePipelineJob creates and immediately starts a pipeline job. The job
// itself runs server-side; track it by polling GetPipelineJob, not through
// the operations API.
func (s *Service) CreatePipelineJob(ctx context.Context, req *aiplatformpb.CreatePipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	opts = append(s.CallOptions.CreatePipelineJob[:len(s.CallOptions.CreatePipelineJob):len(s.CallOptions.CreatePipelineJob)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	resp := &aiplatformpb.PipelineJob{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CreatePipelineJob", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPipelineJob gets a pipeline job, including its task-level details and
// current state.
func (s *Service) GetPipelineJob(ctx context.Context, req *aiplatformpb.GetPipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	opts = append(s.CallOptions.GetPipelineJob[:len(s.CallOptions.GetPipelineJob):len(s.CallOptions.GetPipelineJob)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &aiplatformpb.PipelineJob{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "GetPipelineJob", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListPipelineJobs lists the pipeline jobs below the request's parent
// location.
func (s *Service) ListPipelineJobs(ctx context.Context, req *aiplatformpb.ListPipelineJobsRequest, opts ...gax.CallOption) *PipelineJobIterator {
	opts = append(s.CallOptions.ListPipelineJobs[:len(s.CallOptions.ListPipelineJobs):len(s.CallOptions.ListPipelineJobs)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	it := &PipelineJobIterator{}
	req = proto.Clone(req).(*aiplatformpb.ListPipelineJobsRequest)
	it.InternalFetch = func(pageSize int, pageToken string) ([]*aiplatformpb.PipelineJob, string, error) {
		resp := &aiplatformpb.ListPipelineJobsResponse{}
		req.PageToken = pageToken
		if pageSize > math.MaxInt32 {
			req.PageSize = math.MaxInt32
		} else if pageSize != 0 {
			req.PageSize = int32(pageSize)
		}
		err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
			return s.caller.Invoke(ctx, "ListPipelineJobs", req, resp, hdr)
		}, opts...)
		if err != nil {
			return nil, "", err
		}
		return resp.GetPipelineJobs(), resp.GetNextPageToken(), nil
	}
	fetch := func(pageSize int, pageToken string) (string, error) {
		items, nextPageToken, err := it.InternalFetch(pageSize, pageToken)
		if err != nil {
			return "", err
		}
		it.items = append(it.items, items...)
		return nextPageToken, nil
	}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(fetch, it.bufLen, it.takeBuf)
	it.pageInfo.MaxSize = int(req.GetPageSize())
	it.pageInfo.Token = req.GetPageToken()
	return it
}

// CancelPipelineJob asks the server to cancel a running pipeline job. The
// call returns once the cancellation is recorded; the job transitions to
// CANCELLED (or finishes first) asynchronously.
func (s *Service) CancelPipelineJob(ctx context.Context, req *aiplatformpb.CancelPipelineJobRequest, opts ...gax.CallOption) error {
	opts = append(s.CallOptions.CancelPipelineJob[:len(s.CallOptions.CancelPipelineJob):len(s.CallOptions.CancelPipelineJob)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	return gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CancelPipelineJob", req, nil, hdr)
	}, opts...)
}

// DeletePipelineJob deletes a pipeline job that has finished.
func (s *Service) DeletePipelineJob(ctx context.Context, req *aiplatformpb.DeletePipelineJobRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.DeletePipelineJob[:len(s.CallOptions.DeletePipelineJob):len(s.CallOptions.DeletePipelineJob)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "DeletePipelineJob", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// PipelineJobIterator manages a stream of *aiplatformpb.PipelineJob.
type PipelineJobIterator struct {
	items    []*aiplatformpb.PipelineJob
	pageInfo *iterator.PageInfo
	nextFunc func() error

	// InternalFetch is for use by the Google Cloud Libraries only.
	InternalFetch func(pageSize int, pageToken string) (results []*aiplatformpb.PipelineJob, nextPageToken string, err error)
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *PipelineJobIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// Next returns the next result. Its second return value is iterator.Done if
// there are no more results. Once Next returns Done, all subsequent calls
// will return Done.
func (it *PipelineJobIterator) Next() (*aiplatformpb.PipelineJob, error) {
	var item *aiplatformpb.PipelineJob
	if err := it.nextFunc(); err != nil {
		return item, err
	}
	item = it.items[0]
	it.items = it.items[1:]
	return item, nil
}

func (it *PipelineJobIterator) bufLen() int {
	return len(it.items)
}

func (it *PipelineJobIterator) takeBuf() any {
	b := it.items
	it.items = nil
	return b
}
