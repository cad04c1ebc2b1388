// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

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
const ServiceName = "google.cloud.aiplatform.v1.DatasetService"

// bindings is the REST surface of the service, one entry per RPC. The
// transport tries a binding's templates in order; every method here has a
// single resource shape.
var bindings = map[string]transport.MethodBinding{
	"CreateDataset": transport.Post("/v1/{parent=projects/*/locations/*}/datasets", "dataset"),
	"GetDataset":    transport.Get("/v1/{name=projects/*/locations/*/datasets/*}"),
	"UpdateDataset": transport.Patch("/v1/{dataset.name=projects/*/locations/*/datasets/*}", "dataset"),
	"ListDatasets":  transport.Get("/v1/{parent=projects/*/locations/*}/datasets"),
	"DeleteDataset": transport.Delete("/v1/{name=projects/*/locations/*/datasets/*}"),
	"ImportData":    transport.Post("/v1/{name=projects/*/locations/*/datasets/*}:import", "*"),
	"ExportData":    transport.Post("/v1/{name=projects/*/locations/*/datasets/*}:export", "*"),
}

// CallOptions contains the retry settings for each method of Service.
type CallOptions struct {
	CreateDataset []gax.CallOption
	GetDataset    []gax.CallOption
	UpdateDataset []gax.CallOption
	ListDatasets  []gax.CallOption
	DeleteDataset []gax.CallOption
	ImportData    []gax.CallOption
	ExportData    []gax.CallOption
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
		GetDataset:    idempotent,
		ListDatasets:  idempotent,
		DeleteDataset: idempotent,
	}
}

// Service is a client for the Vertex AI DatasetService.
//
// Methods, except Close, may be called concurrently. Fields must not be
// modified concurrently with method calls.
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

// NewService creates a DatasetService client for the given project and
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
		return nil, fmt.Errorf("dial dataset service: %w", err)
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
	s.logger.InfoContext(ctx, "dataset service created",
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

// CreateDataset creates a dataset. The returned operation resolves to the
// created *aiplatformpb.Dataset.
func (s *Service) CreateDataset(ctx context.Context, req *aiplatformpb.CreateDatasetRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.CreateDataset[:len(s.CallOptions.CreateDataset):len(s.CallOptions.CreateDataset)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CreateDataset", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// GetDataset gets a dataset.
func (s *Service) GetDataset(ctx context.Context, req *aiplatformpb.GetDatasetRequest, opts ...gax.CallOption) (*aiplatformpb.Dataset, error) {
	opts = append(s.CallOptions.GetDataset[:len(s.CallOptions.GetDataset):len(s.CallOptions.GetDataset)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &aiplatformpb.Dataset{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "GetDataset", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateDataset updates a dataset in place, honoring the request's update
// mask.
func (s *Service) UpdateDataset(ctx context.Context, req *aiplatformpb.UpdateDatasetRequest, opts ...gax.CallOption) (*aiplatformpb.Dataset, error) {
	opts = append(s.CallOptions.UpdateDataset[:len(s.CallOptions.UpdateDataset):len(s.CallOptions.UpdateDataset)], opts...)
	hdr := transport.RoutingHeader("dataset.name", req.GetDataset().GetName())
	resp := &aiplatformpb.Dataset{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "UpdateDataset", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListDatasets lists the datasets below the request's parent location.
func (s *Service) ListDatasets(ctx context.Context, req *aiplatformpb.ListDatasetsRequest, opts ...gax.CallOption) *DatasetIterator {
	opts = append(s.CallOptions.ListDatasets[:len(s.CallOptions.ListDatasets):len(s.CallOptions.ListDatasets)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	it := &DatasetIterator{}
	req = proto.Clone(req).(*aiplatformpb.ListDatasetsRequest)
	it.InternalFetch = func(pageSize int, pageToken string) ([]*aiplatformpb.Dataset, string, error) {
		resp := &aiplatformpb.ListDatasetsResponse{}
		req.PageToken = pageToken
		if pageSize > math.MaxInt32 {
			req.PageSize = math.MaxInt32
		} else if pageSize != 0 {
			req.PageSize = int32(pageSize)
		}
		err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
			return s.caller.Invoke(ctx, "ListDatasets", req, resp, hdr)
		}, opts...)
		if err != nil {
			return nil, "", err
		}
		return resp.GetDatasets(), resp.GetNextPageToken(), nil
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

// DeleteDataset deletes a dataset. The returned operation carries only
// deletion metadata.
func (s *Service) DeleteDataset(ctx context.Context, req *aiplatformpb.DeleteDatasetRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.DeleteDataset[:len(s.CallOptions.DeleteDataset):len(s.CallOptions.DeleteDataset)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "DeleteDataset", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// ImportData imports data files into a dataset.
func (s *Service) ImportData(ctx context.Context, req *aiplatformpb.ImportDataRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.ImportData[:len(s.CallOptions.ImportData):len(s.CallOptions.ImportData)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "ImportData", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// ExportData exports a dataset to a Cloud Storage destination.
func (s *Service) ExportData(ctx context.Context, req *aiplatformpb.ExportDataRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.ExportData[:len(s.CallOptions.ExportData):len(s.CallOptions.ExportData)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "ExportData", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// DatasetIterator manages a stream of *aiplatformpb.Dataset.
type DatasetIterator struct {
	items    []*aiplatformpb.Dataset
	pageInfo *iterator.PageInfo
	nextFunc func() error

	// InternalFetch is for use by the Google Cloud Libraries only.
	InternalFetch func(pageSize int, pageToken string) (results []*aiplatformpb.Dataset, nextPageToken string, err error)
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *DatasetIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// Next returns the next result. Its second return value is iterator.Done if
// there are no more results. Once Next returns Done, all subsequent calls
// will return Done.
func (it *DatasetIterator) Next() (*aiplatformpb.Dataset, error) {
	var item *aiplatformpb.Dataset
	if err := it.nextFunc(); err != nil {
		return item, err
	}
	item = it.items[0]
	it.items = it.items[1:]
	return item, nil
}

func (it *DatasetIterator) bufLen() int {
	return len(it.items)
}

func (it *DatasetIterator) takeBuf() any {
	b := it.items
	it.items = nil
	return b
}
