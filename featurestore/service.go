// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package featurestore

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
const ServiceName = "google.cloud.aiplatform.v1.FeaturestoreService"

var bindings = map[string]transport.MethodBinding{
	"CreateFeaturestore": transport.Post("/v1/{parent=projects/*/locations/*}/featurestores", "featurestore"),
	"GetFeaturestore":    transport.Get("/v1/{name=projects/*/locations/*/featurestores/*}"),
	"ListFeaturestores":  transport.Get("/v1/{parent=projects/*/locations/*}/featurestores"),
	"UpdateFeaturestore": transport.Patch("/v1/{featurestore.name=projects/*/locations/*/featurestores/*}", "featurestore"),
	"DeleteFeaturestore": transport.Delete("/v1/{name=projects/*/locations/*/featurestores/*}"),
	"CreateEntityType":   transport.Post("/v1/{parent=projects/*/locations/*/featurestores/*}/entityTypes", "entity_type"),
	"GetEntityType":      transport.Get("/v1/{name=projects/*/locations/*/featurestores/*/entityTypes/*}"),
}

// CallOptions contains the retry settings for each method of Service.
type CallOptions struct {
	CreateFeaturestore []gax.CallOption
	GetFeaturestore    []gax.CallOption
	ListFeaturestores  []gax.CallOption
	UpdateFeaturestore []gax.CallOption
	DeleteFeaturestore []gax.CallOption
	CreateEntityType   []gax.CallOption
	GetEntityType      []gax.CallOption
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
		GetFeaturestore:    idempotent,
		ListFeaturestores:  idempotent,
		DeleteFeaturestore: idempotent,
		GetEntityType:      idempotent,
	}
}

// Service is a client for the Vertex AI FeaturestoreService. It manages
// featurestores and the entity types below them.
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

// NewService creates a FeaturestoreService client for the given project and
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
		return nil, fmt.Errorf("dial featurestore service: %w", err)
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
	s.logger.InfoContext(ctx, "featurestore service created",
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

// CreateFeaturestore creates a featurestore named by the request's
// FeaturestoreId below the parent location.
func (s *Service) CreateFeaturestore(ctx context.Context, req *aiplatformpb.CreateFeaturestoreRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.CreateFeaturestore[:len(s.CallOptions.CreateFeaturestore):len(s.CallOptions.CreateFeaturestore)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CreateFeaturestore", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// GetFeaturestore gets a featurestore.
func (s *Service) GetFeaturestore(ctx context.Context, req *aiplatformpb.GetFeaturestoreRequest, opts ...gax.CallOption) (*aiplatformpb.Featurestore, error) {
	opts = append(s.CallOptions.GetFeaturestore[:len(s.CallOptions.GetFeaturestore):len(s.CallOptions.GetFeaturestore)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &aiplatformpb.Featurestore{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "GetFeaturestore", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListFeaturestores lists the featurestores below the request's parent
// location.
func (s *Service) ListFeaturestores(ctx context.Context, req *aiplatformpb.ListFeaturestoresRequest, opts ...gax.CallOption) *FeaturestoreIterator {
	opts = append(s.CallOptions.ListFeaturestores[:len(s.CallOptions.ListFeaturestores):len(s.CallOptions.ListFeaturestores)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	it := &FeaturestoreIterator{}
	req = proto.Clone(req).(*aiplatformpb.ListFeaturestoresRequest)
	it.InternalFetch = func(pageSize int, pageToken string) ([]*aiplatformpb.Featurestore, string, error) {
		resp := &aiplatformpb.ListFeaturestoresResponse{}
		req.PageToken = pageToken
		if pageSize > math.MaxInt32 {
			req.PageSize = math.MaxInt32
		} else if pageSize != 0 {
			req.PageSize = int32(pageSize)
		}
		err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
			return s.caller.Invoke(ctx, "ListFeaturestores", req, resp, hdr)
		}, opts...)
		if err != nil {
			return nil, "", err
		}
		return resp.GetFeaturestores(), resp.GetNextPageToken(), nil
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

// UpdateFeaturestore updates a featurestore, honoring the request's update
// mask. Online serving config changes roll out asynchronously, hence the
// operation.
func (s *Service) UpdateFeaturestore(ctx context.Context, req *aiplatformpb.UpdateFeaturestoreRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.UpdateFeaturestore[:len(s.CallOptions.UpdateFeaturestore):len(s.CallOptions.UpdateFeaturestore)], opts...)
	hdr := transport.RoutingHeader("featurestore.name", req.GetFeaturestore().GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "UpdateFeaturestore", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// DeleteFeaturestore deletes a featurestore. Unless the request sets Force,
// the server rejects deletion while entity types remain.
func (s *Service) DeleteFeaturestore(ctx context.Context, req *aiplatformpb.DeleteFeaturestoreRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.DeleteFeaturestore[:len(s.CallOptions.DeleteFeaturestore):len(s.CallOptions.DeleteFeaturestore)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "DeleteFeaturestore", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// CreateEntityType creates an entity type below a featurestore.
func (s *Service) CreateEntityType(ctx context.Context, req *aiplatformpb.CreateEntityTypeRequest, opts ...gax.CallOption) (*lro.Operation, error) {
	opts = append(s.CallOptions.CreateEntityType[:len(s.CallOptions.CreateEntityType):len(s.CallOptions.CreateEntityType)], opts...)
	hdr := transport.RoutingHeader("parent", req.GetParent())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CreateEntityType", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s.lro.Operation(resp), nil
}

// GetEntityType gets an entity type.
func (s *Service) GetEntityType(ctx context.Context, req *aiplatformpb.GetEntityTypeRequest, opts ...gax.CallOption) (*aiplatformpb.EntityType, error) {
	opts = append(s.CallOptions.GetEntityType[:len(s.CallOptions.GetEntityType):len(s.CallOptions.GetEntityType)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &aiplatformpb.EntityType{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "GetEntityType", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FeaturestoreIterator manages a stream of *aiplatformpb.Featurestore.
type FeaturestoreIterator struct {
	items    []*aiplatformpb.Featurestore
	pageInfo *iterator.PageInfo
	nextFunc func() error

	// InternalFetch is for use by the Google Cloud Libraries only.
	InternalFetch func(pageSize int, pageToken string) (results []*aiplatformpb.Featurestore, nextPageToken string, err error)
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *FeaturestoreIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// Next returns the next result. Its second return value is iterator.Done if
// there are no more results. Once Next returns Done, all subsequent calls
// will return Done.
func (it *FeaturestoreIterator) Next() (*aiplatformpb.Featurestore, error) {
	var item *aiplatformpb.Featurestore
	if err := it.nextFunc(); err != nil {
		return item, err
	}
	item = it.items[0]
	it.items = it.items[1:]
	return item, nil
}

func (it *FeaturestoreIterator) bufLen() int {
	return len(it.items)
}

func (it *FeaturestoreIterator) takeBuf() any {
	b := it.items
	it.items = nil
	return b
}
