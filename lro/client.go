// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/proto"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/internal/transport"
)

// serviceName is the fully qualified gRPC service name.
const serviceName = "google.longrunning.Operations"

// CallOptions contains the retry settings for each method of Client.
type CallOptions struct {
	GetOperation    []gax.CallOption
	ListOperations  []gax.CallOption
	CancelOperation []gax.CallOption
	DeleteOperation []gax.CallOption
	WaitOperation   []gax.CallOption
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
		GetOperation:    idempotent,
		ListOperations:  idempotent,
		DeleteOperation: idempotent,
		CancelOperation: nil,
		WaitOperation:   nil,
	}
}

// Client is a client for the Operations service of a regional Vertex AI
// endpoint.
//
// Methods, except Close, may be called concurrently.
type Client struct {
	conn   *transport.Conn
	caller transport.Caller
	logger *slog.Logger

	// CallOptions holds the per-method retry settings.
	CallOptions *CallOptions
}

// NewClient creates an Operations client for the given location.
func NewClient(ctx context.Context, location string, opts ...aiplatform.Option) (*Client, error) {
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
		return nil, fmt.Errorf("dial operations service: %w", err)
	}

	return &Client{
		conn:        conn,
		caller:      conn.Caller(serviceName, operationBindings),
		logger:      logger,
		CallOptions: defaultCallOptions(),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetOperation returns the current state of the named operation. Callers
// poll it until Done reports true.
func (c *Client) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	opts = append(c.CallOptions.GetOperation[:len(c.CallOptions.GetOperation):len(c.CallOptions.GetOperation)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return c.caller.Invoke(ctx, "GetOperation", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WaitOperation long-polls the named operation, returning the terminal or
// latest state once the request's timeout bound lapses. The server may
// return before completion; callers should still loop.
func (c *Client) WaitOperation(ctx context.Context, req *longrunningpb.WaitOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	opts = append(c.CallOptions.WaitOperation[:len(c.CallOptions.WaitOperation):len(c.CallOptions.WaitOperation)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	resp := &longrunningpb.Operation{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return c.caller.Invoke(ctx, "WaitOperation", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CancelOperation asks the server to cancel the named operation. This is
// best-effort: the operation may still run to completion.
func (c *Client) CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error {
	opts = append(c.CallOptions.CancelOperation[:len(c.CallOptions.CancelOperation):len(c.CallOptions.CancelOperation)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	return gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return c.caller.Invoke(ctx, "CancelOperation", req, nil, hdr)
	}, opts...)
}

// DeleteOperation removes the record of a completed operation. The server
// rejects deletion of operations still running.
func (c *Client) DeleteOperation(ctx context.Context, req *longrunningpb.DeleteOperationRequest, opts ...gax.CallOption) error {
	opts = append(c.CallOptions.DeleteOperation[:len(c.CallOptions.DeleteOperation):len(c.CallOptions.DeleteOperation)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	return gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return c.caller.Invoke(ctx, "DeleteOperation", req, nil, hdr)
	}, opts...)
}

// ListOperations enumerates operations below the owning resource named by
// req.Name, honoring the request filter.
func (c *Client) ListOperations(ctx context.Context, req *longrunningpb.ListOperationsRequest, opts ...gax.CallOption) *OperationIterator {
	opts = append(c.CallOptions.ListOperations[:len(c.CallOptions.ListOperations):len(c.CallOptions.ListOperations)], opts...)
	hdr := transport.RoutingHeader("name", req.GetName())
	it := &OperationIterator{}
	req = proto.Clone(req).(*longrunningpb.ListOperationsRequest)
	it.InternalFetch = func(pageSize int, pageToken string) ([]*longrunningpb.Operation, string, error) {
		resp := &longrunningpb.ListOperationsResponse{}
		req.PageToken = pageToken
		if pageSize > math.MaxInt32 {
			req.PageSize = math.MaxInt32
		} else if pageSize != 0 {
			req.PageSize = int32(pageSize)
		}
		err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
			return c.caller.Invoke(ctx, "ListOperations", req, resp, hdr)
		}, opts...)
		if err != nil {
			return nil, "", err
		}
		return resp.GetOperations(), resp.GetNextPageToken(), nil
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

// OperationIterator manages a stream of *longrunningpb.Operation.
type OperationIterator struct {
	items    []*longrunningpb.Operation
	pageInfo *iterator.PageInfo
	nextFunc func() error

	// InternalFetch is for use by the Google Cloud Libraries only.
	InternalFetch func(pageSize int, pageToken string) (results []*longrunningpb.Operation, nextPageToken string, err error)
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *OperationIterator) PageInfo() *iterator.PageInfo {
	return it.pageInfo
}

// Next returns the next result. Its second return value is iterator.Done if
// there are no more results. Once Next returns Done, all subsequent calls
// will return Done.
func (it *OperationIterator) Next() (*longrunningpb.Operation, error) {
	var item *longrunningpb.Operation
	if err := it.nextFunc(); err != nil {
		return item, err
	}
	item = it.items[0]
	it.items = it.items[1:]
	return item, nil
}

func (it *OperationIterator) bufLen() int {
	return len(it.items)
}

func (it *OperationIterator) takeBuf() any {
	b := it.items
	it.items = nil
	return b
}
