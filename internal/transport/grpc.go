// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/go-a2a/aiplatform"
)

// grpcCaller executes RPCs over a shared gRPC client connection.
type grpcCaller struct {
	conn    *Conn
	service string
}

func (c *grpcCaller) Invoke(ctx context.Context, method string, req, resp proto.Message, headers http.Header) error {
	info := aiplatform.CallInfo{Service: c.service, Method: method}

	if headers == nil {
		headers = http.Header{}
	}
	if pre := c.conn.interceptor.PreCall; pre != nil {
		if err := pre(ctx, info, req, headers); err != nil {
			return fmt.Errorf("pre-call hook: %w", err)
		}
	}

	md := metadata.Pairs("x-goog-api-client", c.conn.xGoogHeader)
	for k, vs := range headers {
		for _, v := range vs {
			md.Append(strings.ToLower(k), v)
		}
	}
	ctx = metadata.NewOutgoingContext(ctx, md)

	// The wire always needs a reply message; Empty stands in for RPCs whose
	// response the caller discards.
	out := resp
	if out == nil {
		out = &emptypb.Empty{}
	}
	if err := c.conn.grpcConn.Invoke(ctx, "/"+c.service+"/"+method, req, out); err != nil {
		return err
	}

	if post := c.conn.interceptor.PostCall; post != nil {
		if err := post(ctx, info, resp); err != nil {
			return fmt.Errorf("post-call hook: %w", err)
		}
	}
	return nil
}
