// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package aiplatform

import (
	"context"
	"net/http"

	"google.golang.org/protobuf/proto"
)

// CallInfo identifies the RPC a hook is running for.
type CallInfo struct {
	// Service is the full gRPC service name, e.g.
	// "google.cloud.aiplatform.v1.DatasetService".
	Service string

	// Method is the RPC method name, e.g. "CreateDataset".
	Method string
}

// Interceptor is an optional pair of hooks run synchronously around every
// transport invocation, on both the REST and gRPC transports.
//
// PreCall runs before the request is transcoded and sent. It may mutate the
// outgoing request message and headers in place; returning an error aborts
// the call before any network I/O. PostCall runs after a successful response
// has been parsed; for RPCs with no response body it receives nil.
//
// A nil hook is a pass-through. Exactly one Interceptor is attached per
// client; this is an extension point, not a middleware chain.
type Interceptor struct {
	PreCall  func(ctx context.Context, info CallInfo, req proto.Message, headers http.Header) error
	PostCall func(ctx context.Context, info CallInfo, resp proto.Message) error
}
