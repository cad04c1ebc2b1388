// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/auth/credentials"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	htransport "google.golang.org/api/transport/http"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"

	"github.com/go-a2a/aiplatform"
)

// Config is the resolved dial configuration for one client. Service
// constructors build it from an [aiplatform.ClientConfig] plus their own
// endpoint default.
type Config struct {
	// Endpoint is the service endpoint, with or without a scheme.
	Endpoint string

	// UseGRPC selects the gRPC transport.
	UseGRPC bool

	// Logger. Never nil after the service constructor ran.
	Logger *slog.Logger

	// Interceptor holds the per-call hooks.
	Interceptor aiplatform.Interceptor

	// DetectCredentials forces application default credential detection at
	// dial time.
	DetectCredentials bool

	// GoogleOptions are appended to the computed dial options, so caller
	// overrides win.
	GoogleOptions []option.ClientOption
}

// Conn is one authenticated session to the service, shared by every Caller
// built from it. It is safe for concurrent use and carries no per-request
// state.
type Conn struct {
	logger      *slog.Logger
	interceptor aiplatform.Interceptor
	xGoogHeader string

	// REST transport.
	httpClient *http.Client
	baseURL    string

	// gRPC transport.
	grpcConn *grpc.ClientConn
}

// DefaultEndpoint returns the regional service endpoint for a location,
// e.g. "us-central1-aiplatform.googleapis.com".
func DefaultEndpoint(location string) string {
	return location + "-aiplatform.googleapis.com"
}

// Dial establishes the session described by cfg. Credential acquisition and
// refresh are entirely delegated to the google.golang.org/api transport
// layer (and, with DetectCredentials, to cloud.google.com/go/auth).
func Dial(ctx context.Context, cfg *Config) (*Conn, error) {
	endpoint := cfg.Endpoint
	if cfg.UseGRPC && !strings.Contains(endpoint, "://") && !strings.Contains(endpoint, ":") {
		endpoint += ":443"
	}

	opts := []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithScopes(aiplatform.DefaultAuthScopes()...),
	}
	if cfg.DetectCredentials {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: aiplatform.DefaultAuthScopes(),
		})
		if err != nil {
			return nil, fmt.Errorf("detect default credentials: %w", err)
		}
		opts = append(opts, option.WithAuthCredentials(creds))
	}
	opts = append(opts, cfg.GoogleOptions...)

	conn := &Conn{
		logger:      cfg.Logger,
		interceptor: cfg.Interceptor,
		xGoogHeader: gax.XGoogHeader(
			"gl-go", gax.GoVersion,
			"gax", gax.Version,
			"genlib", aiplatform.Version,
		),
	}

	if cfg.UseGRPC {
		gconn, err := gtransport.Dial(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("dial grpc transport: %w", err)
		}
		conn.grpcConn = gconn
		return conn, nil
	}

	client, resolved, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create http transport: %w", err)
	}
	if !strings.Contains(resolved, "://") {
		resolved = "https://" + resolved
	}
	conn.httpClient = client
	conn.baseURL = strings.TrimSuffix(resolved, "/")
	return conn, nil
}

// Close releases the underlying gRPC connection, if any. The REST session
// holds no resources requiring explicit release.
func (c *Conn) Close() error {
	if c.grpcConn != nil {
		return c.grpcConn.Close()
	}
	return nil
}

// Caller executes RPCs of one gRPC service over the connection.
//
// Invoke issues exactly one outbound request: retry and deadline policy
// belong to the caller (see the per-method gax.CallOption tables in the
// service packages). resp may be nil for RPCs with no meaningful response
// body, in which case the post-call hook observes nil.
type Caller interface {
	Invoke(ctx context.Context, method string, req, resp proto.Message, headers http.Header) error
}

// Caller builds a Caller for the named gRPC service. bindings is the
// method's REST binding table; it is compiled eagerly so malformed
// templates fail at construction, not at call time. On a gRPC connection
// the bindings are retained only for their method-name set.
func (c *Conn) Caller(service string, bindings map[string]MethodBinding) Caller {
	if c.grpcConn != nil {
		return &grpcCaller{conn: c, service: service}
	}
	return &restCaller{conn: c, service: service, bindings: compileBindings(bindings)}
}
