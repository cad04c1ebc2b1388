// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package aiplatform

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/go-a2a/aiplatform/pkg/logging"
)

// ClientConfig carries the transport-level configuration shared by every
// service client in this library. A zero config selects the REST transport
// against the regional production endpoint with application default
// credentials.
//
// Fields must not be modified after the config has been passed to a
// constructor.
type ClientConfig struct {
	// Endpoint overrides the service endpoint, e.g.
	// "us-central1-aiplatform.googleapis.com". A scheme may be included for
	// test servers ("http://127.0.0.1:8080").
	Endpoint string

	// UseGRPC selects the gRPC transport instead of REST.
	UseGRPC bool

	// Logger used by the client. When nil, constructors fall back to the
	// logger carried by their context (pkg/logging), which discards by
	// default.
	Logger *slog.Logger

	// Interceptor holds the optional per-call hooks. The zero value is a
	// pass-through.
	Interceptor Interceptor

	// DetectCredentials requests application default credential detection
	// through cloud.google.com/go/auth at dial time.
	DetectCredentials bool

	// GoogleOptions are passed through to the underlying
	// google.golang.org/api transport dialer.
	GoogleOptions []option.ClientOption
}

// NewClientConfig applies opts over the default configuration.
func NewClientConfig(opts ...Option) *ClientConfig {
	cfg := &ClientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoggerFor returns the configured logger, falling back to the logger
// carried by ctx (see the pkg/logging package). The result is never nil.
func (c *ClientConfig) LoggerFor(ctx context.Context) *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.FromContext(ctx)
}

// Option configures a service client at construction time.
type Option func(*ClientConfig)

// WithEndpoint overrides the service endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithGRPC selects the gRPC transport. The default is REST.
func WithGRPC() Option {
	return func(c *ClientConfig) {
		c.UseGRPC = true
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// WithInterceptor attaches per-call request/response hooks.
func WithInterceptor(i Interceptor) Option {
	return func(c *ClientConfig) {
		c.Interceptor = i
	}
}

// WithTokenSource authenticates calls with ts instead of application
// default credentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *ClientConfig) {
		c.GoogleOptions = append(c.GoogleOptions, option.WithTokenSource(ts))
	}
}

// WithDefaultCredentials forces application default credential detection at
// construction time rather than on the first call.
func WithDefaultCredentials() Option {
	return func(c *ClientConfig) {
		c.DetectCredentials = true
	}
}

// WithoutAuthentication disables authentication. Intended for tests against
// local fake backends.
func WithoutAuthentication() Option {
	return func(c *ClientConfig) {
		c.GoogleOptions = append(c.GoogleOptions, option.WithoutAuthentication())
	}
}

// WithClientOptions passes additional google.golang.org/api options through
// to the transport dialer.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *ClientConfig) {
		c.GoogleOptions = append(c.GoogleOptions, opts...)
	}
}
