// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "google.cloud.aiplatform.v1.PredictionService"

var bindings = map[string]transport.MethodBinding{
	"Predict":    transport.Post("/v1/{endpoint=projects/*/locations/*/endpoints/*}:predict", "*"),
	"RawPredict": transport.Post("/v1/{endpoint=projects/*/locations/*/endpoints/*}:rawPredict", "*"),
	"Explain":    transport.Post("/v1/{endpoint=projects/*/locations/*/endpoints/*}:explain", "*"),
}

// CallOptions contains the retry settings for each method of Service.
type CallOptions struct {
	Predict    []gax.CallOption
	RawPredict []gax.CallOption
	Explain    []gax.CallOption
}

func defaultCallOptions() *CallOptions {
	// Predictions are not assumed idempotent; retry only on transport-level
	// unavailability.
	unavailable := []gax.CallOption{
		gax.WithRetry(func() gax.Retryer {
			return gax.OnCodes([]codes.Code{
				codes.Unavailable,
			}, gax.Backoff{
				Initial:    100 * time.Millisecond,
				Max:        10 * time.Second,
				Multiplier: 1.3,
			})
		}),
	}
	return &CallOptions{
		Predict:    unavailable,
		RawPredict: unavailable,
		Explain:    unavailable,
	}
}

// Service is a client for the Vertex AI PredictionService. It sends online
// prediction and explanation requests to deployed model endpoints.
//
// Methods, except Close, may be called concurrently.
type Service struct {
	conn   *transport.Conn
	caller transport.Caller

	projectID string
	location  string
	logger    *slog.Logger

	// CallOptions holds the per-method retry settings.
	CallOptions *CallOptions
}

// NewService creates a PredictionService client for the given project and
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
		return nil, fmt.Errorf("dial prediction service: %w", err)
	}

	s := &Service{
		conn:        conn,
		caller:      conn.Caller(ServiceName, bindings),
		projectID:   projectID,
		location:    location,
		logger:      logger,
		CallOptions: defaultCallOptions(),
	}
	s.logger.InfoContext(ctx, "prediction service created",
		slog.String("project_id", projectID),
		slog.String("location", location),
	)
	return s, nil
}

// Close releases the connection held by the client.
func (s *Service) Close() error {
	return s.conn.Close()
}

// GetProjectID returns the configured Google Cloud project ID.
func (s *Service) GetProjectID() string { return s.projectID }

// GetLocation returns the configured location.
func (s *Service) GetLocation() string { return s.location }

// EndpointName returns the resource name of an endpoint in the configured
// project and location.
func (s *Service) EndpointName(endpointID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/endpoints/%s", s.projectID, s.location, endpointID)
}

// Predict performs an online prediction against the request's endpoint.
func (s *Service) Predict(ctx context.Context, req *aiplatformpb.PredictRequest, opts ...gax.CallOption) (*aiplatformpb.PredictResponse, error) {
	opts = append(s.CallOptions.Predict[:len(s.CallOptions.Predict):len(s.CallOptions.Predict)], opts...)
	hdr := transport.RoutingHeader("endpoint", req.GetEndpoint())
	resp := &aiplatformpb.PredictResponse{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "Predict", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RawPredict performs an online prediction with an arbitrary HTTP payload
// and returns the model server's response bytes verbatim, including its
// content type. Use it for models whose serving container speaks its own
// request format.
func (s *Service) RawPredict(ctx context.Context, req *aiplatformpb.RawPredictRequest, opts ...gax.CallOption) (*httpbody.HttpBody, error) {
	opts = append(s.CallOptions.RawPredict[:len(s.CallOptions.RawPredict):len(s.CallOptions.RawPredict)], opts...)
	hdr := transport.RoutingHeader("endpoint", req.GetEndpoint())
	resp := &httpbody.HttpBody{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "RawPredict", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Explain performs an online explanation: a prediction plus feature
// attributions for each instance. The endpoint's deployed models must have
// an explanation spec.
func (s *Service) Explain(ctx context.Context, req *aiplatformpb.ExplainRequest, opts ...gax.CallOption) (*aiplatformpb.ExplainResponse, error) {
	opts = append(s.CallOptions.Explain[:len(s.CallOptions.Explain):len(s.CallOptions.Explain)], opts...)
	hdr := transport.RoutingHeader("endpoint", req.GetEndpoint())
	resp := &aiplatformpb.ExplainResponse{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "Explain", req, resp, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
