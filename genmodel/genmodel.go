// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package genmodel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	gax "github.com/googleapis/gax-go/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/go-a2a/aiplatform"
	"github.com/go-a2a/aiplatform/internal/transport"
)

// ServiceName is the fully qualified gRPC service name of the metadata
// surface used for model registration.
const ServiceName = "google.cloud.aiplatform.v1.MetadataService"

// modelSchemaTitle is the metadata schema recorded on saved model artifacts.
const modelSchemaTitle = "system.Model"

var bindings = map[string]transport.MethodBinding{
	"CreateArtifact": transport.Post("/v1/{parent=projects/*/locations/*/metadataStores/*}/artifacts", "artifact"),
	"GetArtifact":    transport.Get("/v1/{name=projects/*/locations/*/metadataStores/*/artifacts/*}"),
}

// CallOptions contains the retry settings for each metadata method.
type CallOptions struct {
	CreateArtifact []gax.CallOption
	GetArtifact    []gax.CallOption
}

func defaultCallOptions() *CallOptions {
	return &CallOptions{
		GetArtifact: []gax.CallOption{
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
		},
	}
}

// objectStore is the slice of Cloud Storage the save and load paths need.
// Tests substitute an in-memory implementation.
type objectStore interface {
	upload(ctx context.Context, bucket, object string, r io.Reader) error
	download(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type gcsStore struct {
	client *storage.Client
}

func (s *gcsStore) upload(ctx context.Context, bucket, object string, r io.Reader) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *gcsStore) download(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return s.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Service saves generative model files to Cloud Storage and registers them
// as artifacts in the default Vertex ML Metadata store, and loads them back.
//
// Methods, except Close, may be called concurrently.
type Service struct {
	conn    *transport.Conn
	caller  transport.Caller
	store   objectStore
	storage *storage.Client

	projectID string
	location  string
	logger    *slog.Logger

	// CallOptions holds the per-method retry settings.
	CallOptions *CallOptions
}

// NewService creates a model save/load client for the given project and
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
		return nil, fmt.Errorf("dial metadata service: %w", err)
	}
	sc, err := storage.NewClient(ctx, cfg.GoogleOptions...)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	s := &Service{
		conn:        conn,
		caller:      conn.Caller(ServiceName, bindings),
		store:       &gcsStore{client: sc},
		storage:     sc,
		projectID:   projectID,
		location:    location,
		logger:      logger,
		CallOptions: defaultCallOptions(),
	}
	s.logger.InfoContext(ctx, "genmodel service created",
		slog.String("project_id", projectID),
		slog.String("location", location),
	)
	return s, nil
}

// Close releases the connections held by the client.
func (s *Service) Close() error {
	if err := s.storage.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}

// MetadataStoreName returns the resource name of the default metadata store
// in the configured project and location.
func (s *Service) MetadataStoreName() string {
	return fmt.Sprintf("projects/%s/locations/%s/metadataStores/default", s.projectID, s.location)
}

// SaveRequest describes a model to save.
type SaveRequest struct {
	// DisplayName is the artifact display name. Required.
	DisplayName string
	// Files are the local model files to stage. Required, non-empty.
	Files []string
	// StagingBucket is the Cloud Storage bucket to stage into, with or
	// without a gs:// prefix. Required.
	StagingBucket string
	// Labels are recorded on the artifact and in the manifest.
	Labels map[string]string
	// ArtifactID, if set, names the created artifact; the server picks one
	// otherwise.
	ArtifactID string
}

func (r *SaveRequest) validate() error {
	switch {
	case r.DisplayName == "":
		return &InvalidRequestError{Field: "DisplayName", Reason: "must not be empty"}
	case len(r.Files) == 0:
		return &InvalidRequestError{Field: "Files", Reason: "must list at least one file"}
	case r.StagingBucket == "":
		return &InvalidRequestError{Field: "StagingBucket", Reason: "must not be empty"}
	}
	return nil
}

// SavedModel is the result of Save.
type SavedModel struct {
	// Artifact is the registered metadata artifact.
	Artifact *aiplatformpb.Artifact
	// URI is the gs:// staging prefix holding the files and manifest.
	URI string
}

// Save stages the request's files under a fresh prefix in the staging
// bucket, writes a manifest beside them, and registers the prefix as a
// system.Model artifact in the default metadata store.
func (s *Service) Save(ctx context.Context, req *SaveRequest, opts ...gax.CallOption) (*SavedModel, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	bucket := strings.TrimPrefix(req.StagingBucket, "gs://")
	prefix := "genmodel/" + uuid.NewString()

	manifest := &Manifest{
		DisplayName: req.DisplayName,
		Labels:      req.Labels,
		CreateTime:  time.Now().UTC(),
	}
	for _, f := range req.Files {
		manifest.Files = append(manifest.Files, filepath.Base(f))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range req.Files {
		g.Go(func() error {
			r, err := os.Open(f)
			if err != nil {
				return fmt.Errorf("open %s: %w", f, err)
			}
			defer r.Close()
			object := prefix + "/" + filepath.Base(f)
			if err := s.store.upload(gctx, bucket, object, r); err != nil {
				return fmt.Errorf("upload %s: %w", object, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encodeManifest(&buf, manifest); err != nil {
		return nil, err
	}
	if err := s.store.upload(ctx, bucket, prefix+"/"+manifestObject, &buf); err != nil {
		return nil, fmt.Errorf("upload manifest: %w", err)
	}

	uri := "gs://" + bucket + "/" + prefix
	meta, err := structpb.NewStruct(map[string]any{
		"fileCount": len(req.Files),
	})
	if err != nil {
		return nil, fmt.Errorf("build artifact metadata: %w", err)
	}
	createReq := &aiplatformpb.CreateArtifactRequest{
		Parent:     s.MetadataStoreName(),
		ArtifactId: req.ArtifactID,
		Artifact: &aiplatformpb.Artifact{
			DisplayName: req.DisplayName,
			Uri:         uri,
			SchemaTitle: modelSchemaTitle,
			State:       aiplatformpb.Artifact_LIVE,
			Labels:      req.Labels,
			Metadata:    meta,
		},
	}

	opts = append(s.CallOptions.CreateArtifact[:len(s.CallOptions.CreateArtifact):len(s.CallOptions.CreateArtifact)], opts...)
	hdr := transport.RoutingHeader("parent", createReq.GetParent())
	artifact := &aiplatformpb.Artifact{}
	err = gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "CreateArtifact", createReq, artifact, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "model saved",
		slog.String("artifact", artifact.GetName()),
		slog.String("uri", uri),
		slog.Int("files", len(req.Files)),
	)
	return &SavedModel{Artifact: artifact, URI: uri}, nil
}

// Load fetches the artifact by resource name, downloads its staged files
// into dir, and returns the manifest written at save time. dir must exist.
func (s *Service) Load(ctx context.Context, artifactName, dir string, opts ...gax.CallOption) (*Manifest, error) {
	if artifactName == "" {
		return nil, &InvalidRequestError{Field: "artifactName", Reason: "must not be empty"}
	}

	getReq := &aiplatformpb.GetArtifactRequest{Name: artifactName}
	opts = append(s.CallOptions.GetArtifact[:len(s.CallOptions.GetArtifact):len(s.CallOptions.GetArtifact)], opts...)
	hdr := transport.RoutingHeader("name", artifactName)
	artifact := &aiplatformpb.Artifact{}
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return s.caller.Invoke(ctx, "GetArtifact", getReq, artifact, hdr)
	}, opts...)
	if err != nil {
		return nil, err
	}

	bucket, prefix, err := parseGSURI(artifact.GetUri())
	if err != nil {
		return nil, err
	}

	mr, err := s.store.download(ctx, bucket, prefix+"/"+manifestObject)
	if err != nil {
		return nil, fmt.Errorf("download manifest: %w", err)
	}
	manifest, err := decodeManifest(mr)
	mr.Close()
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range manifest.Files {
		g.Go(func() error {
			r, err := s.store.download(gctx, bucket, prefix+"/"+name)
			if err != nil {
				return fmt.Errorf("download %s: %w", name, err)
			}
			defer r.Close()
			w, err := os.Create(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			if _, err := io.Copy(w, r); err != nil {
				w.Close()
				return fmt.Errorf("write %s: %w", name, err)
			}
			return w.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "model loaded",
		slog.String("artifact", artifactName),
		slog.String("dir", dir),
		slog.Int("files", len(manifest.Files)),
	)
	return manifest, nil
}

func parseGSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("artifact uri %q is not a gs:// uri", uri)
	}
	bucket, prefix, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || prefix == "" {
		return "", "", fmt.Errorf("artifact uri %q has no object prefix", uri)
	}
	return bucket, prefix, nil
}
