// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package aiplatform is a hand-written Go client library for the Google Cloud
// AI Platform (Vertex AI) API.
//
// Unlike generated clients, which stamp out one transport type per RPC, this
// library routes every call of a service through a single generic transport
// parameterized by a table of HTTP method bindings. Service clients live in
// the subpackages:
//
//   - [github.com/go-a2a/aiplatform/dataset] for DatasetService
//   - [github.com/go-a2a/aiplatform/featurestore] for FeaturestoreService
//   - [github.com/go-a2a/aiplatform/prediction] for PredictionService
//   - [github.com/go-a2a/aiplatform/pipeline] for PipelineService
//   - [github.com/go-a2a/aiplatform/lro] for google.longrunning.Operations
//
// Higher-level SDK helpers build on those clients:
//
//   - [github.com/go-a2a/aiplatform/genmodel] saves and loads model
//     artifacts through Cloud Storage and the Vertex ML Metadata store
//   - [github.com/go-a2a/aiplatform/distillation] submits model
//     distillation pipelines
//
// All clients speak the aiplatformpb message types from
// cloud.google.com/go/aiplatform and support both REST (default) and gRPC
// transports. Configuration is explicit: every constructor takes the
// project, the location, and a set of [Option] values. There is no ambient
// package-level state.
package aiplatform

// Version is the version of the library.
var Version = "v0.1.0"

// DefaultAuthScopes returns the OAuth2 scopes requested when no explicit
// credentials are supplied.
func DefaultAuthScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/cloud-platform",
	}
}
