// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package featurestore provides a client for the Vertex AI
// FeaturestoreService: creating, updating and deleting featurestores and
// the entity types they contain. Mutations run as long-running operations;
// wait on the returned *lro.Operation to block until the server finishes.
package featurestore
