// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline provides a client for the Vertex AI PipelineService.
// A pipeline job starts running as soon as CreatePipelineJob returns; poll
// GetPipelineJob to observe its state.
package pipeline
