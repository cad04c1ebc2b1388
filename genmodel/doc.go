// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package genmodel saves and loads generative model files through Cloud
// Storage and Vertex ML Metadata.
//
// Save stages the local files under a unique gs:// prefix, writes a JSON
// manifest beside them, and registers the prefix as a system.Model artifact
// in the project's default metadata store:
//
//	svc, err := genmodel.NewService(ctx, "my-project", "us-central1")
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	saved, err := svc.Save(ctx, &genmodel.SaveRequest{
//		DisplayName:   "sentiment-v2",
//		Files:         []string{"model.safetensors", "tokenizer.json"},
//		StagingBucket: "gs://my-staging-bucket",
//	})
//
// Load reverses the trip: given the artifact's resource name it downloads
// the staged files into a local directory.
package genmodel
