// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset provides the client for the Vertex AI DatasetService.
//
// Datasets hold the training and test data for model development. The
// service covers the dataset lifecycle — create, get, list, update,
// delete — plus bulk data movement with ImportData and ExportData.
// Mutating calls other than UpdateDataset are asynchronous and return an
// [lro.Operation] future:
//
//	svc, err := dataset.NewService(ctx, "my-project", "us-central1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	op, err := svc.CreateDataset(ctx, &aiplatformpb.CreateDatasetRequest{
//		Parent: svc.GetParent(),
//		Dataset: &aiplatformpb.Dataset{
//			DisplayName:       "flowers",
//			MetadataSchemaUri: "gs://google-cloud-aiplatform/schema/dataset/metadata/image_1.0.0.yaml",
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	done, err := op.Wait(ctx)
package dataset
