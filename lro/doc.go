// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package lro is the client for the google.longrunning.Operations service
// as exposed by Vertex AI.
//
// The API models one physical operations collection per owning resource
// kind — datasets, featurestores, models and so on each have their own REST
// path for the same five RPCs. The whole surface therefore shares a single
// versioned table of owning-resource-kind URL templates (see templates.go)
// rather than duplicating it per service.
//
// RPCs that start asynchronous work return an [*Operation] future. Callers
// either poll it themselves or block in [Operation.Wait]:
//
//	op, err := client.CreateDataset(ctx, req)
//	// ...
//	done, err := op.Wait(ctx)
//	if err != nil {
//		// transport failure while polling
//	}
//	if s := done.GetError(); s != nil {
//		// the job itself failed; inspect the status
//	}
//	ds, err := lro.ResponseAs[*aiplatformpb.Dataset](done)
package lro
