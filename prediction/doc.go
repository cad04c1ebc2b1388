// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package prediction provides a client for the Vertex AI PredictionService.
//
// Predict and Explain exchange structured instances; RawPredict passes the
// request payload through to the model server untouched and returns its raw
// response:
//
//	svc, err := prediction.NewService(ctx, "my-project", "us-central1")
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	body, err := svc.RawPredict(ctx, &aiplatformpb.RawPredictRequest{
//		Endpoint: svc.EndpointName("1234567890"),
//		HttpBody: &httpbody.HttpBody{
//			ContentType: "application/json",
//			Data:        []byte(`{"instances": [[1, 2, 3]]}`),
//		},
//	})
package prediction
