// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package distillation submits model distillation runs to Vertex AI
// Pipelines and tracks them to completion.
//
//	svc, err := distillation.NewService(ctx, "my-project", "us-central1")
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	job, err := svc.Start(ctx, &distillation.Config{
//		StudentModel:       "text-bison@002",
//		TeacherModel:       "text-unicorn@001",
//		TrainingDatasetURI: "gs://my-bucket/prompts.jsonl",
//		PipelineRootURI:    "gs://my-bucket/pipeline-root",
//	})
//	if err != nil {
//		return err
//	}
//	final, err := job.Wait(ctx)
//
// Configs can also be loaded from YAML files with LoadConfig.
package distillation
