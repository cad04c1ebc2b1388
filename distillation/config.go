// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package distillation

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// DefaultTemplateURI is the distillation pipeline template submitted when
// Config.TemplateURI is empty.
const DefaultTemplateURI = "https://us-kfp.pkg.dev/ml-pipeline/distillation/distillation/v1.0.0"

// Config describes one distillation run: which teacher to distill into
// which student, on what data, with what training parameters.
type Config struct {
	// StudentModel is the base model to train, e.g. "text-bison@002".
	StudentModel string `yaml:"student_model"`
	// TeacherModel is the larger model whose behavior is distilled.
	TeacherModel string `yaml:"teacher_model"`
	// TrainingDatasetURI is the gs:// JSONL dataset of prompts.
	TrainingDatasetURI string `yaml:"training_dataset_uri"`
	// EvaluationDatasetURI optionally holds held-out prompts for eval.
	EvaluationDatasetURI string `yaml:"evaluation_dataset_uri,omitempty"`
	// PipelineRootURI is the gs:// prefix the pipeline writes outputs under.
	PipelineRootURI string `yaml:"pipeline_root_uri"`
	// TrainSteps is the number of tuning steps. Zero lets the pipeline pick.
	TrainSteps int `yaml:"train_steps,omitempty"`
	// LearningRateMultiplier scales the pipeline's default learning rate.
	// Zero lets the pipeline pick.
	LearningRateMultiplier float64 `yaml:"learning_rate_multiplier,omitempty"`
	// ModelDisplayName names the tuned model. Defaults server-side.
	ModelDisplayName string `yaml:"model_display_name,omitempty"`
	// TemplateURI overrides the pipeline template. Defaults to
	// DefaultTemplateURI.
	TemplateURI string `yaml:"template_uri,omitempty"`
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.StudentModel == "":
		return fmt.Errorf("distillation: student_model is required")
	case c.TeacherModel == "":
		return fmt.Errorf("distillation: teacher_model is required")
	case c.TrainingDatasetURI == "":
		return fmt.Errorf("distillation: training_dataset_uri is required")
	case c.PipelineRootURI == "":
		return fmt.Errorf("distillation: pipeline_root_uri is required")
	}
	return nil
}

func (c *Config) templateURI() string {
	if c.TemplateURI != "" {
		return c.TemplateURI
	}
	return DefaultTemplateURI
}

// parameterValues builds the pipeline runtime parameters from the config.
// Unset optional values are omitted so the template's defaults apply.
func (c *Config) parameterValues() (map[string]*structpb.Value, error) {
	params := map[string]any{
		"student_model_reference": c.StudentModel,
		"teacher_model_reference": c.TeacherModel,
		"dataset_uri":             c.TrainingDatasetURI,
	}
	if c.EvaluationDatasetURI != "" {
		params["evaluation_data_uri"] = c.EvaluationDatasetURI
	}
	if c.TrainSteps > 0 {
		params["train_steps"] = c.TrainSteps
	}
	if c.LearningRateMultiplier > 0 {
		params["learning_rate_multiplier"] = c.LearningRateMultiplier
	}
	if c.ModelDisplayName != "" {
		params["model_display_name"] = c.ModelDisplayName
	}

	values := make(map[string]*structpb.Value, len(params))
	for k, v := range params {
		pv, err := structpb.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		values[k] = pv
	}
	return values, nil
}
