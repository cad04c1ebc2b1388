// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package genmodel

import (
	"fmt"
	"io"
	"time"

	"github.com/go-json-experiment/json"
)

// manifestObject is the name of the manifest inside a staging prefix.
const manifestObject = "manifest.json"

// Manifest describes one saved model: the staged files and the metadata
// recorded at save time. It is written as JSON next to the files so a model
// can be restored from the staging prefix alone.
type Manifest struct {
	// DisplayName is the model's display name at save time.
	DisplayName string `json:"display_name"`
	// Files lists the staged file names, relative to the staging prefix.
	Files []string `json:"files"`
	// Labels carries the user labels recorded on the artifact.
	Labels map[string]string `json:"labels,omitempty"`
	// CreateTime is the save timestamp.
	CreateTime time.Time `json:"create_time"`
}

func encodeManifest(w io.Writer, m *Manifest) error {
	if err := json.MarshalWrite(w, m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

func decodeManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	if err := json.UnmarshalRead(r, m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
