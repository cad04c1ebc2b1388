// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-a2a/aiplatform/pkg/logging"
)

func TestFromContext_roundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := logging.NewContext(t.Context(), logger)
	got := logging.FromContext(ctx)
	if got != logger {
		t.Fatalf("FromContext() = %v, want the logger stored by NewContext", got)
	}

	got.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output %q missing message", buf.String())
	}
}

func TestFromContext_default(t *testing.T) {
	logger := logging.FromContext(t.Context())
	if logger == nil {
		t.Fatal("FromContext() = nil, want discard logger")
	}
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger is enabled, want discard")
	}
}
