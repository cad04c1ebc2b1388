// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging provides context-based structured logging utilities using Go's standard slog package.
//
// Loggers are stored in and retrieved from [context.Context] values, so a
// caller-configured logger propagates through every client call without
// plumbing an extra parameter.
//
// Creating a logger context:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
//		Level: slog.LevelInfo,
//	}))
//
//	ctx := logging.NewContext(ctx, logger)
//
// Retrieving a logger from context:
//
//	logger := logging.FromContext(ctx)
//	logger.InfoContext(ctx, "operation complete", "duration", duration)
//
// When no logger is found in the context, FromContext returns a logger
// backed by [slog.DiscardHandler]: client packages log nothing unless the
// caller opts in.
package logging
