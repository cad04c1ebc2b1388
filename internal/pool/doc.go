// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides strongly-typed object pooling with generic support
// and predefined pools for common types.
//
// Pool[T] wraps [sync.Pool] so callers get and put values of a concrete
// type. The transport layer reuses the Buffer pool for HTTP response
// bodies and the String pool for instantiated URL paths; both are hot on
// every RPC.
//
//	buf := pool.Buffer.Get()
//	buf.Reset()
//	defer pool.Buffer.Put(buf)
//
// Values are reset by the borrower, not the pool. Never retain a pooled
// value, or a slice of its backing storage, after Put.
package pool
