// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport is the generic RPC execution core shared by every
// service client in the library.
//
// Instead of one hand-rolled (or generated) transport type per RPC, a
// service client owns a table of [MethodBinding] values — HTTP verb, ordered
// URL templates, body field — and routes every call through a single
// [Caller]. The REST caller transcodes the typed request into
// {verb, path, body, query} via the binding's template list (first matching
// template wins), issues exactly one HTTP request over the authenticated
// session, converts non-2xx responses into [*APIError], and parses JSON
// bodies into the typed response with unknown fields dropped. The gRPC
// caller invokes the same method names over a shared client connection.
// Both run the optional per-client interceptor hooks synchronously around
// the call.
package transport

import (
	"net/http"
	"net/url"
	"strings"
)

// RoutingHeader builds the x-goog-request-params header from key/value
// pairs, e.g. RoutingHeader("parent", "projects/p/locations/l").
func RoutingHeader(kv ...string) http.Header {
	pairs := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, kv[i]+"="+url.QueryEscape(kv[i+1]))
	}
	return http.Header{"X-Goog-Request-Params": []string{strings.Join(pairs, "&")}}
}
