// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"google.golang.org/genproto/googleapis/rpc/code"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/status"
)

// UnresolvedRouteError reports a request whose resource-name fields match
// none of the URL templates declared for the method. It is returned before
// any network I/O and is never retried: the request shape itself is wrong.
type UnresolvedRouteError struct {
	Service string
	Method  string
}

func (e *UnresolvedRouteError) Error() string {
	return fmt.Sprintf("transport: no URL template matches request for %s.%s", e.Service, e.Method)
}

// APIError is a non-2xx HTTP response converted into a typed error. The
// server's google.rpc.Status payload, when present, is carried verbatim;
// callers branch on the HTTP status or the rpc code, not on error subtypes.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Status is the decoded error payload. Nil when the body carried none.
	Status *statuspb.Status

	// Body is the raw response body.
	Body []byte
}

func (e *APIError) Error() string {
	if m := e.Status.GetMessage(); m != "" {
		return m
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// GRPCStatus exposes the canonical rpc status so that status.Code and gax
// retry predicates classify REST errors exactly like gRPC ones.
func (e *APIError) GRPCStatus() *status.Status {
	return status.FromProto(e.Status)
}

// errorBody is the standard Google API error envelope.
type errorBody struct {
	Error struct {
		Code    int32  `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// newAPIError decodes body into an APIError for the given HTTP status. A
// malformed or absent payload still produces a usable error with the code
// inferred from the HTTP status.
func newAPIError(statusCode int, body []byte) *APIError {
	e := &APIError{
		StatusCode: statusCode,
		Body:       body,
		Status:     &statuspb.Status{Code: httpToRPCCode(statusCode)},
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return e
	}
	e.Status.Message = eb.Error.Message
	if c, ok := code.Code_value[eb.Error.Status]; ok && eb.Error.Status != "" {
		e.Status.Code = c
	}
	return e
}

// httpToRPCCode maps an HTTP status to its canonical google.rpc code, used
// when the error payload does not name one.
func httpToRPCCode(statusCode int) int32 {
	var c code.Code
	switch statusCode {
	case 400:
		c = code.Code_INVALID_ARGUMENT
	case 401:
		c = code.Code_UNAUTHENTICATED
	case 403:
		c = code.Code_PERMISSION_DENIED
	case 404:
		c = code.Code_NOT_FOUND
	case 409:
		c = code.Code_ABORTED
	case 429:
		c = code.Code_RESOURCE_EXHAUSTED
	case 499:
		c = code.Code_CANCELLED
	case 500:
		c = code.Code_INTERNAL
	case 501:
		c = code.Code_UNIMPLEMENTED
	case 503:
		c = code.Code_UNAVAILABLE
	case 504:
		c = code.Code_DEADLINE_EXCEEDED
	default:
		c = code.Code_UNKNOWN
	}
	return int32(c)
}
