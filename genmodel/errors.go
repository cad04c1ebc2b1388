// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package genmodel

import "fmt"

// InvalidRequestError reports a request field that failed validation before
// any network call was made.
type InvalidRequestError struct {
	// Field is the offending request field.
	Field string
	// Reason says what is wrong with it.
	Reason string
}

// Error returns a string representation of the error.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("genmodel: invalid %s: %s", e.Field, e.Reason)
}
