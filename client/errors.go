// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

// RequestFailedError is returned when the agent answers a request with a non-success HTTP status.
// It matches a2a.ErrRequestFailed.
type RequestFailedError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns a2a.ErrRequestFailed.
func (e *RequestFailedError) Unwrap() error {
	return a2a.ErrRequestFailed
}
