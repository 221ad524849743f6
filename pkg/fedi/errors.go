// Copyright 2024-2026 Aiku AI

package fedi

import "fmt"

// APIError is the typed failure raised for any non-success HTTP response.
// Message carries the server's own error text when it was parseable, else
// a generic description. The capability layer never retries these.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
}
