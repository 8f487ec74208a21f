package api

import "fmt"

// RequestError indicates a fetch that failed after all retries.
type RequestError struct {
	// Operation is the name of the fetch that failed
	Operation string
	// URL is the URL that was being accessed
	URL string
	// Attempts is how many times the URL was tried
	Attempts int
	// Err contains the last underlying error
	Err error
}

func (e *RequestError) Error() string {
	msg := "unknown failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Operation != "" && e.URL != "" {
		return fmt.Sprintf("request error during %s to %s after %d attempts: %s", e.Operation, e.URL, e.Attempts, msg)
	}
	if e.URL != "" {
		return fmt.Sprintf("request error to %s after %d attempts: %s", e.URL, e.Attempts, msg)
	}
	return fmt.Sprintf("request error: %s", msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError indicates a payload that could not be decoded.
type ParseError struct {
	// Operation is where parsing failed
	Operation string
	// Message contains the detailed error message
	Message string
	// Err contains the underlying error if available
	Err error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Operation != "" {
		return fmt.Sprintf("parse error during %s: %s", e.Operation, msg)
	}
	return fmt.Sprintf("parse error: %s", msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
