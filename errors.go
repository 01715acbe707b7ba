package trailcache

import "fmt"

// ProviderError indicates a translation provider failure (network error,
// bad status, malformed payload).
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status when the provider answered, 0 otherwise
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a persistent store failure (unavailable, quota, I/O).
type StoreError struct {
	Op      string // Operation that failed: "get", "add", "count", "clear", ...
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error (%s): %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("store error (%s): %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the provider returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
