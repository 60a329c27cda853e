package catalog

import (
	"encoding/json"
	"fmt"
)

// ValidationError is returned before upstream is contacted when a required
// parameter is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a 404 or an empty entity from upstream.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamError carries a failed upstream exchange. Status is zero when no
// response was received (timeout, connection refused).
type UpstreamError struct {
	Status  int
	Message string
	Details json.RawMessage
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status > 0 && e.Message != "":
		return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
	case e.Status > 0:
		return fmt.Sprintf("upstream returned %d", e.Status)
	case e.Err != nil:
		return "upstream unreachable: " + e.Err.Error()
	default:
		return "upstream request failed"
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}
