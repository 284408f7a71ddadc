package soap

import "fmt"

// RejectedError represents a UPnP/SOAP fault response from a renderer.
type RejectedError struct {
	Action      string
	Code        string
	Description string
}

func (e *RejectedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("dlna action %s rejected: code %s", e.Action, e.Code)
	}
	return fmt.Sprintf("dlna action %s rejected: code %s (%s)", e.Action, e.Code, e.Description)
}

// TimeoutError indicates a request timed out.
type TimeoutError struct {
	Action string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dlna action %s timed out", e.Action)
}

// UnreachableError indicates the renderer could not be reached.
type UnreachableError struct {
	Action string
	Err    error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("dlna action %s unreachable: %v", e.Action, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// StatusError indicates a non-fault HTTP failure status. The numeric code
// is kept in the message so the retry layer can classify it.
type StatusError struct {
	Action     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dlna action %s failed: http %d", e.Action, e.StatusCode)
}
