package fault

import (
	"errors"
	"fmt"
)

// DataError marks an input as unreadable, corrupt, or fully exhausted.
// The master may recover by rescheduling; the worker never retries past it.
type DataError struct {
	Reason string
	URL    string
}

func (e *DataError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("data error: %v", e.Reason)
	}
	return fmt.Sprintf("data error: %v: %v", e.Reason, e.URL)
}

func Dataf(url string, format string, args ...any) error {
	return &DataError{Reason: fmt.Sprintf(format, args...), URL: url}
}

// ProtocolError means the master rejected a request. Always fatal to the
// current task.
type ProtocolError struct {
	Payload string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("master rejected request: %v", e.Payload)
}

// ResourceError tags environment or memory exhaustion so operators can
// find systemic resource pressure in the logs.
type ResourceError struct {
	Reason string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: %v", e.Reason)
}

func IsData(err error) bool {
	var dataErr *DataError
	return errors.As(err, &dataErr)
}

func IsResource(err error) bool {
	var resourceErr *ResourceError
	return errors.As(err, &resourceErr)
}

// Classification returns the report kind used when surfacing err to the
// master: "DAT" for data and resource failures, "ERR" for everything else.
func Classification(err error) string {
	if IsData(err) || IsResource(err) {
		return "DAT"
	}
	return "ERR"
}
