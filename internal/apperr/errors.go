// Package apperr holds the error kinds that decide an invocation's status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports a missing or invalid setting. Nothing is retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// MalformedEventError reports a trigger payload without the expected fields.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	if e.Reason == "" {
		return "malformed S3 event"
	}
	return "malformed S3 event: " + e.Reason
}

// SourceReadError reports a failure to fetch or decode the input object.
type SourceReadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// SinkWriteError reports a failure to store the results object.
type SinkWriteError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// StatusCode maps an error to the response status: 400 for client-side
// problems (configuration, malformed event), 500 for everything else.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ce *ConfigurationError
	var me *MalformedEventError
	if errors.As(err, &ce) || errors.As(err, &me) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
