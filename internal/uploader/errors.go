package uploader

import (
	"errors"
	"fmt"
)

// ErrCancelled indicates the operator aborted an in-flight upload. The job
// terminates as cancelled, not failed.
var ErrCancelled = errors.New("upload cancelled")

// ServerError is a rejection by Catalogue Storage: the request arrived but
// the server answered with a non-success status. Retryable only after the
// operator edits the asset.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected upload (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server rejected upload (status %d)", e.Status)
}

// NetworkError is a connection-level failure: the request never completed.
// Retryable as-is.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Outcome is the terminal state of an UploadJob.
type Outcome string

const (
	OutcomePending      Outcome = "pending"
	OutcomeSuccess      Outcome = "success"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeServerError  Outcome = "server_error"
	OutcomeCancelled    Outcome = "cancelled"
)

// OutcomeForError maps an upload error to the job outcome it terminates
// with. A nil error is success.
func OutcomeForError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	default:
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			return OutcomeServerError
		}
		return OutcomeNetworkError
	}
}
