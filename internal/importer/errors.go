package importer

import (
	"errors"
	"fmt"
)

var ErrRunInProgress = errors.New("sync run already in progress")

// ReconciliationError describes an incoming record that was dropped. It never
// aborts a stage.
type ReconciliationError struct {
	Stage  Stage
	Key    string
	Reason string
}

func (e *ReconciliationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: dropped record: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: dropped record %q: %s", e.Stage, e.Key, e.Reason)
}

// ImageError is a retryable failure to download or upload one image.
type ImageError struct {
	URL     string
	Attempt int
	Err     error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// CommitError means a stage's transaction was not applied.
type CommitError struct {
	Stage Stage
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit %s: %v", e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// StageError names the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s import failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
