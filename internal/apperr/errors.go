// Package apperr defines the error values shared across packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPath       = errors.New("invalid path")
	ErrPublishInProgress = errors.New("publish already in progress")
)

// ManifestError reports a failed manifest load, save or index rebuild. It is
// fatal for the batch that triggered it.
type ManifestError struct {
	Op  string
	Err error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Op, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }
