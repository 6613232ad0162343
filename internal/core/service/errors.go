package service

import (
	"errors"
	"fmt"

	"github.com/martijn/userbase/internal/core/repository"
)

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable means the persistence layer failed. Not retried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ServiceError records which operation failed, its error class and the cause.
type ServiceError struct {
	Op   string
	Kind error
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// wrapStorageError classifies a repository error.
func wrapStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrStorageUnavailable
	if errors.Is(err, repository.ErrNotFound) {
		kind = ErrNotFound
	}
	return &ServiceError{Op: op, Kind: kind, Err: err}
}
