package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrBookmarkNotFound is returned when a bookmark is not found
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// ErrFolderNotFound is returned when a folder is not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence is returned when the persistence collaborator fails to read or write
	ErrPersistence = errors.New("persistence failure")

	// ErrStateCorrupt is returned when persisted engine state cannot be decoded
	ErrStateCorrupt = errors.New("persisted state is corrupt")

	// ErrDisallowedByRobots is returned when robots.txt forbids fetching a page
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")
)

// BookmarkNotFoundError represents a bookmark not found error with context
type BookmarkNotFoundError struct {
	BookmarkID string
}

func (e *BookmarkNotFoundError) Error() string {
	return fmt.Sprintf("bookmark with ID '%s' not found", e.BookmarkID)
}

func (e *BookmarkNotFoundError) Is(target error) bool {
	return target == ErrBookmarkNotFound
}

// NewBookmarkNotFoundError creates a new BookmarkNotFoundError
func NewBookmarkNotFoundError(bookmarkID string) *BookmarkNotFoundError {
	return &BookmarkNotFoundError{BookmarkID: bookmarkID}
}

// FolderNotFoundError represents a folder not found error with context
type FolderNotFoundError struct {
	FolderID string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("folder with ID '%s' not found", e.FolderID)
}

func (e *FolderNotFoundError) Is(target error) bool {
	return target == ErrFolderNotFound
}

// NewFolderNotFoundError creates a new FolderNotFoundError
func NewFolderNotFoundError(folderID string) *FolderNotFoundError {
	return &FolderNotFoundError{FolderID: folderID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a failure of the persistence port for a given key.
// Op is "get" or "set".
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persistence %s of key '%s' failed", e.Op, e.Key)
	}
	return fmt.Sprintf("persistence %s of key '%s' failed: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(op, key string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Key: key, Err: err}
}

// StateCorruptError describes persisted state that could not be decoded
type StateCorruptError struct {
	Key    string
	Reason string
}

func (e *StateCorruptError) Error() string {
	return fmt.Sprintf("persisted state '%s' is corrupt: %s", e.Key, e.Reason)
}

func (e *StateCorruptError) Is(target error) bool {
	return target == ErrStateCorrupt
}

// NewStateCorruptError creates a new StateCorruptError
func NewStateCorruptError(key, reason string) *StateCorruptError {
	return &StateCorruptError{Key: key, Reason: reason}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
