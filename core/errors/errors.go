// Package errors provides standardized error types and helpers for the Slidecast codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrCorruptArchive indicates the package archive cannot be opened or listed
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrPartNotFound indicates a referenced package part is missing
	ErrPartNotFound = errors.New("part not found")
	// ErrUnknownRelationship indicates a relationship id has no entry
	ErrUnknownRelationship = errors.New("unknown relationship")
	// ErrMalformedTiming indicates an animation node could not be parsed into a recognized rule
	ErrMalformedTiming = errors.New("malformed timing node")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// CorruptArchiveError represents a package archive that cannot be read.
type CorruptArchiveError struct {
	Path string // Archive path
	Err  error  // Underlying error
}

func (e *CorruptArchiveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt archive %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt archive: %v", e.Err)
}

func (e *CorruptArchiveError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorruptArchive
}

// Is reports whether target is the corrupt-archive sentinel.
func (e *CorruptArchiveError) Is(target error) bool {
	return target == ErrCorruptArchive
}

// PartNotFoundError represents a missing package part.
type PartNotFoundError struct {
	Part string // Part name inside the archive (e.g. "ppt/slides/slide3.xml")
}

func (e *PartNotFoundError) Error() string {
	return fmt.Sprintf("part not found: %s", e.Part)
}

func (e *PartNotFoundError) Unwrap() error {
	return ErrPartNotFound
}

// UnknownRelationshipError represents a relationship id with no entry.
type UnknownRelationshipError struct {
	Owner string // Part that owns the relationship set
	ID    string // Relationship id that failed to resolve
}

func (e *UnknownRelationshipError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("unknown relationship %s in %s", e.ID, e.Owner)
	}
	return fmt.Sprintf("unknown relationship %s", e.ID)
}

func (e *UnknownRelationshipError) Unwrap() error {
	return ErrUnknownRelationship
}

// MalformedTimingTreeError represents an animation node that cannot be
// parsed into a recognized rule. Recoverable: the node is skipped and
// processing continues.
type MalformedTimingTreeError struct {
	Node    string // Element name of the offending node
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *MalformedTimingTreeError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("malformed timing node <%s>: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("malformed timing tree: %s", e.Message)
}

func (e *MalformedTimingTreeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedTiming
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewCorruptArchive creates a CorruptArchiveError
func NewCorruptArchive(path string, err error) *CorruptArchiveError {
	return &CorruptArchiveError{Path: path, Err: err}
}

// NewPartNotFound creates a PartNotFoundError
func NewPartNotFound(part string) *PartNotFoundError {
	return &PartNotFoundError{Part: part}
}

// NewUnknownRelationship creates an UnknownRelationshipError
func NewUnknownRelationship(owner, id string) *UnknownRelationshipError {
	return &UnknownRelationshipError{Owner: owner, ID: id}
}

// NewMalformedTiming creates a MalformedTimingTreeError
func NewMalformedTiming(node, message string) *MalformedTimingTreeError {
	return &MalformedTimingTreeError{Node: node, Message: message}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
