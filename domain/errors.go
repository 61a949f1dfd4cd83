package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials is returned on failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrIndexNotFound is returned by the search driver when the queried
	// index has not been created yet.
	ErrIndexNotFound = errors.New("search index not found")
)

// RepositoryError represents an error from the repository layer.
type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}

// SearchEngineError represents an error from the search engine layer.
type SearchEngineError struct {
	Op  string
	Err string
}

func (e *SearchEngineError) Error() string {
	return e.Op + ": " + e.Err
}

// DriverError represents an error from the driver layer.
type DriverError struct {
	Op  string
	Err string
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}
