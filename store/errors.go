package store

import "fmt"

// ExistsError is returned when creating something that is already
// there.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("already exists: %s", e.Path)
}

// NotFoundError is returned when a group, dataset, attribute or file
// is missing.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// MalformedError is returned when a file does not carry the store
// header or its body cannot be decoded.
type MalformedError struct {
	Path   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed store %s: %s", e.Path, e.Reason)
}
