package models

import (
	"errors"
	"fmt"
)

var (
	// ErrVertexOutOfRange indicates a vertex id outside [0, vertices).
	ErrVertexOutOfRange = errors.New("models: vertex id out of range")
	// ErrPartitionOutOfRange indicates a partition id outside [0, partsCount).
	ErrPartitionOutOfRange = errors.New("models: partition id out of range")
	// ErrInvalidAccuracy indicates a balance accuracy outside [0, 1].
	ErrInvalidAccuracy = errors.New("models: accuracy must be between 0.0 and 1.0")
	// ErrInvalidPartitionCount indicates a non-positive partition count.
	ErrInvalidPartitionCount = errors.New("models: partition count must be greater than 0")
	// ErrTooManyPartitions indicates more partitions were requested than there are vertices.
	ErrTooManyPartitions = errors.New("models: more partitions requested than vertices")
	// ErrInconsistentPartition indicates partition membership and node partIds disagree.
	ErrInconsistentPartition = errors.New("models: partition membership does not match node assignment")
)

// ValidationError represents structured validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
	Err     error  `json:"-"`
}

func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("validation error in field '%s': %s (value: %s)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// Unwrap exposes the sentinel error, if any, so errors.Is works through ValidationError.
func (ve ValidationError) Unwrap() error {
	return ve.Err
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors: %s (and %d more)", len(ve), ve[0].Error(), len(ve)-1)
}

// Unwrap returns every wrapped sentinel so errors.Is matches any of them.
func (ve ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(ve))
	for _, e := range ve {
		errs = append(errs, e)
	}
	return errs
}

// Fields returns the distinct field names present in the collection, in order of first appearance.
func (ve ValidationErrors) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, e := range ve {
		if !seen[e.Field] {
			seen[e.Field] = true
			fields = append(fields, e.Field)
		}
	}
	return fields
}
