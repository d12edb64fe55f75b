// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the caller supplied invalid input.
// Wrap it with the offending field: fmt.Errorf("%w: goal too short", ErrValidation).
var ErrValidation = errors.New("validation failed")
