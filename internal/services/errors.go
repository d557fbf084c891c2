package services

import "errors"

var (
	// ErrMissingInput is returned when a required identifier is absent.
	ErrMissingInput = errors.New("missing required input")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrVersionConflict is returned when a learning profile changed since it was loaded.
	ErrVersionConflict = errors.New("learning profile version conflict")
	ErrNotFound        = errors.New("not found")
)
