package domain

import "errors"

var (
	// ErrInvalidSpeed is returned when an assumed wave speed is not a positive finite number.
	ErrInvalidSpeed = errors.New("invalid speed")

	// ErrInvalidCoordinate is returned when a latitude or longitude is non-finite or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrNotFound is returned by repositories and data providers when nothing matches.
	ErrNotFound = errors.New("not found")
)
