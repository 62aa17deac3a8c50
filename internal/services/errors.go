// Package services defines the business logic for promotions: filter
// resolution, activation-window computation, and lifecycle transitions.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler layer.
package services

import "errors"

var (
	// ErrPromotionNotFound indicates that the requested promotion does not
	// exist.
	ErrPromotionNotFound = errors.New("promotion not found")

	// ErrIDMismatch is returned when an update payload carries an explicit
	// id that disagrees with the target identifier in the path. It is
	// detected before any persistence access.
	ErrIDMismatch = errors.New("id in body must match resource path")

	// ErrInvalidActiveFilter is returned when the 'active' list filter is
	// present but is not one of the accepted boolean literals.
	ErrInvalidActiveFilter = errors.New("invalid value for query parameter 'active'")
)
