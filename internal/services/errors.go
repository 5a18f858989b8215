// Package services defines the business logic of the input pipeline:
// intent classification, response strategy, activity processing, the
// pending-input queue, and the daily rollup. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEmptyInput is returned when a submitted input contains no text.
	ErrEmptyInput = errors.New("input is empty")

	// ErrTooLong is returned when a submitted input exceeds the maximum
	// configured rune length.
	ErrTooLong = errors.New("input too long")

	// ErrNoActivities is returned by the rollup when the requested date has
	// no activities to summarize.
	ErrNoActivities = errors.New("no activities for date")

	// ErrRollupExists is returned when a rollup record already exists for
	// the requested date.
	ErrRollupExists = errors.New("rollup already exists for date")

	// ErrAIRequired is returned by operations that have no local fallback
	// (the daily analysis) when the AI endpoint cannot be used.
	ErrAIRequired = errors.New("ai required for this operation")
)
