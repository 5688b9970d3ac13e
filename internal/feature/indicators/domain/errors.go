// Package domain defines domain-level errors for the indicators feature.
package domain

import "errors"

var (
	// ErrEmptyWindow indicates that a trailing window produced no usable prices,
	// so the aggregate is undefined. It is never coerced to a numeric sentinel.
	ErrEmptyWindow = errors.New("no prices available in window")

	// ErrInvalidPeriod indicates a period below one trading day.
	ErrInvalidPeriod = errors.New("period must be at least 1")

	// ErrNoTradingDay indicates the calendar reported no open day within the
	// configured search limit while walking toward a trading day.
	ErrNoTradingDay = errors.New("no trading day found within search limit")

	// ErrUnknownIndicator indicates an unsupported indicator kind.
	ErrUnknownIndicator = errors.New("unknown indicator")
)
