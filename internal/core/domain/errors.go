package domain

import "errors"

var (
	// ErrPositionUnavailable covers denied permission, timeouts and a missing
	// geolocation capability.
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrRequestFailed is any network or decode failure talking to the backend.
	ErrRequestFailed = errors.New("request failed")

	// ErrNoActiveArea is returned for area operations attempted before a
	// location has been established.
	ErrNoActiveArea = errors.New("no active area of interest")

	// ErrInvalidInput covers empty descriptions, non-positive radii and bad coordinates.
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
