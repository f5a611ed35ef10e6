package tle

import "errors"

var (
	// ErrUpstreamUnavailable covers network failures, timeouts, non-2xx statuses
	// and empty or oversized bodies from an element source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedElementData means the source answered but the text is not a
	// usable name/line1/line2 triple.
	ErrMalformedElementData = errors.New("malformed element data")

	// ErrValidation means the decoded catalog number does not match the one requested.
	ErrValidation = errors.New("element set validation failed")
)
