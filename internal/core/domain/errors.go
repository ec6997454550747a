package domain

import "errors"

var (
	// ErrNotFound is a normal query miss, distinct from a transport failure.
	ErrNotFound = errors.New("not found")

	// ErrNoProductID marks a payload with no extractable product identity.
	ErrNoProductID = errors.New("no product id in payload")

	// ErrRemoteUnavailable marks a fetch that yielded no data.
	ErrRemoteUnavailable = errors.New("remote catalog unavailable")
)
