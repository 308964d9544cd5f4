// Package common defines sentinel errors shared by the store, the services
// and the route layer. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Content errors.
	ErrorValidation = errors.New("validation error")
	ErrorDuplicate  = errors.New("headword already exists")

	// Reviewer is not on the allow-list.
	ErrorUnauthorized = errors.New("unauthorized")

	// External image store failed (upload or delete).
	ErrorStorage = errors.New("image storage error")

	// Reserved for the list codec. Decoding degrades to a best-effort
	// interpretation instead of returning it.
	ErrorMalformedData = errors.New("malformed data")

	ErrorInternal = errors.New("internal error")
)
