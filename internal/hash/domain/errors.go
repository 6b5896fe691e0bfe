package domain

import (
	"github.com/allisson/barrier/internal/errors"
)

// Hash engine error definitions.
//
// These wrap the sentinel roots from internal/errors, so callers can branch
// with errors.Is against either the named error or its root.
var (
	// ErrMalformedEncoding indicates a stored hash string that does not
	// parse under any known grammar. It points at corrupted data or a
	// foreign format, never at a wrong input value.
	ErrMalformedEncoding = errors.Wrap(errors.ErrInvalidInput, "malformed encoded hash")

	// ErrUnknownPepperVersion indicates the pepper version referenced by an
	// encoded hash no longer exists in the registry. The stored string can
	// never be validated again; callers should treat this as a data
	// integrity problem, not a mismatch.
	ErrUnknownPepperVersion = errors.Wrap(errors.ErrNotFound, "unknown pepper version")

	// ErrUnsupportedAlgorithm indicates an algorithm outside the
	// FIPS-approved allow list.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported hash algorithm")

	// ErrInvalidEntropyClass indicates an entropy class other than low or
	// high.
	ErrInvalidEntropyClass = errors.Wrap(errors.ErrInvalidInput, "invalid entropy class")

	// ErrInvalidSaltClass indicates a salt class other than random or fixed.
	ErrInvalidSaltClass = errors.Wrap(errors.ErrInvalidInput, "invalid salt class")
)
