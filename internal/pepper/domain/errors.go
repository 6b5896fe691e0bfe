package domain

import (
	"github.com/allisson/barrier/internal/errors"
)

// Pepper registry error definitions.
//
// These wrap the sentinel roots from internal/errors, so callers can branch
// with errors.Is against either the named error or its root.
var (
	// ErrPepperNotFound indicates no pepper exists for the requested registry
	// or (registry, version) pair.
	ErrPepperNotFound = errors.Wrap(errors.ErrNotFound, "pepper not found")

	// ErrPepperAlreadyExists indicates the registry already has a pepper.
	// Generating twice is refused; rotation is the way to issue a new key.
	ErrPepperAlreadyExists = errors.Wrap(errors.ErrConflict, "pepper already exists")

	// ErrInvalidRegistryID indicates the registry identifier is empty or does
	// not match the lowercase identifier format.
	ErrInvalidRegistryID = errors.Wrap(errors.ErrInvalidInput, "invalid registry id")

	// ErrInvalidPepperVersion indicates a zero version number. Versions start
	// at 1.
	ErrInvalidPepperVersion = errors.Wrap(errors.ErrInvalidInput, "invalid pepper version")

	// ErrUnsupportedPepperAlgorithm indicates the algorithm is not in the
	// pepper allow list (aes-gcm-siv, aes-gcm).
	ErrUnsupportedPepperAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported pepper algorithm")

	// ErrDeterministicRequiresSIV indicates a deterministic pepper application
	// was attempted with an algorithm that is not nonce-misuse resistant.
	// Deterministic application reuses a fixed nonce by construction, which
	// plain GCM cannot survive, so only aes-gcm-siv is accepted.
	ErrDeterministicRequiresSIV = errors.Wrap(errors.ErrInvalidInput, "deterministic peppering requires aes-gcm-siv")

	// ErrPepperEnvelopeMismatch indicates a stored envelope's associated data
	// does not match the row it was loaded from. The envelope decrypts, but
	// it was sealed for a different (registry, version) pair.
	ErrPepperEnvelopeMismatch = errors.Wrap(errors.ErrIntegrity, "pepper envelope does not match its registry binding")
)
