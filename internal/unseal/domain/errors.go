package domain

import (
	"github.com/allisson/barrier/internal/errors"
)

// Unseal error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors.
// All of them share the ErrSealed root: when unseal material cannot be
// obtained, the barrier cannot serve any data operation, and callers must
// treat the condition as fatal rather than retry.
var (
	// ErrUnsealFailed indicates unseal material could not be obtained.
	//
	// This error is returned when the configured source is absent or
	// unreadable, when material is shorter than MinMaterialLen, or when a
	// KMS unwrap fails.
	ErrUnsealFailed = errors.Wrap(errors.ErrSealed, "unseal failed")

	// ErrInsufficientShares indicates fewer shares than the threshold were
	// supplied. Reconstruction needs at least the threshold number of
	// distinct shares.
	ErrInsufficientShares = errors.Wrap(errors.ErrSealed, "insufficient shares")

	// ErrCorruptShare indicates a share failed its integrity check and
	// reconstruction was aborted.
	//
	// A share is corrupt when its checksum does not match, when its length
	// is wrong, or when its x-coordinate is zero or duplicates another
	// share in the set.
	ErrCorruptShare = errors.Wrap(errors.ErrSealed, "corrupt share")
)
