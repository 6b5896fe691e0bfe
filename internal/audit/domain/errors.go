package domain

import (
	"github.com/allisson/barrier/internal/errors"
)

// Audit trail error definitions.
var (
	// ErrSignatureInvalid indicates an audit record's signature does not
	// match its content. The row, its signature, or its recorded root key
	// version has been altered since the record was written.
	ErrSignatureInvalid = errors.Wrap(errors.ErrIntegrity, "audit record signature invalid")

	// ErrUnknownOperation indicates an operation name outside the audited
	// set.
	ErrUnknownOperation = errors.Wrap(errors.ErrInvalidInput, "unknown audit operation")
)
