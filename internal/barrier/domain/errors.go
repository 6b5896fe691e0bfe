package domain

import (
	"github.com/allisson/barrier/internal/errors"
)

// Key hierarchy error definitions.
//
// These domain-specific errors wrap the sentinel roots from internal/errors,
// so callers can branch with errors.Is against either the named error or its
// root. Cryptographic failures are definitive; none of these warrant a retry.
var (
	// ErrSealed indicates the barrier has not been initialized with valid
	// unseal material. Every data operation refuses with this error until
	// Initialize succeeds.
	ErrSealed = errors.ErrSealed

	// ErrKeyNotFound indicates the (key ID, version) pair referenced by a
	// ciphertext envelope does not exist in the keyring. Decryption never
	// falls back to a different key.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrAuthenticationFailed indicates an AEAD authentication tag did not
	// verify. The ciphertext, nonce, or associated data has been altered,
	// or the wrong key was referenced. No plaintext is ever returned.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrIntegrity, "authentication failed")

	// ErrUnwrapFailed indicates a persisted key record could not be
	// unwrapped with its parent key. During initialization this means the
	// supplied unseal material does not match the stored hierarchy.
	ErrUnwrapFailed = errors.Wrap(errors.ErrSealed, "key unwrap failed")

	// ErrBarrierClosed indicates the barrier has been shut down and its
	// keyring zeroed. A closed barrier cannot be reopened; construct a new
	// one and initialize it again.
	ErrBarrierClosed = errors.New("barrier service is closed")

	// ErrUnsupportedAlgorithm indicates the requested algorithm is not in
	// the allow list (aes-gcm, aes-128-gcm, aes-192-gcm, aes-gcm-siv).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the key length does not match what the
	// algorithm requires (16, 24, or 32 bytes depending on the algorithm).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidEnvelopeFormat indicates a ciphertext envelope string could
	// not be parsed into its five colon-separated segments.
	ErrInvalidEnvelopeFormat = errors.Wrap(errors.ErrInvalidInput, "invalid envelope format")

	// ErrInvalidEnvelopeKeyID indicates the envelope key ID segment is not
	// a valid UUID.
	ErrInvalidEnvelopeKeyID = errors.Wrap(errors.ErrInvalidInput, "invalid envelope key id")

	// ErrInvalidEnvelopeVersion indicates the envelope version segment is
	// not a non-negative integer.
	ErrInvalidEnvelopeVersion = errors.Wrap(errors.ErrInvalidInput, "invalid envelope version")

	// ErrInvalidEnvelopeBase64 indicates a base64 segment of the envelope
	// (nonce, AAD, or ciphertext) could not be decoded.
	ErrInvalidEnvelopeBase64 = errors.Wrap(errors.ErrInvalidInput, "invalid envelope base64")
)
