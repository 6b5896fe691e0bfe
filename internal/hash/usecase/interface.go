// Package usecase implements the hash engine workflows: entropy-aware,
// peppered hashing of credentials and PII, and validation of stored hash
// strings from any generation of the format.
package usecase

import (
	"context"

	hashDomain "github.com/allisson/barrier/internal/hash/domain"
)

// HashUseCase hashes inputs and validates stored hash strings.
//
// Every operation needs the caller's registry identifier: peppers are
// scoped per registry, and stored strings record only the pepper version,
// not the registry name. Each caller owns exactly one registry (passwords,
// emails, key material), so the identifier travels as a parameter.
type HashUseCase interface {
	// Hash classifies the input by the given entropy and salt classes,
	// peppers it with the registry's active pepper, runs the selected key
	// derivation function and returns the persisted string form.
	//
	// Fixed-salt hashing is fully deterministic: the same input under the
	// same registry and pepper version yields a byte-identical string, so
	// stored values support equality lookup. Random-salt hashing draws a
	// fresh salt and pepper nonce per call and never repeats an output.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - input: The value to hash (a credential or PII value)
	//   - registryID: Pepper registry the caller owns
	//   - entropy: Search-space class selecting PBKDF2 (low) or HKDF (high)
	//   - salt: Salt class selecting deterministic (fixed) or random hashing
	//
	// Returns:
	//   - The encoded hash string to persist
	//   - ErrPepperNotFound if the registry has no pepper yet
	//   - ErrDeterministicRequiresSIV if fixed-salt hashing is requested on
	//     a plain-GCM registry
	//   - ErrInvalidEntropyClass / ErrInvalidSaltClass for unknown classes
	Hash(
		ctx context.Context,
		input []byte,
		registryID string,
		entropy hashDomain.EntropyClass,
		salt hashDomain.SaltClass,
	) (string, error)

	// Validate recomputes the hash of input using exactly the parameters
	// recorded in the stored string and compares in constant time.
	//
	// A wrong input value is not an error: Validate returns (false, nil).
	// Errors are reserved for strings that cannot be checked at all:
	// malformed encodings, algorithms outside the allow list, and pepper
	// versions that no longer exist.
	//
	// Strings with the legacy "$pbkdf2-" prefix are verified against the
	// previous generation's format, which predates peppering.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - input: The value to check
	//   - registryID: Pepper registry the caller owns
	//   - encoded: The stored hash string
	//
	// Returns:
	//   - true if the input matches, false with a nil error if it does not
	//   - ErrMalformedEncoding if the string does not parse
	//   - ErrUnknownPepperVersion if the referenced pepper version is gone
	//   - ErrUnsupportedAlgorithm if the recorded algorithm is not allowed
	Validate(ctx context.Context, input []byte, registryID string, encoded string) (bool, error)
}
