// Package domain defines the hashing model: entropy and salt classes, the
// key derivation algorithm allow list, and the persisted hash encodings.
package domain

// EntropyClass describes the brute-force search space of a hash input and
// selects the key derivation family.
//
// Low-entropy inputs (passwords, PINs, email addresses) sit in a search
// space an attacker can enumerate, so they get PBKDF2 with a high iteration
// count to make each guess expensive. High-entropy inputs (key material,
// tokens of 256 bits or more) cannot be enumerated, so a single HKDF
// expansion is sufficient and the iteration cost would buy nothing.
type EntropyClass string

const (
	// EntropyLow selects the PBKDF2 family.
	EntropyLow EntropyClass = "low"

	// EntropyHigh selects the HKDF family.
	EntropyHigh EntropyClass = "high"
)

// Validate checks the entropy class against its allow list.
func (c EntropyClass) Validate() error {
	switch c {
	case EntropyLow, EntropyHigh:
		return nil
	}
	return ErrInvalidEntropyClass
}

// SaltClass describes how the salt is obtained and whether the hash output
// is stable across calls.
//
// Random salting produces a different encoded string for the same input on
// every call. Fixed salting derives both salt and pepper nonce from the
// registry pepper, making the whole operation deterministic so equal inputs
// can be found by equality lookup over the stored strings.
type SaltClass string

const (
	// SaltRandom draws a fresh random salt per call.
	SaltRandom SaltClass = "random"

	// SaltFixed derives a pepper-scoped fixed salt. Peppering is mandatory
	// and deterministic for this class.
	SaltFixed SaltClass = "fixed"
)

// Validate checks the salt class against its allow list.
func (c SaltClass) Validate() error {
	switch c {
	case SaltRandom, SaltFixed:
		return nil
	}
	return ErrInvalidSaltClass
}

// Algorithm names a key derivation function over one of the SHA-2 digests.
// The set is the FIPS-approved allow list; nothing outside it is ever run.
type Algorithm string

const (
	// PBKDF2SHA256 is PBKDF2-HMAC-SHA256, the low-entropy default.
	PBKDF2SHA256 Algorithm = "pbkdf2-sha256"

	// PBKDF2SHA384 is PBKDF2-HMAC-SHA384.
	PBKDF2SHA384 Algorithm = "pbkdf2-sha384"

	// PBKDF2SHA512 is PBKDF2-HMAC-SHA512.
	PBKDF2SHA512 Algorithm = "pbkdf2-sha512"

	// HKDFSHA256 is a single HKDF-SHA256 expansion, the high-entropy default.
	HKDFSHA256 Algorithm = "hkdf-sha256"

	// HKDFSHA384 is a single HKDF-SHA384 expansion.
	HKDFSHA384 Algorithm = "hkdf-sha384"

	// HKDFSHA512 is a single HKDF-SHA512 expansion.
	HKDFSHA512 Algorithm = "hkdf-sha512"
)

// MinPBKDF2Iterations is the iteration floor for low-entropy hashing.
// Configuration may raise the count, never lower it.
const MinPBKDF2Iterations = 600000

// DigestSize returns the output length in bytes of the algorithm's
// underlying hash. The derived key length always equals the digest size.
// Returns 0 for unknown algorithm names.
func (a Algorithm) DigestSize() int {
	switch a {
	case PBKDF2SHA256, HKDFSHA256:
		return 32
	case PBKDF2SHA384, HKDFSHA384:
		return 48
	case PBKDF2SHA512, HKDFSHA512:
		return 64
	}
	return 0
}

// Class returns the entropy class the algorithm serves. The mapping is
// total over the allow list: PBKDF2 variants are low, HKDF variants high.
func (a Algorithm) Class() (EntropyClass, error) {
	switch a {
	case PBKDF2SHA256, PBKDF2SHA384, PBKDF2SHA512:
		return EntropyLow, nil
	case HKDFSHA256, HKDFSHA384, HKDFSHA512:
		return EntropyHigh, nil
	}
	return "", ErrUnsupportedAlgorithm
}

// DefaultAlgorithm returns the algorithm used for new hashes of a class.
// Stored strings self-describe their algorithm, so changing the default
// never breaks validation of existing rows.
func DefaultAlgorithm(class EntropyClass) (Algorithm, error) {
	switch class {
	case EntropyLow:
		return PBKDF2SHA256, nil
	case EntropyHigh:
		return HKDFSHA256, nil
	}
	return "", ErrInvalidEntropyClass
}

// SaltSize is the salt length in bytes for both random and fixed salts.
const SaltSize = 16
