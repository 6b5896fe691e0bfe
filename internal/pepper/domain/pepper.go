// Package domain defines the core domain models for pepper registries.
//
// A pepper is a per-registry secret key mixed into hashing so stored hashes
// cannot be attacked offline with database contents alone. Peppers are
// versioned per registry: rotation adds a new version and prior versions stay
// loadable so hashes written under them keep validating.
package domain

import (
	"fmt"
	"time"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// KeySize is the pepper key length in bytes. Both permitted pepper
// algorithms use 256-bit keys.
const KeySize = 32

// Pepper represents one version of one registry's pepper key.
//
// Rows are persisted with the key sealed inside a barrier ciphertext
// envelope; the clear Key field is populated only after the envelope has
// been opened through the barrier and is never written to storage.
type Pepper struct {
	RegistryID string                  // Registry this pepper belongs to (lowercase identifier)
	Version    uint                    // Version number, starting at 1
	Algorithm  barrierDomain.Algorithm // AEAD used when applying the pepper (aes-gcm-siv or aes-gcm)
	Envelope   string                  // Barrier ciphertext envelope wrapping the key (persisted form)
	Key        []byte                  // Clear pepper key (populated after decryption, never persisted)
	CreatedAt  time.Time
}

// EnvelopeAAD returns the associated data a pepper envelope is sealed with:
// "pepper:{registryID}:{version}". The binding ties each envelope to its own
// row, so an envelope swapped between rows at the storage level fails to
// open even though it is a valid ciphertext.
func EnvelopeAAD(registryID string, version uint) []byte {
	return []byte(fmt.Sprintf("pepper:%s:%d", registryID, version))
}

// SupportedAlgorithm reports whether alg is permitted for peppers.
//
// Peppers accept only the 256-bit algorithms: aes-gcm-siv for registries
// that need deterministic application, aes-gcm for registries that only
// ever apply nondeterministically.
func SupportedAlgorithm(alg barrierDomain.Algorithm) bool {
	switch alg {
	case barrierDomain.AESGCMSIV, barrierDomain.AESGCM:
		return true
	}
	return false
}

// Validate checks if the Pepper has valid field values.
// Returns an error if any field constraint is violated.
func (p *Pepper) Validate() error {
	if p.RegistryID == "" {
		return ErrInvalidRegistryID
	}
	if p.Version == 0 {
		return ErrInvalidPepperVersion
	}
	if !SupportedAlgorithm(p.Algorithm) {
		return ErrUnsupportedPepperAlgorithm
	}
	return nil
}
