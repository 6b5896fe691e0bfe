// Package domain defines the unseal domain models for obtaining root key material.
//
// Unseal material is the secret that stands outside the stored key hierarchy:
// every persisted key traces back to a root key wrapped by a key derived from
// this material. Material can come from a single configured key, from a
// threshold of Shamir shares, or from a deterministic host fingerprint.
package domain

import "context"

// MinMaterialLen is the minimum length in bytes of unseal material.
// Shorter inputs do not carry enough entropy to derive a 256-bit key from.
const MinMaterialLen = 32

// Material holds raw unseal key material.
//
// Material is never persisted and never logged. Holders must call Zero when
// the derived keys have been produced so the secret does not linger in memory.
type Material []byte

// Zero overwrites the material with zeros to clear it from memory.
func (m Material) Zero() {
	Zero(m)
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// KMSKeeper abstracts a KMS-backed wrapping key used to protect unseal
// material at rest. *secrets.Keeper from gocloud.dev implements it.
type KMSKeeper interface {
	// Encrypt wraps plaintext with the KMS key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt unwraps ciphertext with the KMS key.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources held by the keeper.
	Close() error
}
