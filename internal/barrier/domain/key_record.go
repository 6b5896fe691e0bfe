// Package domain defines the core domain models for the barrier key hierarchy.
//
// It implements a three-layer envelope hierarchy: root → intermediate → content.
// Root keys are wrapped by a key derived from unseal material, intermediate keys
// by the active root key, and content keys by the active intermediate key. Only
// content keys encrypt caller data, so rotating an upper layer never requires
// re-encrypting stored ciphertexts.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// WrappingKeyRefUnseal marks a key record as wrapped by the root-unwrap key
// derived from unseal material rather than by a stored parent record.
const WrappingKeyRefUnseal = "unseal"

// KeyRecord represents one version of one layer of the key hierarchy.
//
// Records are persisted with the key material wrapped by the parent key;
// the clear Key field is populated only after unwrapping and is never
// written to storage. Each (Layer, Version) pair is unique, and historical
// versions remain decrypt-only after rotation.
type KeyRecord struct {
	ID             uuid.UUID // Unique identifier (UUIDv7)
	Layer          Layer     // Hierarchy layer (root, intermediate, content)
	Version        uint      // Version number, unique per layer
	Algorithm      Algorithm // AEAD algorithm this key is used with
	EncryptedKey   []byte    // Key material wrapped by the parent key
	Nonce          []byte    // Nonce used when wrapping the key
	WrappingKeyRef string    // Parent record ID, or WrappingKeyRefUnseal for root records
	Key            []byte    // Plaintext key (populated after unwrapping, never persisted)
	CreatedAt      time.Time
}
