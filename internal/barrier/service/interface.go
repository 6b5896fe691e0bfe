// Package service provides the cryptographic services behind the barrier.
// Implements AEAD ciphers (AES-GCM at three key sizes, AES-GCM-SIV), key
// wrapping for the layer hierarchy, and HKDF derivation of the root-unwrap
// key from unseal material.
package service

import (
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and a fresh random nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// EncryptWithNonce encrypts plaintext using the caller-supplied nonce.
	// Only nonce-misuse resistant ciphers are safe to call with a repeated nonce.
	EncryptWithNonce(plaintext, nonce, aad []byte) ([]byte, error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg barrierDomain.Algorithm) (AEAD, error)
}

// WrappingKey identifies the key a record is wrapped under: the parent's
// clear key bytes and algorithm, plus the reference string persisted on the
// wrapped record (the parent record's ID, or WrappingKeyRefUnseal when the
// parent is the root-unwrap key).
type WrappingKey struct {
	Key       []byte
	Algorithm barrierDomain.Algorithm
	Ref       string
}

// KeyManager defines the interface for creating, unwrapping, and re-wrapping
// key records in the layer hierarchy.
type KeyManager interface {
	// CreateKeyRecord generates a fresh key for one layer and wraps it under the parent.
	CreateKeyRecord(
		parent WrappingKey,
		layer barrierDomain.Layer,
		version uint,
		alg barrierDomain.Algorithm,
	) (barrierDomain.KeyRecord, error)

	// UnwrapKeyRecord decrypts a record's wrapped key using the parent key.
	UnwrapKeyRecord(record *barrierDomain.KeyRecord, parent WrappingKey) ([]byte, error)

	// RewrapKeyRecord unwraps a record with its old parent and wraps it again
	// under the new parent with a fresh nonce.
	RewrapKeyRecord(
		record *barrierDomain.KeyRecord,
		oldParent, newParent WrappingKey,
	) (barrierDomain.KeyRecord, error)
}

// RootKeyDeriver derives the root-unwrap key from unseal material.
//
// The derivation is pure: identical material yields an identical key on any
// instance, which is what lets independently unsealed replicas open the same
// stored hierarchy.
type RootKeyDeriver interface {
	// DeriveRootUnwrapKey expands unseal material into a 32-byte root-unwrap key.
	DeriveRootUnwrapKey(material []byte) ([]byte, error)

	// DeriveSubkey expands a root key into a purpose-bound 32-byte subkey.
	// The info string separates purposes: distinct infos yield independent
	// keys, and no subkey reveals anything about the root key or a sibling.
	DeriveSubkey(rootKey, info []byte) ([]byte, error)
}
