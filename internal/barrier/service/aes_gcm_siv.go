package service

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/secure-io/siv-go"
)

// AESGCMSIVCipher implements the AEAD interface using AES-256-GCM-SIV
// (RFC 8452).
//
// GCM-SIV is nonce-misuse resistant: encrypting two plaintexts with the same
// key and nonce reveals only whether the plaintexts are equal, never the key
// stream. This makes it the only supported cipher for deterministic
// peppering, where a fixed nonce is reused by construction so that equal
// inputs produce equal outputs.
//
// Security properties:
//   - 32-byte key (256 bits)
//   - 12-byte nonce (96 bits)
//   - 16-byte authentication tag
//   - Nonce reuse degrades to equality leakage only
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from
//	multiple goroutines.
type AESGCMSIVCipher struct {
	aead cipher.AEAD
}

// NewAESGCMSIV creates a new AES-256-GCM-SIV cipher instance.
//
// The key must be exactly 32 bytes. Keys should be generated with
// crypto/rand.
//
// Parameters:
//   - key: A 32-byte (256-bit) encryption key
//
// Returns:
//   - A new AESGCMSIVCipher instance ready for encryption/decryption
//   - An error if the key size is invalid or cipher initialization fails
func NewAESGCMSIV(key []byte) (*AESGCMSIVCipher, error) {
	if len(key) != 32 {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	aead, err := siv.NewGCM(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM-SIV: %w", err)
	}

	return &AESGCMSIVCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext with a fresh random 12-byte nonce.
//
// Parameters:
//   - plaintext: The data to encrypt (can be empty)
//   - aad: Additional data to authenticate but not encrypt (can be nil)
//
// Returns:
//   - ciphertext: The encrypted data with the authentication tag appended
//   - nonce: The randomly generated 12-byte nonce used for this encryption
//   - err: Any error encountered during nonce generation
func (a *AESGCMSIVCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// EncryptWithNonce encrypts plaintext using the caller-supplied nonce.
//
// This is the deterministic path: the same key, nonce, plaintext, and AAD
// always produce the same ciphertext. Safe under nonce reuse because of
// GCM-SIV's misuse resistance.
//
// Parameters:
//   - plaintext: The data to encrypt
//   - nonce: A 12-byte nonce chosen by the caller (may be fixed)
//   - aad: Additional data to authenticate but not encrypt (can be nil)
//
// Returns:
//   - The encrypted data with the authentication tag appended
//   - An error if the nonce length is wrong
func (a *AESGCMSIVCipher) EncryptWithNonce(plaintext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be exactly %d bytes", a.aead.NonceSize())
	}

	return a.aead.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt decrypts ciphertext using the provided nonce and AAD.
//
// Parameters:
//   - ciphertext: The encrypted data to decrypt (includes authentication tag)
//   - nonce: The 12-byte nonce used during encryption
//   - aad: The same additional data provided during encryption (can be nil)
//
// Returns:
//   - plaintext: The decrypted data
//   - err: An error if authentication fails or the ciphertext was modified
func (a *AESGCMSIVCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
