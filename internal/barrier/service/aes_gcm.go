package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// AESGCMCipher implements the AEAD interface using AES-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// AES-GCM provides authenticated encryption with associated data, combining
// the confidentiality of AES with the authenticity of GMAC. The key length
// selects the AES variant: 16 bytes for AES-128, 24 for AES-192, 32 for
// AES-256.
//
// Security properties:
//   - 12-byte nonce (96 bits, randomly generated by Encrypt)
//   - 16-byte authentication tag (128 bits, appended to ciphertext)
//   - Authenticated encryption prevents tampering and forgery
//
// Thread safety:
//
//	The cipher instance is stateless and safe for concurrent use from
//	multiple goroutines. Each Encrypt call generates its nonce independently.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-GCM cipher instance.
//
// The key must be 16, 24, or 32 bytes, selecting AES-128, AES-192, or
// AES-256 respectively. Keys should be generated with crypto/rand.
//
// Parameters:
//   - key: A 16, 24, or 32-byte encryption key
//
// Returns:
//   - A new AESGCMCipher instance ready for encryption/decryption
//   - An error if the key size is invalid or cipher initialization fails
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("key must be 16, 24, or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext using AES-GCM with optional additional authenticated data.
//
// The AAD is authenticated but not encrypted, binding the ciphertext to
// caller context (a registry ID, a wrapping position) without storing it
// encrypted. Pass nil when no additional data needs to be authenticated.
//
// A unique 12-byte nonce is generated with crypto/rand for each call and
// must be stored alongside the ciphertext. With GCM, nonces must never be
// reused under the same key.
//
// Parameters:
//   - plaintext: The data to encrypt (can be empty)
//   - aad: Additional data to authenticate but not encrypt (can be nil)
//
// Returns:
//   - ciphertext: The encrypted data with the authentication tag appended
//   - nonce: The randomly generated 12-byte nonce used for this encryption
//   - err: Any error encountered during nonce generation
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// EncryptWithNonce encrypts plaintext using the caller-supplied nonce.
//
// Reusing a nonce under the same key destroys GCM's confidentiality and
// authenticity guarantees. Callers that need a fixed nonce must use the
// GCM-SIV cipher instead; this method exists so every cipher satisfies the
// AEAD interface.
//
// Parameters:
//   - plaintext: The data to encrypt
//   - nonce: A 12-byte nonce chosen by the caller
//   - aad: Additional data to authenticate but not encrypt (can be nil)
//
// Returns:
//   - The encrypted data with the authentication tag appended
//   - An error if the nonce length is wrong
func (a *AESGCMCipher) EncryptWithNonce(plaintext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be exactly %d bytes", a.aead.NonceSize())
	}

	return a.aead.Seal(nil, nonce, plaintext, aad), nil
}

// Decrypt decrypts ciphertext using AES-GCM with the provided nonce and AAD.
//
// The same AAD supplied during encryption must be provided again; a mismatch
// fails authentication. The authentication tag is verified before any
// plaintext is returned, so tampered ciphertext never yields data.
//
// Parameters:
//   - ciphertext: The encrypted data to decrypt (includes authentication tag)
//   - nonce: The 12-byte nonce used during encryption
//   - aad: The same additional data provided during encryption (can be nil)
//
// Returns:
//   - plaintext: The decrypted data
//   - err: An error if authentication fails or the ciphertext was modified
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
