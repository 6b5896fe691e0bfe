package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

func TestAEADManagerService_CreateCipher(t *testing.T) {
	manager := NewAEADManager()

	tests := []struct {
		name      string
		algorithm barrierDomain.Algorithm
		keySize   int
	}{
		{
			name:      "aes-gcm with 32-byte key",
			algorithm: barrierDomain.AESGCM,
			keySize:   32,
		},
		{
			name:      "aes-128-gcm with 16-byte key",
			algorithm: barrierDomain.AES128GCM,
			keySize:   16,
		},
		{
			name:      "aes-192-gcm with 24-byte key",
			algorithm: barrierDomain.AES192GCM,
			keySize:   24,
		},
		{
			name:      "aes-gcm-siv with 32-byte key",
			algorithm: barrierDomain.AESGCMSIV,
			keySize:   32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := make([]byte, tt.keySize)
			_, err := rand.Read(key)
			require.NoError(t, err)

			cipher, err := manager.CreateCipher(key, tt.algorithm)
			require.NoError(t, err)
			require.NotNil(t, cipher)

			plaintext := []byte("round trip")
			ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
			require.NoError(t, err)

			decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}

	t.Run("key size mismatch returns ErrInvalidKeySize", func(t *testing.T) {
		key := make([]byte, 16)
		_, err := rand.Read(key)
		require.NoError(t, err)

		cipher, err := manager.CreateCipher(key, barrierDomain.AESGCM)
		assert.ErrorIs(t, err, barrierDomain.ErrInvalidKeySize)
		assert.Nil(t, cipher)
	})

	t.Run("gcm-siv requires a 32-byte key", func(t *testing.T) {
		key := make([]byte, 16)
		_, err := rand.Read(key)
		require.NoError(t, err)

		cipher, err := manager.CreateCipher(key, barrierDomain.AESGCMSIV)
		assert.ErrorIs(t, err, barrierDomain.ErrInvalidKeySize)
		assert.Nil(t, cipher)
	})

	t.Run("unsupported algorithm returns ErrUnsupportedAlgorithm", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		cipher, err := manager.CreateCipher(key, barrierDomain.Algorithm("chacha20-poly1305"))
		assert.ErrorIs(t, err, barrierDomain.ErrUnsupportedAlgorithm)
		assert.Nil(t, cipher)
	})
}
