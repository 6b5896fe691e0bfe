package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// KeyManagerService implements the KeyManager interface for the layer hierarchy.
//
// The service manages the lifecycle of wrapped key records across the three
// layers of the hierarchy:
//   - root keys are wrapped by the root-unwrap key derived from unseal material
//   - intermediate keys are wrapped by the active root key
//   - content keys are wrapped by the active intermediate key
//
// Wrapping always uses the parent's own algorithm and key, so a record can be
// unwrapped knowing only its parent; the record's Algorithm field governs how
// the child key itself is used. The service uses AEADManager to create cipher
// instances, keeping cipher construction in one place.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService instance with the provided AEADManager.
//
// Parameters:
//   - aeadManager: The AEADManager used to create cipher instances
//
// Returns:
//   - A new KeyManagerService instance
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
	}
}

// CreateKeyRecord generates a fresh key for one layer and wraps it under the parent.
//
// The key is generated with crypto/rand at the length the algorithm requires
// and encrypted under the parent key with a fresh nonce. The returned record
// has both the wrapped form (EncryptedKey, Nonce) for persistence and the
// clear Key for immediate use in the keyring.
//
// Parameters:
//   - parent: The wrapping key (parent record's key/algorithm, or the
//     root-unwrap key with WrappingKeyRefUnseal for root records)
//   - layer: The hierarchy layer the new record belongs to
//   - version: The record's version within its layer
//   - alg: The AEAD algorithm the new key will be used with
//
// Returns:
//   - A KeyRecord with EncryptedKey, Nonce, WrappingKeyRef, and clear Key populated
//   - An error if the algorithm is unsupported or wrapping fails
//
// Example:
//
//	parent := WrappingKey{Key: rootUnwrapKey, Algorithm: domain.AESGCM, Ref: domain.WrappingKeyRefUnseal}
//	record, err := keyManager.CreateKeyRecord(parent, domain.LayerRoot, 1, domain.AESGCM)
func (km *KeyManagerService) CreateKeyRecord(
	parent WrappingKey,
	layer barrierDomain.Layer,
	version uint,
	alg barrierDomain.Algorithm,
) (barrierDomain.KeyRecord, error) {
	size, err := alg.KeySize()
	if err != nil {
		return barrierDomain.KeyRecord{}, err
	}

	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return barrierDomain.KeyRecord{}, fmt.Errorf("failed to generate key: %w", err)
	}

	aead, err := km.aeadManager.CreateCipher(parent.Key, parent.Algorithm)
	if err != nil {
		return barrierDomain.KeyRecord{}, err
	}

	encryptedKey, nonce, err := aead.Encrypt(key, nil)
	if err != nil {
		return barrierDomain.KeyRecord{}, fmt.Errorf("failed to wrap key: %w", err)
	}

	return barrierDomain.KeyRecord{
		ID:             uuid.Must(uuid.NewV7()),
		Layer:          layer,
		Version:        version,
		Algorithm:      alg,
		EncryptedKey:   encryptedKey,
		Nonce:          nonce,
		WrappingKeyRef: parent.Ref,
		Key:            key,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// UnwrapKeyRecord decrypts a record's wrapped key using the parent key.
//
// Returns ErrUnwrapFailed when authentication fails, which during
// initialization means the supplied unseal material does not match the
// stored hierarchy. The cause is not disclosed further to avoid leaking
// which part of the chain rejected the key.
//
// Parameters:
//   - record: The key record to unwrap (EncryptedKey and Nonce populated)
//   - parent: The wrapping key the record was created under
//
// Returns:
//   - The clear key bytes
//   - ErrUnwrapFailed if authentication fails
func (km *KeyManagerService) UnwrapKeyRecord(
	record *barrierDomain.KeyRecord,
	parent WrappingKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(parent.Key, parent.Algorithm)
	if err != nil {
		return nil, err
	}

	key, err := aead.Decrypt(record.EncryptedKey, record.Nonce, nil)
	if err != nil {
		return nil, barrierDomain.ErrUnwrapFailed
	}

	return key, nil
}

// RewrapKeyRecord unwraps a record with its old parent and wraps it again
// under the new parent with a fresh nonce.
//
// The record's identity (ID, Layer, Version, Algorithm, CreatedAt) is
// preserved; only EncryptedKey, Nonce, and WrappingKeyRef change. This is
// the maintenance half of lazy rotation: children keep decrypting under the
// old parent until a rewrap pass moves them to the current one.
//
// Parameters:
//   - record: The key record to re-wrap
//   - oldParent: The wrapping key the record is currently wrapped under
//   - newParent: The wrapping key to wrap the record under
//
// Returns:
//   - A copy of the record wrapped under newParent, clear Key populated
//   - ErrUnwrapFailed if the old parent does not authenticate the record
func (km *KeyManagerService) RewrapKeyRecord(
	record *barrierDomain.KeyRecord,
	oldParent, newParent WrappingKey,
) (barrierDomain.KeyRecord, error) {
	key, err := km.UnwrapKeyRecord(record, oldParent)
	if err != nil {
		return barrierDomain.KeyRecord{}, err
	}

	aead, err := km.aeadManager.CreateCipher(newParent.Key, newParent.Algorithm)
	if err != nil {
		barrierDomain.Zero(key)
		return barrierDomain.KeyRecord{}, err
	}

	encryptedKey, nonce, err := aead.Encrypt(key, nil)
	if err != nil {
		barrierDomain.Zero(key)
		return barrierDomain.KeyRecord{}, fmt.Errorf("failed to wrap key: %w", err)
	}

	rewrapped := *record
	rewrapped.EncryptedKey = encryptedKey
	rewrapped.Nonce = nonce
	rewrapped.WrappingKeyRef = newParent.Ref
	rewrapped.Key = key

	return rewrapped, nil
}
