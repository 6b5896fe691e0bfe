// Package usecase implements business logic orchestration for the barrier
// key hierarchy.
//
// This package provides the use case layer (application layer) for the
// three-layer envelope hierarchy following Clean Architecture principles.
// Use cases coordinate between services (cryptographic operations) and
// repositories (data persistence), implementing business rules and
// transaction management.
//
// # Key Hierarchy
//
// The barrier maintains a strict wrapping chain:
//
//	unseal material → root-unwrap key (HKDF, never stored)
//	                    ↓ wraps
//	                  root keys → intermediate keys → content keys
//	                                                    ↓
//	                                             Encrypt/Decrypt caller data
//
// Only content keys touch caller plaintext, so rotating an upper layer never
// requires re-encrypting stored ciphertexts. Historical versions of every
// layer stay in the keyring for decryption; only the active (highest)
// version encrypts.
//
// # Business Rules
//
// The use cases enforce:
//   - Sealed-by-default: every data operation fails until Initialize succeeds
//   - First boot creates root v1 → intermediate v1 → content v1 atomically
//   - Rotation is serialized per layer; different layers rotate independently
//   - Children are not re-wrapped on rotation (lazy); the Rewrap maintenance
//     pass migrates them batch by batch
//   - Shutdown zeroes all clear key material; a closed barrier stays closed
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	barrierService "github.com/allisson/barrier/internal/barrier/service"
	"github.com/allisson/barrier/internal/database"
	apperrors "github.com/allisson/barrier/internal/errors"
	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
)

// barrierUseCase implements BarrierUseCase.
//
// Locking: mu guards the lifecycle flags, the root-unwrap key, and keeps the
// keyring alive for the duration of an operation. Data operations hold the
// read lock, so Encrypt/Decrypt never serialize each other; Initialize and
// Shutdown take the write lock and therefore wait for in-flight operations.
// rotateLocks serialize Rotate/Rewrap per layer without coupling layers to
// each other. Layer locks are only ever acquired while holding mu's read
// lock, never the other way around.
type barrierUseCase struct {
	txManager   database.TxManager
	keyRepo     KeyRecordRepository
	keyManager  barrierService.KeyManager
	aeadManager barrierService.AEADManager
	rootDeriver barrierService.RootKeyDeriver
	algorithm   barrierDomain.Algorithm

	mu            sync.RWMutex
	initialized   bool
	closed        bool
	keyring       *barrierDomain.Keyring
	rootUnwrapKey []byte

	rotateLocks map[barrierDomain.Layer]*sync.Mutex
}

// stateLocked reports whether data operations may proceed.
// Callers must hold mu (read or write).
func (b *barrierUseCase) stateLocked() error {
	if b.closed {
		return barrierDomain.ErrBarrierClosed
	}
	if !b.initialized {
		return fmt.Errorf("%w: barrier is not initialized", barrierDomain.ErrSealed)
	}
	return nil
}

// unsealWrappingKeyLocked returns the wrapping key for root records.
// Callers must hold mu (read or write).
func (b *barrierUseCase) unsealWrappingKeyLocked() barrierService.WrappingKey {
	return barrierService.WrappingKey{
		Key:       b.rootUnwrapKey,
		Algorithm: barrierDomain.AESGCM,
		Ref:       barrierDomain.WrappingKeyRefUnseal,
	}
}

// wrappingKeyForRecord resolves the wrapping key a stored record was wrapped
// under: the unseal-derived key for root records, otherwise the parent record
// already present in the keyring. Callers must hold mu (read or write).
func (b *barrierUseCase) wrappingKeyForRecord(
	keyring *barrierDomain.Keyring,
	record *barrierDomain.KeyRecord,
) (barrierService.WrappingKey, error) {
	if record.WrappingKeyRef == barrierDomain.WrappingKeyRefUnseal {
		return b.unsealWrappingKeyLocked(), nil
	}

	parentID, err := uuid.Parse(record.WrappingKeyRef)
	if err != nil {
		return barrierService.WrappingKey{}, apperrors.Wrap(err, "invalid wrapping key reference")
	}

	parent, ok := keyring.Get(parentID)
	if !ok {
		return barrierService.WrappingKey{}, fmt.Errorf(
			"%w: wrapping key %s is not in the keyring",
			barrierDomain.ErrUnwrapFailed,
			record.WrappingKeyRef,
		)
	}

	return barrierService.WrappingKey{
		Key:       parent.Key,
		Algorithm: parent.Algorithm,
		Ref:       record.WrappingKeyRef,
	}, nil
}

// activeWrappingKeyForLayer returns the wrapping key new records of a layer
// are created under: the unseal-derived key for the root layer, otherwise
// the parent layer's active key. Callers must hold mu (read or write).
func (b *barrierUseCase) activeWrappingKeyForLayer(
	layer barrierDomain.Layer,
) (barrierService.WrappingKey, error) {
	parentLayer, ok := layer.Parent()
	if !ok {
		return b.unsealWrappingKeyLocked(), nil
	}

	parent, ok := b.keyring.Active(parentLayer)
	if !ok {
		return barrierService.WrappingKey{}, fmt.Errorf(
			"%w: layer %s has no active key",
			barrierDomain.ErrSealed,
			parentLayer,
		)
	}

	return barrierService.WrappingKey{
		Key:       parent.Key,
		Algorithm: parent.Algorithm,
		Ref:       parent.ID.String(),
	}, nil
}

// ensureLayer loads every persisted version of a layer into the keyring,
// creating version 1 when the layer is empty. Returns the layer's active
// record so the caller can chain it as the next layer's wrapping parent.
func (b *barrierUseCase) ensureLayer(
	ctx context.Context,
	keyring *barrierDomain.Keyring,
	layer barrierDomain.Layer,
	parent barrierService.WrappingKey,
) (*barrierDomain.KeyRecord, error) {
	records, err := b.keyRepo.ListByLayer(ctx, layer)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		record, err := b.keyManager.CreateKeyRecord(parent, layer, 1, b.algorithm)
		if err != nil {
			return nil, err
		}
		if err := b.keyRepo.Create(ctx, &record); err != nil {
			barrierDomain.Zero(record.Key)
			return nil, err
		}

		keyring.Add(&record)
		return &record, nil
	}

	for _, record := range records {
		wrapping, err := b.wrappingKeyForRecord(keyring, record)
		if err != nil {
			return nil, err
		}

		key, err := b.keyManager.UnwrapKeyRecord(record, wrapping)
		if err != nil {
			return nil, err
		}

		record.Key = key
		keyring.Add(record)
	}

	active, ok := keyring.Active(layer)
	if !ok {
		return nil, fmt.Errorf("%w: layer %s has no active key", barrierDomain.ErrSealed, layer)
	}

	return active, nil
}

// Initialize derives the root-unwrap key and opens the hierarchy.
//
// The derivation is pure HKDF of the unseal material, so any instance holding
// identical material independently derives an identical root-unwrap key; no
// cross-instance coordination is needed. Each layer is then loaded from
// storage and unwrapped into the keyring, or created at version 1 when
// absent. First boot therefore creates root v1 → intermediate v1 → content
// v1, all inside one transaction: a crash or cancellation mid-initialization
// never persists a partial hierarchy.
//
// Wrong or short material surfaces as an error matching errors.ErrSealed and
// the barrier stays sealed; Initialize may be retried with better material.
// Calling Initialize on an already-initialized barrier is a no-op.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction scope
//   - material: The unseal material obtained from an unseal provider
//
// Returns:
//   - nil when the hierarchy is open and the keyring populated
//   - An ErrSealed-rooted error for wrong/short material or unwrap failures
//   - ErrBarrierClosed if the barrier has been shut down
func (b *barrierUseCase) Initialize(ctx context.Context, material []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return barrierDomain.ErrBarrierClosed
	}
	if b.initialized {
		return nil
	}

	if len(material) < unsealDomain.MinMaterialLen {
		return fmt.Errorf(
			"%w: unseal material must be at least %d bytes, got %d",
			barrierDomain.ErrSealed,
			unsealDomain.MinMaterialLen,
			len(material),
		)
	}

	rootUnwrapKey, err := b.rootDeriver.DeriveRootUnwrapKey(material)
	if err != nil {
		return err
	}
	b.rootUnwrapKey = rootUnwrapKey

	keyring := barrierDomain.NewKeyring()

	err = b.txManager.WithTx(ctx, func(txCtx context.Context) error {
		parent := b.unsealWrappingKeyLocked()

		for _, layer := range []barrierDomain.Layer{
			barrierDomain.LayerRoot,
			barrierDomain.LayerIntermediate,
			barrierDomain.LayerContent,
		} {
			active, err := b.ensureLayer(txCtx, keyring, layer, parent)
			if err != nil {
				return err
			}

			parent = barrierService.WrappingKey{
				Key:       active.Key,
				Algorithm: active.Algorithm,
				Ref:       active.ID.String(),
			}
		}

		return nil
	})
	if err != nil {
		keyring.Close()
		barrierDomain.Zero(b.rootUnwrapKey)
		b.rootUnwrapKey = nil
		return err
	}

	b.keyring = keyring
	b.initialized = true

	return nil
}

// Encrypt encrypts plaintext under the active content key.
//
// A fresh random 96-bit nonce is generated per call and never reused for the
// same key. The returned envelope embeds the content key's ID and version so
// decryption resolves the exact same key after any number of rotations. The
// optional AAD is authenticated but not encrypted and must be presented
// again, byte for byte, to decrypt.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - plaintext: The data to encrypt (can be empty)
//   - aad: Additional data to authenticate but not encrypt (can be nil)
//
// Returns:
//   - A CiphertextEnvelope bound to the active content key
//   - An ErrSealed-rooted error before initialization, ErrBarrierClosed after shutdown
//
// Example:
//
//	envelope, err := barrierUC.Encrypt(ctx, []byte("hello-world"), []byte("tenant-123"))
//	if err != nil {
//	    return err
//	}
//	// Store envelope.String() which embeds key ID, version, nonce, and AAD
func (b *barrierUseCase) Encrypt(
	ctx context.Context,
	plaintext, aad []byte,
) (*barrierDomain.CiphertextEnvelope, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return nil, err
	}

	active, ok := b.keyring.Active(barrierDomain.LayerContent)
	if !ok {
		return nil, fmt.Errorf("%w: no active content key", barrierDomain.ErrSealed)
	}

	cipher, err := b.aeadManager.CreateCipher(active.Key, active.Algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt plaintext")
	}

	return &barrierDomain.CiphertextEnvelope{
		KeyID:      active.ID,
		KeyVersion: active.Version,
		Nonce:      nonce,
		AAD:        aad,
		Ciphertext: ciphertext,
	}, nil
}

// Decrypt decrypts a ciphertext envelope with the exact key it names.
//
// The (key ID, key version) pair embedded in the envelope is looked up in
// the keyring; no other key is ever tried. An unknown pair fails with
// ErrKeyNotFound. A failed authentication tag (altered ciphertext, nonce, or
// AAD) fails with ErrAuthenticationFailed and no plaintext is returned;
// neither failure warrants a retry.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - envelope: The parsed ciphertext envelope
//
// Returns:
//   - The decrypted plaintext
//   - ErrKeyNotFound when the envelope names an unknown key or version
//   - ErrAuthenticationFailed when the AEAD tag does not verify
func (b *barrierUseCase) Decrypt(
	ctx context.Context,
	envelope *barrierDomain.CiphertextEnvelope,
) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return nil, err
	}

	record, ok := b.keyring.Get(envelope.KeyID)
	if !ok || record.Version != envelope.KeyVersion || record.Layer != barrierDomain.LayerContent {
		return nil, barrierDomain.ErrKeyNotFound
	}

	cipher, err := b.aeadManager.CreateCipher(record.Key, record.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Decrypt(envelope.Ciphertext, envelope.Nonce, envelope.AAD)
	if err != nil {
		return nil, barrierDomain.ErrAuthenticationFailed
	}

	return plaintext, nil
}

// Rotate creates the next key version for a layer.
//
// The new version is current+1, wrapped under the current parent active key
// (the unseal-derived key for the root layer), persisted, and promoted to
// active in the keyring. Existing children are not re-wrapped: they keep
// decrypting under the parent version that wrapped them until a Rewrap pass
// migrates them. Rotations of the same layer are serialized by a per-layer
// mutex; different layers rotate independently.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - layer: The hierarchy layer to rotate
//
// Returns:
//   - The new key record (clear Key populated, already active)
//   - An ErrInvalidInput-rooted error for unknown layers
//
// Example:
//
//	record, err := barrierUC.Rotate(ctx, barrierDomain.LayerContent)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("content layer now at version %d\n", record.Version)
func (b *barrierUseCase) Rotate(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return nil, err
	}

	lock, ok := b.rotateLocks[layer]
	if !ok {
		return nil, fmt.Errorf("%w: unknown layer %q", apperrors.ErrInvalidInput, layer)
	}
	lock.Lock()
	defer lock.Unlock()

	current, ok := b.keyring.Active(layer)
	if !ok {
		return nil, fmt.Errorf("%w: layer %s has no active key", barrierDomain.ErrSealed, layer)
	}

	parent, err := b.activeWrappingKeyForLayer(layer)
	if err != nil {
		return nil, err
	}

	record, err := b.keyManager.CreateKeyRecord(parent, layer, current.Version+1, b.algorithm)
	if err != nil {
		return nil, err
	}

	if err := b.keyRepo.Create(ctx, &record); err != nil {
		barrierDomain.Zero(record.Key)
		return nil, err
	}

	b.keyring.Add(&record)

	return &record, nil
}

// Rewrap re-wraps up to batchSize stale records of a layer under the current
// parent active key.
//
// This is the maintenance half of lazy rotation: after a parent layer
// rotates, its children remain wrapped under historical parent versions
// until this pass moves them. Records are updated one at a time, so an
// interrupted pass keeps its progress and the next invocation continues
// where it stopped. The root layer is always wrapped by the unseal-derived
// key and therefore never has stale records.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts (checked between records)
//   - layer: The hierarchy layer to migrate
//   - batchSize: Maximum number of records to re-wrap in this pass
//
// Returns:
//   - The number of records re-wrapped
//   - An ErrInvalidInput-rooted error for unknown layers or non-positive batch sizes
func (b *barrierUseCase) Rewrap(
	ctx context.Context,
	layer barrierDomain.Layer,
	batchSize int,
) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return 0, err
	}

	lock, ok := b.rotateLocks[layer]
	if !ok {
		return 0, fmt.Errorf("%w: unknown layer %q", apperrors.ErrInvalidInput, layer)
	}
	if batchSize <= 0 {
		return 0, fmt.Errorf("%w: batch size must be positive", apperrors.ErrInvalidInput)
	}
	lock.Lock()
	defer lock.Unlock()

	parent, err := b.activeWrappingKeyForLayer(layer)
	if err != nil {
		return 0, err
	}

	records, err := b.keyRepo.ListStaleByLayer(ctx, layer, parent.Ref, batchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		oldParent, err := b.wrappingKeyForRecord(b.keyring, record)
		if err != nil {
			return count, err
		}

		rewrapped, err := b.keyManager.RewrapKeyRecord(record, oldParent, parent)
		if err != nil {
			return count, err
		}

		if err := b.keyRepo.UpdateWrapping(ctx, &rewrapped); err != nil {
			barrierDomain.Zero(rewrapped.Key)
			return count, err
		}

		b.keyring.Add(&rewrapped)
		count++
	}

	return count, nil
}

// DeriveSigningKey derives a purpose-bound 32-byte MAC key from the active
// root key.
//
// The derivation is one-way HKDF over the caller's info string, so the
// returned key reveals nothing about the root key or the wrapping chain and
// is safe to hand outside the barrier. The root version that produced the
// key is returned alongside it; record that version next to anything the key
// signs, so DeriveSigningKeyForVersion can reproduce the key after the root
// layer rotates. The caller owns the returned key and should zero it with
// barrierDomain.Zero when finished.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - info: Purpose string binding the derivation (include a format version)
//
// Returns:
//   - The derived 32-byte key and the active root version
//   - An ErrSealed-rooted error before initialization, ErrBarrierClosed after shutdown
func (b *barrierUseCase) DeriveSigningKey(ctx context.Context, info []byte) ([]byte, uint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return nil, 0, err
	}

	active, ok := b.keyring.Active(barrierDomain.LayerRoot)
	if !ok {
		return nil, 0, fmt.Errorf("%w: no active root key", barrierDomain.ErrSealed)
	}

	key, err := b.rootDeriver.DeriveSubkey(active.Key, info)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "failed to derive signing key")
	}

	return key, active.Version, nil
}

// DeriveSigningKeyForVersion derives a purpose-bound MAC key from a
// historical root version.
//
// Root versions stay in the keyring after rotation, so a key derived while
// an older root was active can always be reproduced to verify what it
// signed. An unknown version fails with ErrKeyNotFound.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - info: Purpose string binding the derivation (include a format version)
//   - version: The root version recorded when the key was first derived
//
// Returns:
//   - The derived 32-byte key
//   - ErrKeyNotFound when the root version does not exist
func (b *barrierUseCase) DeriveSigningKeyForVersion(
	ctx context.Context,
	info []byte,
	version uint,
) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.stateLocked(); err != nil {
		return nil, err
	}

	record, ok := b.keyring.GetByVersion(barrierDomain.LayerRoot, version)
	if !ok {
		return nil, fmt.Errorf("%w: root version %d", barrierDomain.ErrKeyNotFound, version)
	}

	key, err := b.rootDeriver.DeriveSubkey(record.Key, info)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}

	return key, nil
}

// Shutdown closes the barrier and zeroes all clear key material.
//
// After shutdown every operation, including Shutdown itself, returns
// ErrBarrierClosed. A closed barrier cannot be reopened; construct a new one
// and initialize it again. Zeroing twice is harmless, so racing shutdowns
// are safe.
//
// Parameters:
//   - ctx: Context (unused; shutdown is purely in-memory)
//
// Returns:
//   - nil on the call that performed the shutdown
//   - ErrBarrierClosed on every later call
func (b *barrierUseCase) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return barrierDomain.ErrBarrierClosed
	}

	b.closed = true
	b.initialized = false
	b.keyring.Close()
	barrierDomain.Zero(b.rootUnwrapKey)
	b.rootUnwrapKey = nil

	return nil
}

// NewBarrierUseCase creates a new barrier use case instance with the provided dependencies.
//
// The barrier starts sealed: every data operation fails until Initialize is
// called with valid unseal material.
//
// Parameters:
//   - txManager: Transaction manager for atomic database operations
//   - keyRepo: Repository for key record persistence (PostgreSQL or MySQL)
//   - keyManager: Service for key wrap/unwrap operations
//   - aeadManager: Service for AEAD cipher creation
//   - rootDeriver: Service deriving the root-unwrap key from unseal material
//   - algorithm: AEAD algorithm for newly created key records
//
// Returns:
//   - A sealed BarrierUseCase ready for Initialize
//
// Example:
//
//	db, _ := sql.Open("postgres", dsn)
//	txManager := database.NewTxManager(db)
//	keyRepo := repository.NewPostgreSQLKeyRecordRepository(db)
//	aeadManager := service.NewAEADManager()
//	keyManager := service.NewKeyManager(aeadManager)
//	rootDeriver, _ := service.NewRootKeyDeriver("sha256")
//
//	barrierUC := NewBarrierUseCase(
//	    txManager, keyRepo, keyManager, aeadManager, rootDeriver, barrierDomain.AESGCM,
//	)
func NewBarrierUseCase(
	txManager database.TxManager,
	keyRepo KeyRecordRepository,
	keyManager barrierService.KeyManager,
	aeadManager barrierService.AEADManager,
	rootDeriver barrierService.RootKeyDeriver,
	algorithm barrierDomain.Algorithm,
) BarrierUseCase {
	return &barrierUseCase{
		txManager:   txManager,
		keyRepo:     keyRepo,
		keyManager:  keyManager,
		aeadManager: aeadManager,
		rootDeriver: rootDeriver,
		algorithm:   algorithm,
		keyring:     barrierDomain.NewKeyring(),
		rotateLocks: map[barrierDomain.Layer]*sync.Mutex{
			barrierDomain.LayerRoot:         {},
			barrierDomain.LayerIntermediate: {},
			barrierDomain.LayerContent:      {},
		},
	}
}
