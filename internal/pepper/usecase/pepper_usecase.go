// Package usecase implements business logic orchestration for pepper
// registries.
//
// A registry owns a versioned sequence of pepper keys. Each key is generated
// inside this process, sealed through the barrier, and persisted only as a
// ciphertext envelope; the clear key exists in memory alone. Hashing always
// peppers with the registry's active version, while validation loads the
// exact version named by the encoded hash, so rotation never invalidates
// stored hashes.
//
// # Application Modes
//
// A pepper is applied by AEAD-sealing the input with the pepper key:
//   - Deterministic: fixed derived nonce, identical input yields identical
//     output. Requires aes-gcm-siv, which survives nonce reuse.
//   - Nondeterministic: fresh random nonce per call; the nonce travels in
//     the encoded hash so validation can recompute.
//
// # Caching
//
// Opened peppers are cached per (registry, version) for the process
// lifetime. A version never changes after creation, so cached entries are
// immutable; only the "active version" pointer moves, and a rotation done
// by another process becomes visible here on restart. Validation is immune
// to that lag because unseen versions are fetched on demand.
package usecase

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
	"time"

	validation "github.com/jellydator/validation"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/sync/singleflight"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	barrierService "github.com/allisson/barrier/internal/barrier/service"
	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	"github.com/allisson/barrier/internal/database"
	apperrors "github.com/allisson/barrier/internal/errors"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
	customValidation "github.com/allisson/barrier/internal/validation"
)

// pepperDeriveSalt is the fixed HKDF salt for pepper-scoped derivations.
// Fixed so every process derives the same values from the same pepper key.
var pepperDeriveSalt = []byte("pepper-derive-salt")

// Versioned info strings bind each derived value to its purpose.
const (
	fixedNonceInfo = "pepper-fixed-nonce-v1"
	fixedSaltInfo  = "pepper-fixed-salt-v1"
)

// fixedSaltSize is the derived fixed salt length, matching the random salt
// length used elsewhere in hashing.
const fixedSaltSize = 16

// versionKey identifies one pepper version in the cache.
type versionKey struct {
	registryID string
	version    uint
}

// pepperUseCase implements PepperUseCase.
//
// Generation is guarded twice: the singleflight group collapses concurrent
// Generate calls for the same registry inside this process, and the
// (registry_id, version) primary key refuses a second version 1 when another
// process wins the race. mu guards the clear-pepper cache only; it is never
// held across repository or barrier calls.
type pepperUseCase struct {
	txManager   database.TxManager
	pepperRepo  PepperRepository
	barrier     barrierUsecase.BarrierUseCase
	aeadManager barrierService.AEADManager

	group singleflight.Group

	mu      sync.RWMutex
	peppers map[versionKey]*pepperDomain.Pepper
	latest  map[string]uint
}

// validateRegistryID checks the registry identifier format at the use case
// boundary.
func validateRegistryID(registryID string) error {
	err := validation.Validate(registryID,
		validation.Required.Error("registry id is required"),
		customValidation.RegistryID,
	)
	return customValidation.WrapValidationError(err)
}

// cachedPepper returns the cached clear pepper for an exact version.
func (p *pepperUseCase) cachedPepper(registryID string, version uint) (*pepperDomain.Pepper, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pepper, ok := p.peppers[versionKey{registryID, version}]
	return pepper, ok
}

// cachedLatest returns the cached active pepper for a registry.
func (p *pepperUseCase) cachedLatest(registryID string) (*pepperDomain.Pepper, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	version, ok := p.latest[registryID]
	if !ok {
		return nil, false
	}
	pepper, ok := p.peppers[versionKey{registryID, version}]
	return pepper, ok
}

// cachePepper stores an opened pepper. When isLatest is set the active
// version pointer advances, but never backwards: a Load racing a Rotate
// must not regress the registry to an older version.
func (p *pepperUseCase) cachePepper(pepper *pepperDomain.Pepper, isLatest bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.peppers[versionKey{pepper.RegistryID, pepper.Version}] = pepper
	if isLatest && pepper.Version > p.latest[pepper.RegistryID] {
		p.latest[pepper.RegistryID] = pepper.Version
	}
}

// openPepper opens a stored pepper's envelope through the barrier and
// populates its clear Key.
//
// The envelope must carry the AAD binding for the row it was loaded from. A
// valid envelope copied from another row decrypts fine, so the binding
// comparison is what detects storage-level swaps.
func (p *pepperUseCase) openPepper(ctx context.Context, pepper *pepperDomain.Pepper) error {
	envelope, err := barrierDomain.ParseCiphertextEnvelope(pepper.Envelope)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse pepper envelope")
	}

	if !bytes.Equal(envelope.AAD, pepperDomain.EnvelopeAAD(pepper.RegistryID, pepper.Version)) {
		return pepperDomain.ErrPepperEnvelopeMismatch
	}

	key, err := p.barrier.Decrypt(ctx, &envelope)
	if err != nil {
		return apperrors.Wrap(err, "failed to open pepper envelope")
	}

	pepper.Key = key
	return nil
}

// createPepperVersion generates a fresh key, seals it through the barrier,
// and persists the new version. The caller picks the version number and
// handles transaction management.
func (p *pepperUseCase) createPepperVersion(
	ctx context.Context,
	registryID string,
	version uint,
	alg barrierDomain.Algorithm,
) (*pepperDomain.Pepper, error) {
	key := make([]byte, pepperDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate pepper key")
	}

	// Seal the key with the row binding as associated data.
	envelope, err := p.barrier.Encrypt(ctx, key, pepperDomain.EnvelopeAAD(registryID, version))
	if err != nil {
		barrierDomain.Zero(key)
		return nil, apperrors.Wrap(err, "failed to seal pepper key")
	}

	pepper := &pepperDomain.Pepper{
		RegistryID: registryID,
		Version:    version,
		Algorithm:  alg,
		Envelope:   envelope.String(),
		Key:        key,
		CreatedAt:  time.Now().UTC(),
	}

	if err := pepper.Validate(); err != nil {
		barrierDomain.Zero(key)
		return nil, err
	}

	if err := p.pepperRepo.Create(ctx, pepper); err != nil {
		barrierDomain.Zero(key)
		return nil, err
	}

	return pepper, nil
}

// loadLatest fetches and opens the registry's active pepper straight from
// the repository, then refreshes the cache.
func (p *pepperUseCase) loadLatest(ctx context.Context, registryID string) (*pepperDomain.Pepper, error) {
	stored, err := p.pepperRepo.GetLatestByRegistryID(ctx, registryID)
	if err != nil {
		return nil, err
	}

	if err := p.openPepper(ctx, stored); err != nil {
		return nil, err
	}

	p.cachePepper(stored, true)
	return stored, nil
}

// Generate creates a registry's first pepper version.
//
// The flow is: random 32-byte key, barrier Encrypt with the row binding as
// AAD, persist version 1. A registry that already has a pepper fails with
// ErrPepperAlreadyExists; rotation is the way to issue a new key.
//
// Concurrency: calls for the same registry are collapsed into one execution
// and every waiter receives the same new pepper. When another process wins
// the insert race instead, this method loads and returns the winner's
// pepper rather than registering a second key.
func (p *pepperUseCase) Generate(
	ctx context.Context,
	registryID string,
	alg barrierDomain.Algorithm,
) (*pepperDomain.Pepper, error) {
	if err := validateRegistryID(registryID); err != nil {
		return nil, err
	}
	if !pepperDomain.SupportedAlgorithm(alg) {
		return nil, pepperDomain.ErrUnsupportedPepperAlgorithm
	}

	result, err, _ := p.group.Do(registryID, func() (any, error) {
		// Check if the registry already has a pepper
		existing, err := p.pepperRepo.GetLatestByRegistryID(ctx, registryID)
		if err != nil && !apperrors.Is(err, pepperDomain.ErrPepperNotFound) {
			return nil, apperrors.Wrap(err, "failed to check for existing pepper")
		}
		if existing != nil {
			return nil, pepperDomain.ErrPepperAlreadyExists
		}

		var pepper *pepperDomain.Pepper
		err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
			pepper, err = p.createPepperVersion(txCtx, registryID, 1, alg)
			return err
		})
		if err != nil {
			// Another process can win between the existence check and the
			// insert; the primary key turns that into a conflict. Hand the
			// caller the winner's pepper instead of a second key.
			if apperrors.Is(err, pepperDomain.ErrPepperAlreadyExists) {
				return p.loadLatest(ctx, registryID)
			}
			return nil, err
		}

		p.cachePepper(pepper, true)
		return pepper, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*pepperDomain.Pepper), nil
}

// Rotate issues the next pepper version with a fresh key, reusing the
// registry's algorithm. Prior versions stay loadable for validation.
func (p *pepperUseCase) Rotate(ctx context.Context, registryID string) (*pepperDomain.Pepper, error) {
	if err := validateRegistryID(registryID); err != nil {
		return nil, err
	}

	var pepper *pepperDomain.Pepper

	err := p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		// Get the current version; rotating an unregistered registry fails
		current, err := p.pepperRepo.GetLatestByRegistryID(txCtx, registryID)
		if err != nil {
			return err
		}

		pepper, err = p.createPepperVersion(txCtx, registryID, current.Version+1, current.Algorithm)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to rotate pepper")
	}

	p.cachePepper(pepper, true)
	return pepper, nil
}

// Load returns the registry's active pepper with its clear key populated.
func (p *pepperUseCase) Load(ctx context.Context, registryID string) (*pepperDomain.Pepper, error) {
	if err := validateRegistryID(registryID); err != nil {
		return nil, err
	}

	if pepper, ok := p.cachedLatest(registryID); ok {
		return pepper, nil
	}

	return p.loadLatest(ctx, registryID)
}

// LoadVersion returns an exact pepper version with its clear key populated.
// The version an encoded hash names is resolved here; no other version is
// ever tried.
func (p *pepperUseCase) LoadVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	if err := validateRegistryID(registryID); err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, pepperDomain.ErrInvalidPepperVersion
	}

	if pepper, ok := p.cachedPepper(registryID, version); ok {
		return pepper, nil
	}

	stored, err := p.pepperRepo.GetByRegistryIDAndVersion(ctx, registryID, version)
	if err != nil {
		return nil, err
	}

	if err := p.openPepper(ctx, stored); err != nil {
		return nil, err
	}

	p.cachePepper(stored, false)
	return stored, nil
}

// seal runs one pepper application: AEAD-seal input with the pepper key and
// an explicit nonce.
func (p *pepperUseCase) seal(pepper *pepperDomain.Pepper, input, nonce, aad []byte) ([]byte, error) {
	cipher, err := p.aeadManager.CreateCipher(pepper.Key, pepper.Algorithm)
	if err != nil {
		return nil, err
	}

	peppered, err := cipher.EncryptWithNonce(input, nonce, aad)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to apply pepper")
	}

	return peppered, nil
}

// ApplyDeterministic seals input with the pepper key and a caller-supplied
// nonce. The fixed nonce is reused across calls by construction, so only
// aes-gcm-siv is accepted; plain GCM does not survive nonce reuse.
func (p *pepperUseCase) ApplyDeterministic(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	if pepper.Algorithm != barrierDomain.AESGCMSIV {
		return nil, pepperDomain.ErrDeterministicRequiresSIV
	}

	return p.seal(pepper, input, nonce, aad)
}

// ApplyNondeterministic seals input with a fresh random nonce and returns
// the nonce alongside the peppered bytes.
func (p *pepperUseCase) ApplyNondeterministic(
	pepper *pepperDomain.Pepper,
	input, aad []byte,
) ([]byte, []byte, error) {
	cipher, err := p.aeadManager.CreateCipher(pepper.Key, pepper.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	peppered, nonce, err := cipher.Encrypt(input, aad)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to apply pepper")
	}

	return peppered, nonce, nil
}

// Reapply recomputes a previous pepper application with its recorded nonce
// and associated data. The recomputed value stays internal to verification;
// it is compared, never returned to callers outside the hashing engine.
func (p *pepperUseCase) Reapply(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	return p.seal(pepper, input, nonce, aad)
}

// derive expands a pepper-scoped fixed value off the pepper key. The output
// depends only on the pepper key and the info string, so every process
// derives the same value for the same pepper version.
func (p *pepperUseCase) derive(pepper *pepperDomain.Pepper, info string, size int) ([]byte, error) {
	if len(pepper.Key) == 0 {
		return nil, fmt.Errorf("%w: pepper key is not loaded", apperrors.ErrInvalidInput)
	}

	reader := hkdf.New(sha256.New, pepper.Key, pepperDeriveSalt, []byte(info))

	out := make([]byte, size)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive pepper-scoped value")
	}

	return out, nil
}

// DeriveFixedNonce derives the pepper-scoped fixed nonce for deterministic
// application. Stable per pepper version, never persisted.
func (p *pepperUseCase) DeriveFixedNonce(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.derive(pepper, fixedNonceInfo, barrierDomain.NonceSize)
}

// DeriveFixedSalt derives the pepper-scoped fixed salt for fixed-salt
// hashing. Stable per pepper version, never persisted.
func (p *pepperUseCase) DeriveFixedSalt(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.derive(pepper, fixedSaltInfo, fixedSaltSize)
}

// NewPepperUseCase creates a new PepperUseCase with injected dependencies.
//
// Parameters:
//   - txManager: Transaction manager for read-then-insert version sequencing
//   - pepperRepo: Repository holding sealed pepper rows
//   - barrier: Barrier use case that seals and opens pepper envelopes
//   - aeadManager: AEAD factory for pepper application
//
// Returns:
//   - A PepperUseCase ready for use
func NewPepperUseCase(
	txManager database.TxManager,
	pepperRepo PepperRepository,
	barrier barrierUsecase.BarrierUseCase,
	aeadManager barrierService.AEADManager,
) PepperUseCase {
	return &pepperUseCase{
		txManager:   txManager,
		pepperRepo:  pepperRepo,
		barrier:     barrier,
		aeadManager: aeadManager,
		peppers:     make(map[versionKey]*pepperDomain.Pepper),
		latest:      make(map[string]uint),
	}
}
