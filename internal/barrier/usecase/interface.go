package usecase

import (
	"context"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// KeyRecordRepository defines the interface for key record persistence.
type KeyRecordRepository interface {
	Create(ctx context.Context, record *barrierDomain.KeyRecord) error
	GetByLayerAndVersion(ctx context.Context, layer barrierDomain.Layer, version uint) (*barrierDomain.KeyRecord, error)
	GetLatestByLayer(ctx context.Context, layer barrierDomain.Layer) (*barrierDomain.KeyRecord, error)
	ListByLayer(ctx context.Context, layer barrierDomain.Layer) ([]*barrierDomain.KeyRecord, error)
	ListStaleByLayer(ctx context.Context, layer barrierDomain.Layer, currentRef string, limit int) ([]*barrierDomain.KeyRecord, error)
	UpdateWrapping(ctx context.Context, record *barrierDomain.KeyRecord) error
}

// BarrierUseCase defines the interface for the key hierarchy engine.
type BarrierUseCase interface {
	// Initialize derives the root-unwrap key from unseal material and loads
	// or creates the three-layer hierarchy. Until it succeeds every data
	// operation fails with an error matching errors.ErrSealed.
	Initialize(ctx context.Context, material []byte) error
	Encrypt(ctx context.Context, plaintext, aad []byte) (*barrierDomain.CiphertextEnvelope, error)
	// Decrypt resolves the exact key named by the envelope and authenticates
	// the ciphertext. The returned plaintext is owned by the caller; zero it
	// with barrierDomain.Zero when it is sensitive.
	Decrypt(ctx context.Context, envelope *barrierDomain.CiphertextEnvelope) ([]byte, error)
	Rotate(ctx context.Context, layer barrierDomain.Layer) (*barrierDomain.KeyRecord, error)
	Rewrap(ctx context.Context, layer barrierDomain.Layer, batchSize int) (int, error)
	// DeriveSigningKey derives a purpose-bound 32-byte MAC key from the active
	// root key and returns it with the root version that produced it. The root
	// key itself never leaves the barrier; the derivation is one-way HKDF, so
	// a derived key exposes nothing about the hierarchy.
	DeriveSigningKey(ctx context.Context, info []byte) ([]byte, uint, error)
	// DeriveSigningKeyForVersion derives the same purpose-bound key from a
	// historical root version, so material signed before a root rotation can
	// still be verified. Unknown versions fail with an error matching
	// errors.ErrNotFound.
	DeriveSigningKeyForVersion(ctx context.Context, info []byte, version uint) ([]byte, error)
	Shutdown(ctx context.Context) error
}
