package usecase

import (
	"context"
	"time"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/metrics"
)

// barrierUseCaseWithMetrics decorates BarrierUseCase with metrics instrumentation.
type barrierUseCaseWithMetrics struct {
	next    BarrierUseCase
	metrics metrics.BusinessMetrics
}

// NewBarrierUseCaseWithMetrics wraps a BarrierUseCase with metrics recording.
func NewBarrierUseCaseWithMetrics(useCase BarrierUseCase, m metrics.BusinessMetrics) BarrierUseCase {
	return &barrierUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Initialize records metrics for barrier initialization operations.
func (b *barrierUseCaseWithMetrics) Initialize(ctx context.Context, material []byte) error {
	start := time.Now()
	err := b.next.Initialize(ctx, material)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_initialize", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_initialize", time.Since(start), status)

	return err
}

// Encrypt records metrics for barrier encryption operations.
func (b *barrierUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	plaintext, aad []byte,
) (*barrierDomain.CiphertextEnvelope, error) {
	start := time.Now()
	envelope, err := b.next.Encrypt(ctx, plaintext, aad)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_encrypt", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_encrypt", time.Since(start), status)

	return envelope, err
}

// Decrypt records metrics for barrier decryption operations.
func (b *barrierUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	envelope *barrierDomain.CiphertextEnvelope,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := b.next.Decrypt(ctx, envelope)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_decrypt", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_decrypt", time.Since(start), status)

	return plaintext, err
}

// Rotate records metrics for barrier key rotation operations.
func (b *barrierUseCaseWithMetrics) Rotate(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	start := time.Now()
	record, err := b.next.Rotate(ctx, layer)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_rotate", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_rotate", time.Since(start), status)

	return record, err
}

// Rewrap records metrics for barrier re-wrap maintenance operations.
func (b *barrierUseCaseWithMetrics) Rewrap(
	ctx context.Context,
	layer barrierDomain.Layer,
	batchSize int,
) (int, error) {
	start := time.Now()
	count, err := b.next.Rewrap(ctx, layer, batchSize)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_rewrap", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_rewrap", time.Since(start), status)

	return count, err
}

// DeriveSigningKey forwards to the wrapped use case without measurement.
// Key derivation is a sub-step of whichever operation requested it, not an
// operation of its own.
func (b *barrierUseCaseWithMetrics) DeriveSigningKey(
	ctx context.Context,
	info []byte,
) ([]byte, uint, error) {
	return b.next.DeriveSigningKey(ctx, info)
}

// DeriveSigningKeyForVersion forwards to the wrapped use case without measurement.
func (b *barrierUseCaseWithMetrics) DeriveSigningKeyForVersion(
	ctx context.Context,
	info []byte,
	version uint,
) ([]byte, error) {
	return b.next.DeriveSigningKeyForVersion(ctx, info, version)
}

// Shutdown records metrics for barrier shutdown operations.
func (b *barrierUseCaseWithMetrics) Shutdown(ctx context.Context) error {
	start := time.Now()
	err := b.next.Shutdown(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	b.metrics.RecordOperation(ctx, "barrier", "barrier_shutdown", status)
	b.metrics.RecordDuration(ctx, "barrier", "barrier_shutdown", time.Since(start), status)

	return err
}
