package usecase

import (
	"context"
	"time"

	hashDomain "github.com/allisson/barrier/internal/hash/domain"
	"github.com/allisson/barrier/internal/metrics"
)

// hashUseCaseWithMetrics wraps a HashUseCase and records business metrics
// for both operations.
type hashUseCaseWithMetrics struct {
	next    HashUseCase
	metrics metrics.BusinessMetrics
}

// NewHashUseCaseWithMetrics creates a HashUseCase decorator that records
// operation counts and durations.
func NewHashUseCaseWithMetrics(next HashUseCase, businessMetrics metrics.BusinessMetrics) HashUseCase {
	return &hashUseCaseWithMetrics{
		next:    next,
		metrics: businessMetrics,
	}
}

// Hash delegates to the wrapped use case and records metrics.
func (h *hashUseCaseWithMetrics) Hash(
	ctx context.Context,
	input []byte,
	registryID string,
	entropy hashDomain.EntropyClass,
	salt hashDomain.SaltClass,
) (string, error) {
	start := time.Now()

	encoded, err := h.next.Hash(ctx, input, registryID, entropy, salt)

	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.RecordOperation(ctx, "hash", "hash_generate", status)
	h.metrics.RecordDuration(ctx, "hash", "hash_generate", time.Since(start), status)

	return encoded, err
}

// Validate delegates to the wrapped use case and records metrics. An honest
// mismatch is a successful validation, so only errors count as failures.
func (h *hashUseCaseWithMetrics) Validate(
	ctx context.Context,
	input []byte,
	registryID string,
	encoded string,
) (bool, error) {
	start := time.Now()

	match, err := h.next.Validate(ctx, input, registryID, encoded)

	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.RecordOperation(ctx, "hash", "hash_validate", status)
	h.metrics.RecordDuration(ctx, "hash", "hash_validate", time.Since(start), status)

	return match, err
}
