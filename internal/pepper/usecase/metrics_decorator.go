package usecase

import (
	"context"
	"time"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/metrics"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
)

// pepperUseCaseWithMetrics decorates PepperUseCase with metrics instrumentation.
//
// Only the lifecycle operations are measured; the pure in-memory application
// and derivation helpers are forwarded untouched.
type pepperUseCaseWithMetrics struct {
	next    PepperUseCase
	metrics metrics.BusinessMetrics
}

// NewPepperUseCaseWithMetrics wraps a PepperUseCase with metrics recording.
func NewPepperUseCaseWithMetrics(useCase PepperUseCase, m metrics.BusinessMetrics) PepperUseCase {
	return &pepperUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Generate records metrics for pepper generation operations.
func (p *pepperUseCaseWithMetrics) Generate(
	ctx context.Context,
	registryID string,
	alg barrierDomain.Algorithm,
) (*pepperDomain.Pepper, error) {
	start := time.Now()
	pepper, err := p.next.Generate(ctx, registryID, alg)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pepper", "pepper_generate", status)
	p.metrics.RecordDuration(ctx, "pepper", "pepper_generate", time.Since(start), status)

	return pepper, err
}

// Rotate records metrics for pepper rotation operations.
func (p *pepperUseCaseWithMetrics) Rotate(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	start := time.Now()
	pepper, err := p.next.Rotate(ctx, registryID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pepper", "pepper_rotate", status)
	p.metrics.RecordDuration(ctx, "pepper", "pepper_rotate", time.Since(start), status)

	return pepper, err
}

// Load records metrics for active pepper loads.
func (p *pepperUseCaseWithMetrics) Load(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	start := time.Now()
	pepper, err := p.next.Load(ctx, registryID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pepper", "pepper_load", status)
	p.metrics.RecordDuration(ctx, "pepper", "pepper_load", time.Since(start), status)

	return pepper, err
}

// LoadVersion records metrics for exact-version pepper loads.
func (p *pepperUseCaseWithMetrics) LoadVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	start := time.Now()
	pepper, err := p.next.LoadVersion(ctx, registryID, version)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "pepper", "pepper_load_version", status)
	p.metrics.RecordDuration(ctx, "pepper", "pepper_load_version", time.Since(start), status)

	return pepper, err
}

// ApplyDeterministic forwards without measurement.
func (p *pepperUseCaseWithMetrics) ApplyDeterministic(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	return p.next.ApplyDeterministic(pepper, input, nonce, aad)
}

// ApplyNondeterministic forwards without measurement.
func (p *pepperUseCaseWithMetrics) ApplyNondeterministic(
	pepper *pepperDomain.Pepper,
	input, aad []byte,
) ([]byte, []byte, error) {
	return p.next.ApplyNondeterministic(pepper, input, aad)
}

// Reapply forwards without measurement.
func (p *pepperUseCaseWithMetrics) Reapply(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	return p.next.Reapply(pepper, input, nonce, aad)
}

// DeriveFixedNonce forwards without measurement.
func (p *pepperUseCaseWithMetrics) DeriveFixedNonce(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.next.DeriveFixedNonce(pepper)
}

// DeriveFixedSalt forwards without measurement.
func (p *pepperUseCaseWithMetrics) DeriveFixedSalt(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.next.DeriveFixedSalt(pepper)
}
