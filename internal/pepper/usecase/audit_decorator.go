package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	auditUsecase "github.com/allisson/barrier/internal/audit/usecase"
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
)

// pepperUseCaseWithAudit decorates PepperUseCase with audit trail recording.
// Generate and Rotate append a signed trail entry on success; loads and the
// in-memory application helpers are not recorded.
type pepperUseCaseWithAudit struct {
	next   PepperUseCase
	audit  auditUsecase.AuditUseCase
	logger *slog.Logger
}

// NewPepperUseCaseWithAudit wraps a PepperUseCase with audit trail recording.
// Recording is best effort: a trail failure is logged and the operation's
// result stands.
func NewPepperUseCaseWithAudit(
	useCase PepperUseCase,
	audit auditUsecase.AuditUseCase,
	logger *slog.Logger,
) PepperUseCase {
	return &pepperUseCaseWithAudit{
		next:   useCase,
		audit:  audit,
		logger: logger,
	}
}

func (p *pepperUseCaseWithAudit) record(
	ctx context.Context,
	operation auditDomain.Operation,
	registryID string,
	version uint,
) {
	metadata := map[string]any{"version": version}
	if err := p.audit.Record(ctx, operation, registryID, metadata); err != nil {
		if p.logger != nil {
			p.logger.Error("failed to record audit trail entry",
				slog.String("operation", string(operation)),
				slog.String("registry_id", registryID),
				slog.Any("error", err),
			)
		}
	}
}

// Generate records a trail entry naming the registry and the version created.
func (p *pepperUseCaseWithAudit) Generate(
	ctx context.Context,
	registryID string,
	alg barrierDomain.Algorithm,
) (*pepperDomain.Pepper, error) {
	pepper, err := p.next.Generate(ctx, registryID, alg)
	if err != nil {
		return nil, err
	}

	p.record(ctx, auditDomain.OperationPepperGenerate, registryID, pepper.Version)
	return pepper, nil
}

// Rotate records a trail entry naming the registry and the version issued.
func (p *pepperUseCaseWithAudit) Rotate(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	pepper, err := p.next.Rotate(ctx, registryID)
	if err != nil {
		return nil, err
	}

	p.record(ctx, auditDomain.OperationPepperRotate, registryID, pepper.Version)
	return pepper, nil
}

// Load forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) Load(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	return p.next.Load(ctx, registryID)
}

// LoadVersion forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) LoadVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	return p.next.LoadVersion(ctx, registryID, version)
}

// ApplyDeterministic forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) ApplyDeterministic(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	return p.next.ApplyDeterministic(pepper, input, nonce, aad)
}

// ApplyNondeterministic forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) ApplyNondeterministic(
	pepper *pepperDomain.Pepper,
	input, aad []byte,
) ([]byte, []byte, error) {
	return p.next.ApplyNondeterministic(pepper, input, aad)
}

// Reapply forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) Reapply(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	return p.next.Reapply(pepper, input, nonce, aad)
}

// DeriveFixedNonce forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) DeriveFixedNonce(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.next.DeriveFixedNonce(pepper)
}

// DeriveFixedSalt forwards to the wrapped use case without recording.
func (p *pepperUseCaseWithAudit) DeriveFixedSalt(pepper *pepperDomain.Pepper) ([]byte, error) {
	return p.next.DeriveFixedSalt(pepper)
}
