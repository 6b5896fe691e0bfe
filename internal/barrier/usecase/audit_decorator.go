package usecase

import (
	"context"
	"log/slog"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	auditUsecase "github.com/allisson/barrier/internal/audit/usecase"
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// barrierUseCaseWithAudit decorates BarrierUseCase with audit trail recording.
// Lifecycle operations append a signed trail entry after they succeed; the
// data path (Encrypt, Decrypt) and key derivation are not recorded.
type barrierUseCaseWithAudit struct {
	next   BarrierUseCase
	audit  auditUsecase.AuditUseCase
	logger *slog.Logger
}

// NewBarrierUseCaseWithAudit wraps a BarrierUseCase with audit trail recording.
// Recording is best effort: a trail failure is logged and the operation's
// result stands.
func NewBarrierUseCaseWithAudit(
	useCase BarrierUseCase,
	audit auditUsecase.AuditUseCase,
	logger *slog.Logger,
) BarrierUseCase {
	return &barrierUseCaseWithAudit{
		next:   useCase,
		audit:  audit,
		logger: logger,
	}
}

func (b *barrierUseCaseWithAudit) record(
	ctx context.Context,
	operation auditDomain.Operation,
	subject string,
	metadata map[string]any,
) {
	if err := b.audit.Record(ctx, operation, subject, metadata); err != nil {
		if b.logger != nil {
			b.logger.Error("failed to record audit trail entry",
				slog.String("operation", string(operation)),
				slog.String("subject", subject),
				slog.Any("error", err),
			)
		}
	}
}

// Initialize records a trail entry after successful initialization.
func (b *barrierUseCaseWithAudit) Initialize(ctx context.Context, material []byte) error {
	if err := b.next.Initialize(ctx, material); err != nil {
		return err
	}

	b.record(ctx, auditDomain.OperationBarrierInitialize, "barrier", nil)
	return nil
}

// Encrypt forwards to the wrapped use case without recording.
func (b *barrierUseCaseWithAudit) Encrypt(
	ctx context.Context,
	plaintext, aad []byte,
) (*barrierDomain.CiphertextEnvelope, error) {
	return b.next.Encrypt(ctx, plaintext, aad)
}

// Decrypt forwards to the wrapped use case without recording.
func (b *barrierUseCaseWithAudit) Decrypt(
	ctx context.Context,
	envelope *barrierDomain.CiphertextEnvelope,
) ([]byte, error) {
	return b.next.Decrypt(ctx, envelope)
}

// Rotate records a trail entry naming the rotated layer and the version the
// rotation produced.
func (b *barrierUseCaseWithAudit) Rotate(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	record, err := b.next.Rotate(ctx, layer)
	if err != nil {
		return nil, err
	}

	b.record(ctx, auditDomain.OperationBarrierRotate, string(layer), map[string]any{
		"version": record.Version,
	})
	return record, nil
}

// Rewrap records a trail entry with the number of records re-wrapped. A pass
// that found nothing stale still leaves an entry, so the trail shows the
// maintenance ran.
func (b *barrierUseCaseWithAudit) Rewrap(
	ctx context.Context,
	layer barrierDomain.Layer,
	batchSize int,
) (int, error) {
	count, err := b.next.Rewrap(ctx, layer, batchSize)
	if err != nil {
		return 0, err
	}

	b.record(ctx, auditDomain.OperationBarrierRewrap, string(layer), map[string]any{
		"rewrapped": count,
	})
	return count, nil
}

// DeriveSigningKey forwards to the wrapped use case without recording. The
// trail's own signing runs through this method; recording it would recurse.
func (b *barrierUseCaseWithAudit) DeriveSigningKey(
	ctx context.Context,
	info []byte,
) ([]byte, uint, error) {
	return b.next.DeriveSigningKey(ctx, info)
}

// DeriveSigningKeyForVersion forwards to the wrapped use case without recording.
func (b *barrierUseCaseWithAudit) DeriveSigningKeyForVersion(
	ctx context.Context,
	info []byte,
	version uint,
) ([]byte, error) {
	return b.next.DeriveSigningKeyForVersion(ctx, info, version)
}

// Shutdown forwards to the wrapped use case. A shutdown zeroizes the keyring,
// so there is no signing key left to record with.
func (b *barrierUseCaseWithAudit) Shutdown(ctx context.Context) error {
	return b.next.Shutdown(ctx)
}
