// Package usecase implements the audit trail for key lifecycle operations.
//
// Every completed barrier Initialize/Rotate/Rewrap and pepper
// Generate/Rotate appends one signed record. Signing keys are subkeys the
// barrier derives from its root key versions, so verifying the trail needs
// an unsealed barrier but never exposes root key material, and the trail
// stays verifiable across root rotations.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	auditService "github.com/allisson/barrier/internal/audit/service"
	apperrors "github.com/allisson/barrier/internal/errors"
)

// signingKeyInfo binds the signing key derivation to its purpose. Versioned
// so a future canonicalization change can re-derive under a fresh info
// string without colliding with this one.
var signingKeyInfo = []byte("audit-record-signing-v1")

// verifyBatchSize is how many records VerifyBatch loads per page.
const verifyBatchSize = 500

// auditUseCase implements AuditUseCase.
type auditUseCase struct {
	auditRepo   AuditRecordRepository
	signer      auditService.AuditSigner
	signingKeys SigningKeyProvider
}

// Record appends a signed audit record for a completed operation.
//
// The signing key comes from the active root key, and the root version that
// produced it is stored on the record, so VerifyBatch can re-derive the
// same key after any number of root rotations. Persistence goes through
// database.GetTx: when the caller's context carries an open transaction the
// record commits or rolls back with it.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - operation: The audited operation name
//   - subject: What the operation acted on (hierarchy layer or pepper registry)
//   - metadata: Optional operation details (can be nil)
//
// Returns:
//   - An ErrInvalidInput-rooted error for unknown operations
//   - An ErrSealed-rooted error when the barrier cannot derive a signing key
//   - An error if signing or persistence fails
func (a *auditUseCase) Record(
	ctx context.Context,
	operation auditDomain.Operation,
	subject string,
	metadata map[string]any,
) error {
	if err := operation.Validate(); err != nil {
		return err
	}

	signingKey, rootVersion, err := a.signingKeys.DeriveSigningKey(ctx, signingKeyInfo)
	if err != nil {
		return apperrors.Wrap(err, "failed to derive audit signing key")
	}
	defer zero(signingKey)

	// The timestamp is part of the signed content; truncate it to what the
	// databases actually store so the persisted row signs identically.
	record := &auditDomain.AuditRecord{
		ID:             uuid.Must(uuid.NewV7()),
		Operation:      operation,
		Subject:        subject,
		RootKeyVersion: rootVersion,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	signature, err := a.signer.Sign(signingKey, record)
	if err != nil {
		return apperrors.Wrap(err, "failed to sign audit record")
	}
	record.Signature = signature

	if err := a.auditRepo.Create(ctx, record); err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}

	return nil
}

// List retrieves audit records in chronological order with pagination and
// optional inclusive time bounds.
func (a *auditUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditRecord, error) {
	records, err := a.auditRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}

	return records, nil
}

// VerifyBatch replays every record signature in the inclusive time range.
//
// Each record's signing key is re-derived from the root version the record
// names; derived keys are cached per version for the duration of the
// replay. A signature mismatch, or a root version that does not exist,
// marks the record invalid and the replay continues, so one tampered row
// never hides another. Unsigned records are counted separately.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts (checked between pages)
//   - createdAtFrom: Inclusive lower bound of the range
//   - createdAtTo: Inclusive upper bound of the range
//
// Returns:
//   - A VerificationReport with per-outcome counts and the invalid record IDs
//   - An ErrSealed-rooted error when the barrier cannot derive keys
//   - An error if listing records fails
func (a *auditUseCase) VerifyBatch(
	ctx context.Context,
	createdAtFrom, createdAtTo time.Time,
) (*auditDomain.VerificationReport, error) {
	report := &auditDomain.VerificationReport{}

	keys := make(map[uint][]byte)
	defer func() {
		for _, key := range keys {
			zero(key)
		}
	}()

	for offset := 0; ; offset += verifyBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := a.auditRepo.List(ctx, offset, verifyBatchSize, &createdAtFrom, &createdAtTo)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit records")
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			report.TotalChecked++

			if !record.Signed() {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++

			key, ok := keys[record.RootKeyVersion]
			if !ok {
				key, err = a.signingKeys.DeriveSigningKeyForVersion(ctx, signingKeyInfo, record.RootKeyVersion)
				if err != nil {
					if apperrors.Is(err, apperrors.ErrNotFound) {
						report.InvalidCount++
						report.InvalidRecords = append(report.InvalidRecords, record.ID)
						continue
					}
					return nil, apperrors.Wrap(err, "failed to derive audit verification key")
				}
				keys[record.RootKeyVersion] = key
			}

			if err := a.signer.Verify(key, record); err != nil {
				if apperrors.Is(err, apperrors.ErrIntegrity) {
					report.InvalidCount++
					report.InvalidRecords = append(report.InvalidRecords, record.ID)
					continue
				}
				return nil, err
			}
			report.ValidCount++
		}

		if len(records) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

// zero overwrites a derived signing key before it goes out of scope.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// NewAuditUseCase creates a new audit trail use case instance with the
// provided dependencies.
//
// Parameters:
//   - auditRepo: Repository for audit record persistence (PostgreSQL or MySQL)
//   - signer: Service computing and checking record signatures
//   - signingKeys: Barrier-backed source of purpose-bound signing keys
//
// Returns:
//   - An AuditUseCase ready for recording and verification
func NewAuditUseCase(
	auditRepo AuditRecordRepository,
	signer auditService.AuditSigner,
	signingKeys SigningKeyProvider,
) AuditUseCase {
	return &auditUseCase{
		auditRepo:   auditRepo,
		signer:      signer,
		signingKeys: signingKeys,
	}
}
