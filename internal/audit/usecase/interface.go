package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
)

// AuditRecordRepository defines the interface for audit record persistence.
type AuditRecordRepository interface {
	Create(ctx context.Context, record *auditDomain.AuditRecord) error
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.AuditRecord, error)
}

// SigningKeyProvider yields purpose-bound MAC keys derived from the
// barrier's root key versions. The barrier use case satisfies it; the trail
// never sees root key material directly.
type SigningKeyProvider interface {
	// DeriveSigningKey derives the signing key from the active root key and
	// returns the root version that produced it.
	DeriveSigningKey(ctx context.Context, info []byte) ([]byte, uint, error)

	// DeriveSigningKeyForVersion reproduces the signing key a historical
	// root version yielded, for verifying records signed before a rotation.
	DeriveSigningKeyForVersion(ctx context.Context, info []byte, version uint) ([]byte, error)
}

// AuditUseCase defines the interface for the key lifecycle audit trail.
type AuditUseCase interface {
	// Record appends a signed audit record for a completed operation.
	//
	// The record is signed with a subkey of the active root key and
	// persisted through database.GetTx, so it joins the caller's open
	// transaction when one exists. Callers decide what a recording failure
	// means; the trail itself never retries.
	Record(
		ctx context.Context,
		operation auditDomain.Operation,
		subject string,
		metadata map[string]any,
	) error

	// List retrieves records in chronological order with pagination and
	// optional inclusive time bounds (nil means unbounded).
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.AuditRecord, error)

	// VerifyBatch replays every record signature in the inclusive time range
	// and reports how many verified, failed, or were never signed. A record
	// naming a root version that does not exist counts as invalid: the
	// version column is part of the signed content.
	VerifyBatch(
		ctx context.Context,
		createdAtFrom, createdAtTo time.Time,
	) (*auditDomain.VerificationReport, error)
}
