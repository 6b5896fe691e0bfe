package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
)

type auditSigner struct{}

// NewAuditSigner creates an HMAC-SHA256 audit record signer.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// canonicalizeRecord converts a record to its canonical byte form for signing.
// Format: id || operation || subject || root_key_version || metadata || created_at.
// Variable-length fields are length-prefixed so no two records share a
// canonical form by boundary ambiguity.
func (a *auditSigner) canonicalizeRecord(record *auditDomain.AuditRecord) ([]byte, error) {
	buf := make([]byte, 0, 256)

	buf = append(buf, record.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(string(record.Operation)))
	buf = appendLengthPrefixed(buf, []byte(record.Subject))

	version := make([]byte, 8)
	binary.BigEndian.PutUint64(version, uint64(record.RootKeyVersion))
	buf = append(buf, version...)

	if record.Metadata != nil {
		metadataJSON, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit record metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataJSON)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	// Microsecond precision: both databases store timestamps at
	// microseconds, so a finer canonical form would not survive the
	// round trip.
	createdAt := make([]byte, 8)
	binary.BigEndian.PutUint64(createdAt, uint64(record.CreatedAt.UnixMicro()))
	buf = append(buf, createdAt...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign computes the HMAC-SHA256 signature of the record's canonical form.
// The Signature field itself is not part of the canonical form and is
// ignored.
func (a *auditSigner) Sign(signingKey []byte, record *auditDomain.AuditRecord) ([]byte, error) {
	canonical, err := a.canonicalizeRecord(record)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize audit record: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)

	return mac.Sum(nil), nil
}

// Verify recomputes the record's signature and compares it in constant time.
// Returns auditDomain.ErrSignatureInvalid when any signed field, or the
// stored signature, has been altered.
func (a *auditSigner) Verify(signingKey []byte, record *auditDomain.AuditRecord) error {
	expected, err := a.Sign(signingKey, record)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(record.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}
