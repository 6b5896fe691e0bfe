// Package service provides signing and verification for audit records.
package service

import (
	auditDomain "github.com/allisson/barrier/internal/audit/domain"
)

// AuditSigner signs audit records and verifies their signatures.
//
// The signing key is a purpose-bound subkey the barrier derives from a root
// key version; the signer itself never sees root key material. Signing is
// deterministic over the record's canonical form, so any holder of the same
// subkey reproduces the same signature.
type AuditSigner interface {
	// Sign computes the HMAC-SHA256 signature of the record's canonical form.
	Sign(signingKey []byte, record *auditDomain.AuditRecord) ([]byte, error)

	// Verify recomputes the signature and compares it in constant time.
	// Returns auditDomain.ErrSignatureInvalid when they differ.
	Verify(signingKey []byte, record *auditDomain.AuditRecord) error
}
