// Package domain defines the audit trail entities for key lifecycle
// operations.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation names an audited action in the key lifecycle.
type Operation string

// Audited operations. The names match the metric operation labels so a
// trail entry and its counter line up.
const (
	OperationBarrierInitialize Operation = "barrier_initialize"
	OperationBarrierRotate     Operation = "barrier_rotate"
	OperationBarrierRewrap     Operation = "barrier_rewrap"
	OperationPepperGenerate    Operation = "pepper_generate"
	OperationPepperRotate      Operation = "pepper_rotate"
)

// Validate checks that the operation is one of the audited actions.
func (o Operation) Validate() error {
	switch o {
	case OperationBarrierInitialize,
		OperationBarrierRotate,
		OperationBarrierRewrap,
		OperationPepperGenerate,
		OperationPepperRotate:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, string(o))
	}
}

// SignatureSize is the length of an HMAC-SHA256 record signature in bytes.
const SignatureSize = 32

// AuditRecord is one append-only entry in the key lifecycle trail.
//
// Every successful barrier Initialize/Rotate/Rewrap and pepper
// Generate/Rotate appends a record. Subject names what the operation acted
// on (a hierarchy layer or a pepper registry), and Metadata carries
// operation details such as the version a rotation produced.
//
// Signature is an HMAC-SHA256 over the record's canonical form, keyed by a
// subkey of the root key version named in RootKeyVersion. Verification
// re-derives that subkey, so the trail stays checkable after any number of
// root rotations, and an altered row (or an altered RootKeyVersion) fails
// its signature.
type AuditRecord struct {
	ID             uuid.UUID
	Operation      Operation
	Subject        string
	RootKeyVersion uint
	Metadata       map[string]any
	Signature      []byte
	CreatedAt      time.Time
}

// Signed reports whether the record carries a complete signature. Records
// written before signing was deployed have none; verification counts them
// separately instead of flagging them as tampered.
func (a *AuditRecord) Signed() bool {
	return len(a.Signature) == SignatureSize
}

// VerificationReport summarizes a signature replay over a time range.
//
// Unsigned records predate signature deployment and are counted apart from
// invalid ones: only an invalid count signals tampering.
type VerificationReport struct {
	TotalChecked   int64
	SignedCount    int64
	UnsignedCount  int64
	ValidCount     int64
	InvalidCount   int64
	InvalidRecords []uuid.UUID
}
