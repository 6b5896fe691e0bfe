package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CiphertextEnvelope represents an encrypted payload bound to the exact key
// that produced it.
//
// The envelope embeds the content key ID and version, so decryption always
// resolves the same key regardless of later rotations. It can be serialized
// to and parsed from the format:
//
//	keyID:version:base64(nonce):base64(aad):base64(ciphertext)
//
// The AAD segment is empty when no associated data was supplied; the
// surrounding colons remain so the envelope always has five segments.
//
// Fields:
//   - KeyID: ID of the content key record used for encryption
//   - KeyVersion: Version of that key record
//   - Nonce: The 12-byte nonce used for this encryption
//   - AAD: Associated data authenticated alongside the ciphertext (nil when absent)
//   - Ciphertext: The encrypted data with authentication tag appended
type CiphertextEnvelope struct {
	KeyID      uuid.UUID
	KeyVersion uint
	Nonce      []byte
	AAD        []byte
	Ciphertext []byte
}

// ParseCiphertextEnvelope creates a CiphertextEnvelope from its string form.
//
// The input must have exactly five colon-separated segments:
// "keyID:version:base64(nonce):base64(aad):base64(ciphertext)". All base64
// segments use standard encoding; an empty AAD segment parses to a nil AAD.
//
// Parameters:
//   - content: String in the envelope format produced by String()
//
// Returns:
//   - A CiphertextEnvelope if parsing succeeds
//   - ErrInvalidEnvelopeFormat if the segment count is wrong
//   - ErrInvalidEnvelopeKeyID if the key ID is not a valid UUID
//   - ErrInvalidEnvelopeVersion if the version is not a non-negative integer
//   - ErrInvalidEnvelopeBase64 if a base64 segment cannot be decoded
//
// Example:
//
//	envelope, err := ParseCiphertextEnvelope(stored)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("encrypted under key %s v%d\n", envelope.KeyID, envelope.KeyVersion)
func ParseCiphertextEnvelope(content string) (CiphertextEnvelope, error) {
	parts := strings.Split(content, ":")
	if len(parts) != 5 {
		return CiphertextEnvelope{}, fmt.Errorf(
			"%w: expected format 'keyID:version:nonce:aad:ciphertext', got %d parts",
			ErrInvalidEnvelopeFormat,
			len(parts),
		)
	}

	keyID, err := uuid.Parse(parts[0])
	if err != nil {
		return CiphertextEnvelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelopeKeyID, err)
	}

	version, err := strconv.ParseUint(parts[1], 10, 0)
	if err != nil {
		return CiphertextEnvelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelopeVersion, err)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return CiphertextEnvelope{}, fmt.Errorf("%w: nonce: %v", ErrInvalidEnvelopeBase64, err)
	}

	var aad []byte
	if parts[3] != "" {
		aad, err = base64.StdEncoding.DecodeString(parts[3])
		if err != nil {
			return CiphertextEnvelope{}, fmt.Errorf("%w: aad: %v", ErrInvalidEnvelopeBase64, err)
		}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return CiphertextEnvelope{}, fmt.Errorf("%w: ciphertext: %v", ErrInvalidEnvelopeBase64, err)
	}

	return CiphertextEnvelope{
		KeyID:      keyID,
		KeyVersion: uint(version),
		Nonce:      nonce,
		AAD:        aad,
		Ciphertext: ciphertext,
	}, nil
}

// String serializes the CiphertextEnvelope to its string representation.
//
// The output format is "keyID:version:base64(nonce):base64(aad):base64(ciphertext)".
// String and ParseCiphertextEnvelope round-trip byte-for-byte:
//
//	serialized := envelope.String()
//	parsed, _ := ParseCiphertextEnvelope(serialized)
//	// parsed.String() == serialized
func (ce CiphertextEnvelope) String() string {
	encodedAAD := ""
	if len(ce.AAD) > 0 {
		encodedAAD = base64.StdEncoding.EncodeToString(ce.AAD)
	}

	return fmt.Sprintf(
		"%s:%d:%s:%s:%s",
		ce.KeyID,
		ce.KeyVersion,
		base64.StdEncoding.EncodeToString(ce.Nonce),
		encodedAAD,
		base64.StdEncoding.EncodeToString(ce.Ciphertext),
	)
}
