package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// legacyPrefix marks hash strings written by the previous generation of the
// credential hasher. Those rows predate peppering and the '#' grammar.
const legacyPrefix = "$pbkdf2-"

// Legacy format field sizes. The old hasher always wrote a 16-byte salt and
// a SHA-256 sized hash.
const (
	legacySaltSize = 16
	legacyHashSize = 32
)

// LegacyHash is the parsed form of a legacy credential hash:
//
//	$pbkdf2-sha256${iterations}$base64RawStd(salt)$base64RawStd(hash)
//
// Legacy rows are verify-only. New hashes are never written in this format.
type LegacyHash struct {
	Iterations int
	Salt       []byte
	Hash       []byte
}

// IsLegacyEncoding reports whether a stored string uses the legacy format.
func IsLegacyEncoding(content string) bool {
	return strings.HasPrefix(content, legacyPrefix)
}

// ParseLegacyHash creates a LegacyHash from its string form. The input must
// have five '$'-separated fields with an empty leading field, a 16-byte
// salt and a 32-byte hash, both base64 raw standard encoded.
func ParseLegacyHash(content string) (LegacyHash, error) {
	parts := strings.Split(content, "$")
	if len(parts) != 5 || parts[0] != "" {
		return LegacyHash{}, fmt.Errorf(
			"%w: expected 5 '$'-separated legacy fields, got %d",
			ErrMalformedEncoding,
			len(parts),
		)
	}

	if parts[1] != string(PBKDF2SHA256) {
		return LegacyHash{}, fmt.Errorf("%w: legacy algorithm %q", ErrUnsupportedAlgorithm, parts[1])
	}

	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return LegacyHash{}, fmt.Errorf("%w: invalid legacy iteration count %q", ErrMalformedEncoding, parts[2])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return LegacyHash{}, fmt.Errorf("%w: legacy salt: %v", ErrMalformedEncoding, err)
	}
	if len(salt) != legacySaltSize {
		return LegacyHash{}, fmt.Errorf("%w: legacy salt must be %d bytes", ErrMalformedEncoding, legacySaltSize)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return LegacyHash{}, fmt.Errorf("%w: legacy hash: %v", ErrMalformedEncoding, err)
	}
	if len(hash) != legacyHashSize {
		return LegacyHash{}, fmt.Errorf("%w: legacy hash must be %d bytes", ErrMalformedEncoding, legacyHashSize)
	}

	return LegacyHash{Iterations: iterations, Salt: salt, Hash: hash}, nil
}
