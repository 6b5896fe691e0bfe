package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// Hash format markers. The marker names the segment layout and its version,
// so the grammar can evolve without breaking stored rows.
const (
	formatMarkerLow  = "l1"
	formatMarkerHigh = "h1"
)

// encodedNonceLength is the base64 length of a pepper nonce. The nonce is
// always NonceSize bytes, so its encoded form has a fixed width; the pepper
// segment parser relies on this to split version digits from nonce text.
var encodedNonceLength = base64.StdEncoding.EncodedLen(barrierDomain.NonceSize)

// EncodedHash is the parsed form of a persisted hash string.
//
// The string fully self-describes how the hash was produced: pepper
// application mode and version, hash format, algorithm, iteration count
// (low entropy), salt, and HKDF info (high entropy). Validation therefore
// never depends on current configuration, only on the stored string and
// the referenced pepper version.
//
// Low-entropy grammar:
//
//	{d|n}{pepperVersion}[base64(nonce):base64(aad)]#l1:{algorithm}:{iterations}:base64(salt):base64(hash)
//
// High-entropy grammar:
//
//	{d|n}{pepperVersion}[base64(nonce):base64(aad)]#h1:{algorithm}:base64(salt):base64(info):base64(hash)
//
// The pepper segment is the bare marker "d{N}" for deterministic
// application; nondeterministic application records the nonce and AAD as
// "n{N}{base64(nonce)}:{base64(aad)}". The AAD value may be empty, the
// colon stays. All base64 is standard encoding.
//
// Fields:
//   - Deterministic: True for the "d" pepper marker, false for "n"
//   - PepperVersion: Registry pepper version the input was peppered with
//   - Nonce: Recorded pepper nonce (nondeterministic only)
//   - AAD: Recorded pepper associated data (nondeterministic only, nil when absent)
//   - Class: Entropy class implied by the format marker (l1 or h1)
//   - Algorithm: Key derivation algorithm
//   - Iterations: PBKDF2 iteration count (low entropy only)
//   - Salt: KDF salt
//   - Info: HKDF info string (high entropy only)
//   - Hash: The derived key this string asserts
type EncodedHash struct {
	Deterministic bool
	PepperVersion uint
	Nonce         []byte
	AAD           []byte
	Class         EntropyClass
	Algorithm     Algorithm
	Iterations    int
	Salt          []byte
	Info          []byte
	Hash          []byte
}

// ParseEncodedHash creates an EncodedHash from its string form.
//
// Parameters:
//   - content: String in one of the grammars produced by String()
//
// Returns:
//   - An EncodedHash if parsing succeeds
//   - ErrMalformedEncoding if the string does not conform to either grammar
//   - ErrUnsupportedAlgorithm if the algorithm field names an unknown KDF
//
// Example:
//
//	encoded, err := ParseEncodedHash(stored)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("peppered with registry version %d\n", encoded.PepperVersion)
func ParseEncodedHash(content string) (EncodedHash, error) {
	pepperSegment, hashSegment, found := strings.Cut(content, "#")
	if !found {
		return EncodedHash{}, fmt.Errorf("%w: missing '#' separator", ErrMalformedEncoding)
	}

	encoded, err := parsePepperSegment(pepperSegment)
	if err != nil {
		return EncodedHash{}, err
	}

	parts := strings.Split(hashSegment, ":")
	if len(parts) != 5 {
		return EncodedHash{}, fmt.Errorf(
			"%w: expected 5 hash segments, got %d",
			ErrMalformedEncoding,
			len(parts),
		)
	}

	switch parts[0] {
	case formatMarkerLow:
		encoded.Class = EntropyLow
	case formatMarkerHigh:
		encoded.Class = EntropyHigh
	default:
		return EncodedHash{}, fmt.Errorf("%w: unknown hash format marker %q", ErrMalformedEncoding, parts[0])
	}

	encoded.Algorithm = Algorithm(parts[1])
	class, err := encoded.Algorithm.Class()
	if err != nil {
		return EncodedHash{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, parts[1])
	}
	if class != encoded.Class {
		return EncodedHash{}, fmt.Errorf(
			"%w: algorithm %q does not belong to the %s format",
			ErrMalformedEncoding,
			parts[1],
			parts[0],
		)
	}

	if encoded.Class == EntropyLow {
		iterations, err := strconv.Atoi(parts[2])
		if err != nil || iterations <= 0 {
			return EncodedHash{}, fmt.Errorf("%w: invalid iteration count %q", ErrMalformedEncoding, parts[2])
		}
		encoded.Iterations = iterations

		if encoded.Salt, err = decodeSegment("salt", parts[3]); err != nil {
			return EncodedHash{}, err
		}
		if encoded.Hash, err = decodeSegment("hash", parts[4]); err != nil {
			return EncodedHash{}, err
		}
		return encoded, nil
	}

	if encoded.Salt, err = decodeSegment("salt", parts[2]); err != nil {
		return EncodedHash{}, err
	}
	if encoded.Info, err = decodeSegment("info", parts[3]); err != nil {
		return EncodedHash{}, err
	}
	if encoded.Hash, err = decodeSegment("hash", parts[4]); err != nil {
		return EncodedHash{}, err
	}
	return encoded, nil
}

// parsePepperSegment fills the pepper application fields from the text
// before the '#' separator.
func parsePepperSegment(segment string) (EncodedHash, error) {
	if segment == "" {
		return EncodedHash{}, fmt.Errorf("%w: empty pepper segment", ErrMalformedEncoding)
	}

	marker, rest := segment[0], segment[1:]
	switch marker {
	case 'd':
		version, err := parsePepperVersion(rest)
		if err != nil {
			return EncodedHash{}, err
		}
		return EncodedHash{Deterministic: true, PepperVersion: version}, nil

	case 'n':
		token, aadSegment, found := strings.Cut(rest, ":")
		if !found {
			return EncodedHash{}, fmt.Errorf("%w: missing aad separator in pepper segment", ErrMalformedEncoding)
		}
		if len(token) <= encodedNonceLength {
			return EncodedHash{}, fmt.Errorf("%w: pepper segment too short for a nonce", ErrMalformedEncoding)
		}

		version, err := parsePepperVersion(token[:len(token)-encodedNonceLength])
		if err != nil {
			return EncodedHash{}, err
		}
		nonce, err := decodeSegment("nonce", token[len(token)-encodedNonceLength:])
		if err != nil {
			return EncodedHash{}, err
		}
		var aad []byte
		if aadSegment != "" {
			if aad, err = decodeSegment("aad", aadSegment); err != nil {
				return EncodedHash{}, err
			}
		}
		return EncodedHash{PepperVersion: version, Nonce: nonce, AAD: aad}, nil
	}

	return EncodedHash{}, fmt.Errorf("%w: unknown pepper marker %q", ErrMalformedEncoding, string(marker))
}

func parsePepperVersion(digits string) (uint, error) {
	version, err := strconv.ParseUint(digits, 10, 0)
	if err != nil || version == 0 {
		return 0, fmt.Errorf("%w: invalid pepper version %q", ErrMalformedEncoding, digits)
	}
	return uint(version), nil
}

func decodeSegment(name, segment string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEncoding, name, err)
	}
	return decoded, nil
}

// String serializes the EncodedHash to its persisted string form.
//
// String and ParseEncodedHash round-trip byte-for-byte:
//
//	stored := encoded.String()
//	parsed, _ := ParseEncodedHash(stored)
//	// parsed.String() == stored
func (e EncodedHash) String() string {
	var b strings.Builder

	if e.Deterministic {
		fmt.Fprintf(&b, "d%d", e.PepperVersion)
	} else {
		encodedAAD := ""
		if len(e.AAD) > 0 {
			encodedAAD = base64.StdEncoding.EncodeToString(e.AAD)
		}
		fmt.Fprintf(
			&b,
			"n%d%s:%s",
			e.PepperVersion,
			base64.StdEncoding.EncodeToString(e.Nonce),
			encodedAAD,
		)
	}

	if e.Class == EntropyLow {
		fmt.Fprintf(
			&b,
			"#%s:%s:%d:%s:%s",
			formatMarkerLow,
			e.Algorithm,
			e.Iterations,
			base64.StdEncoding.EncodeToString(e.Salt),
			base64.StdEncoding.EncodeToString(e.Hash),
		)
		return b.String()
	}

	fmt.Fprintf(
		&b,
		"#%s:%s:%s:%s:%s",
		formatMarkerHigh,
		e.Algorithm,
		base64.StdEncoding.EncodeToString(e.Salt),
		base64.StdEncoding.EncodeToString(e.Info),
		base64.StdEncoding.EncodeToString(e.Hash),
	)
	return b.String()
}
