package service

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// rootUnwrapSalt is the fixed HKDF salt for root-unwrap key derivation.
// Fixed so that independently unsealed instances derive the same key from
// the same material.
var rootUnwrapSalt = []byte("barrier-root-unwrap-salt")

// rootUnwrapInfo binds the derivation to its purpose. Versioned so a future
// derivation change can coexist with the current one.
const rootUnwrapInfo = "barrier-root-unwrap-v1"

type rootKeyDeriver struct {
	hash func() hash.Hash
}

// NewRootKeyDeriver creates a RootKeyDeriver using the named hash function.
//
// Supported names: "sha256", "sha384", "sha512". The hash only affects the
// HKDF internals; the derived key is always 32 bytes.
//
// Parameters:
//   - hashName: The HKDF hash function name from configuration
//
// Returns:
//   - A RootKeyDeriver instance
//   - An error if the hash name is unknown
func NewRootKeyDeriver(hashName string) (RootKeyDeriver, error) {
	var h func() hash.Hash
	switch hashName {
	case "sha256":
		h = sha256.New
	case "sha384":
		h = sha512.New384
	case "sha512":
		h = sha512.New
	default:
		return nil, fmt.Errorf("%w: unknown root kdf hash %q", barrierDomain.ErrUnsupportedAlgorithm, hashName)
	}

	return &rootKeyDeriver{hash: h}, nil
}

// DeriveRootUnwrapKey expands unseal material into a 32-byte root-unwrap key.
//
// The derivation is HKDF with a fixed salt and a versioned info string.
// It is deterministic: the same material always yields the same key, on any
// instance, which is what lets a replica open a hierarchy initialized
// elsewhere. The unseal material itself is never used as a cipher key.
func (r *rootKeyDeriver) DeriveRootUnwrapKey(material []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, fmt.Errorf("%w: empty unseal material", barrierDomain.ErrSealed)
	}

	reader := hkdf.New(r.hash, material, rootUnwrapSalt, []byte(rootUnwrapInfo))

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive root-unwrap key: %w", err)
	}

	return key, nil
}

// DeriveSubkey expands a root key into a purpose-bound 32-byte subkey.
//
// The caller's info string is the only derivation context, so the same root
// key and info always yield the same subkey while distinct infos yield
// independent ones. HKDF runs one way: handing out a subkey never exposes
// the root key it came from.
func (r *rootKeyDeriver) DeriveSubkey(rootKey, info []byte) ([]byte, error) {
	if len(rootKey) == 0 {
		return nil, fmt.Errorf("%w: empty root key", barrierDomain.ErrSealed)
	}

	reader := hkdf.New(r.hash, rootKey, nil, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive subkey: %w", err)
	}

	return key, nil
}
