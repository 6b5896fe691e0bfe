package service

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	apperrors "github.com/allisson/barrier/internal/errors"
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
)

// kdfRegistry maps each allow-listed algorithm to its derivation function.
// dkLen is always the algorithm's digest size, fixed by the caller.
var kdfRegistry = map[hashDomain.Algorithm]func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error){
	hashDomain.PBKDF2SHA256: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return pbkdf2.Key(secret, salt, iterations, dkLen, sha256.New), nil
	},
	hashDomain.PBKDF2SHA384: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return pbkdf2.Key(secret, salt, iterations, dkLen, sha512.New384), nil
	},
	hashDomain.PBKDF2SHA512: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return pbkdf2.Key(secret, salt, iterations, dkLen, sha512.New), nil
	},
	hashDomain.HKDFSHA256: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return expand(sha256.New, secret, salt, info, dkLen)
	},
	hashDomain.HKDFSHA384: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return expand(sha512.New384, secret, salt, info, dkLen)
	},
	hashDomain.HKDFSHA512: func(secret, salt, info []byte, iterations, dkLen int) ([]byte, error) {
		return expand(sha512.New, secret, salt, info, dkLen)
	},
}

// expand runs a single HKDF extract-and-expand over the secret.
func expand(h func() hash.Hash, secret, salt, info []byte, dkLen int) ([]byte, error) {
	derived := make([]byte, dkLen)
	if _, err := io.ReadFull(hkdf.New(h, secret, salt, info), derived); err != nil {
		return nil, apperrors.Wrap(err, "failed to expand key material")
	}
	return derived, nil
}

type keyDeriver struct{}

// NewKeyDeriver creates a KeyDeriver covering the PBKDF2 and HKDF families
// over SHA-256, SHA-384 and SHA-512.
func NewKeyDeriver() KeyDeriver {
	return &keyDeriver{}
}

// Derive runs the named algorithm and returns a derived key of the
// algorithm's digest size.
func (d *keyDeriver) Derive(
	algorithm hashDomain.Algorithm,
	secret, salt, info []byte,
	iterations int,
) ([]byte, error) {
	derive, ok := kdfRegistry[algorithm]
	if !ok {
		return nil, hashDomain.ErrUnsupportedAlgorithm
	}
	return derive(secret, salt, info, iterations, algorithm.DigestSize())
}
