// Package service provides the key derivation primitives behind the hash
// engine.
package service

import (
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
)

// KeyDeriver runs the key derivation function named by an algorithm.
//
// The derived key length always equals the algorithm's digest size. The
// iterations parameter only applies to the PBKDF2 family; the info
// parameter only applies to the HKDF family. Each family ignores the
// other's parameter.
type KeyDeriver interface {
	// Derive runs the algorithm over the secret and salt and returns the
	// derived key. Returns ErrUnsupportedAlgorithm for names outside the
	// allow list.
	Derive(algorithm hashDomain.Algorithm, secret, salt, info []byte, iterations int) ([]byte, error)
}
