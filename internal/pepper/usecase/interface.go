package usecase

import (
	"context"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
)

// PepperRepository defines the interface for pepper persistence.
type PepperRepository interface {
	Create(ctx context.Context, pepper *pepperDomain.Pepper) error
	GetByRegistryIDAndVersion(ctx context.Context, registryID string, version uint) (*pepperDomain.Pepper, error)
	GetLatestByRegistryID(ctx context.Context, registryID string) (*pepperDomain.Pepper, error)
}

// PepperUseCase defines the interface for pepper registry management and
// pepper application.
type PepperUseCase interface {
	// Generate creates a registry's first pepper version with a fresh random
	// key sealed through the barrier. At most one generation runs per
	// registry at a time; concurrent callers receive the winner's pepper,
	// and a registry that already has a pepper fails with
	// pepperDomain.ErrPepperAlreadyExists.
	Generate(ctx context.Context, registryID string, alg barrierDomain.Algorithm) (*pepperDomain.Pepper, error)

	// Rotate issues the next pepper version with a fresh key. Prior versions
	// remain loadable so hashes written under them keep validating.
	Rotate(ctx context.Context, registryID string) (*pepperDomain.Pepper, error)

	// Load returns the registry's active (highest version) pepper with its
	// clear key populated.
	Load(ctx context.Context, registryID string) (*pepperDomain.Pepper, error)

	// LoadVersion returns an exact pepper version with its clear key
	// populated. Validation resolves the version named by an encoded hash
	// through this method.
	LoadVersion(ctx context.Context, registryID string, version uint) (*pepperDomain.Pepper, error)

	// ApplyDeterministic seals input with the pepper key and a caller-supplied
	// nonce. Identical input yields identical output, so only the
	// nonce-misuse resistant aes-gcm-siv algorithm is accepted.
	ApplyDeterministic(pepper *pepperDomain.Pepper, input, nonce, aad []byte) ([]byte, error)

	// ApplyNondeterministic seals input with a fresh random nonce and returns
	// the nonce alongside the peppered bytes.
	ApplyNondeterministic(pepper *pepperDomain.Pepper, input, aad []byte) (peppered, nonce []byte, err error)

	// Reapply recomputes a previous pepper application with its recorded
	// nonce and associated data. Validation uses it to rebuild the exact
	// peppered value an encoded hash was derived from.
	Reapply(pepper *pepperDomain.Pepper, input, nonce, aad []byte) ([]byte, error)

	// DeriveFixedNonce derives the pepper-scoped fixed nonce used for
	// deterministic application.
	DeriveFixedNonce(pepper *pepperDomain.Pepper) ([]byte, error)

	// DeriveFixedSalt derives the pepper-scoped fixed salt used by
	// fixed-salt hashing.
	DeriveFixedSalt(pepper *pepperDomain.Pepper) ([]byte, error)
}
