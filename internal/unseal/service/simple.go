package service

import (
	"context"
	"fmt"
	"os"

	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
)

// simpleProvider returns a copy of preconfigured unseal material.
type simpleProvider struct {
	material []byte
}

// NewSimpleProvider creates a Provider that returns the supplied key bytes.
// The input is copied, so the caller keeps ownership of its slice.
func NewSimpleProvider(material []byte) Provider {
	own := make([]byte, len(material))
	copy(own, material)
	return &simpleProvider{material: own}
}

// Obtain returns a copy of the configured material.
// Returns ErrUnsealFailed if the material is shorter than MinMaterialLen.
func (p *simpleProvider) Obtain(_ context.Context) (unsealDomain.Material, error) {
	if len(p.material) < unsealDomain.MinMaterialLen {
		return nil, fmt.Errorf(
			"%w: material must be at least %d bytes, got %d",
			unsealDomain.ErrUnsealFailed,
			unsealDomain.MinMaterialLen,
			len(p.material),
		)
	}

	out := make(unsealDomain.Material, len(p.material))
	copy(out, p.material)
	return out, nil
}

// fileProvider reads raw unseal material from a file on each Obtain call.
type fileProvider struct {
	path string
}

// NewSimpleProviderFromFile creates a Provider that reads raw key bytes from
// the given path. The file content is used as-is, without decoding or
// whitespace trimming.
func NewSimpleProviderFromFile(path string) Provider {
	return &fileProvider{path: path}
}

// Obtain reads the key file and returns its bytes.
// Returns ErrUnsealFailed if the file is absent, unreadable, or too short.
func (p *fileProvider) Obtain(_ context.Context) (unsealDomain.Material, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read key file: %v", unsealDomain.ErrUnsealFailed, err)
	}

	if len(data) < unsealDomain.MinMaterialLen {
		unsealDomain.Zero(data)
		return nil, fmt.Errorf(
			"%w: key file must hold at least %d bytes, got %d",
			unsealDomain.ErrUnsealFailed,
			unsealDomain.MinMaterialLen,
			len(data),
		)
	}

	return data, nil
}

// kmsProvider unwraps KMS-wrapped unseal material through a keeper.
type kmsProvider struct {
	keeper  unsealDomain.KMSKeeper
	wrapped []byte
}

// NewSimpleProviderFromKMS creates a Provider that decrypts the wrapped
// material through the keeper on Obtain. The wrapped ciphertext is copied.
func NewSimpleProviderFromKMS(keeper unsealDomain.KMSKeeper, wrapped []byte) Provider {
	own := make([]byte, len(wrapped))
	copy(own, wrapped)
	return &kmsProvider{keeper: keeper, wrapped: own}
}

// Obtain decrypts the wrapped material with the KMS keeper.
// Returns ErrUnsealFailed if the unwrap fails or the plaintext is too short.
func (p *kmsProvider) Obtain(ctx context.Context) (unsealDomain.Material, error) {
	plaintext, err := p.keeper.Decrypt(ctx, p.wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: kms unwrap: %v", unsealDomain.ErrUnsealFailed, err)
	}

	if len(plaintext) < unsealDomain.MinMaterialLen {
		unsealDomain.Zero(plaintext)
		return nil, fmt.Errorf(
			"%w: unwrapped material must be at least %d bytes, got %d",
			unsealDomain.ErrUnsealFailed,
			unsealDomain.MinMaterialLen,
			len(plaintext),
		)
	}

	return plaintext, nil
}
