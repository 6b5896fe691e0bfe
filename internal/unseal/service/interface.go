// Package service provides unseal providers that obtain root key material.
// Material can come from a configured key, a KMS-wrapped key, a threshold of
// Shamir shares, or a deterministic host fingerprint.
package service

import (
	"context"

	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
)

// Provider defines the interface for obtaining unseal material at startup.
type Provider interface {
	// Obtain returns the unseal material. The returned bytes are owned by
	// the caller, who must Zero them after deriving keys. Failures wrap
	// the sealed sentinel; callers must not retry.
	Obtain(ctx context.Context) (unsealDomain.Material, error)
}

// KMSService defines the interface for opening KMS keepers used to unwrap
// unseal material.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (unsealDomain.KMSKeeper, error)
}
