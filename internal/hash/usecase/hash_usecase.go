package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/barrier/internal/errors"
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
	hashService "github.com/allisson/barrier/internal/hash/service"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
	pepperUsecase "github.com/allisson/barrier/internal/pepper/usecase"
	customValidation "github.com/allisson/barrier/internal/validation"
)

// hashUseCase implements HashUseCase.
//
// The engine holds no mutable state of its own: peppers are loaded and
// cached by the pepper use case, and everything else is recomputed per
// call from the input and the encoded parameters.
type hashUseCase struct {
	pepper     pepperUsecase.PepperUseCase
	deriver    hashService.KeyDeriver
	iterations int
}

func validateRegistryID(registryID string) error {
	err := validation.Validate(registryID,
		validation.Required.Error("registry id is required"),
		customValidation.RegistryID,
	)
	return customValidation.WrapValidationError(err)
}

// hkdfInfo binds high-entropy derivations to their registry. The value is
// recorded in the encoded string, so validation replays it as stored even
// if this scheme changes later.
func hkdfInfo(registryID string) []byte {
	return []byte("hash:" + registryID)
}

// Hash peppers the input with the registry's active pepper and derives the
// persisted hash string.
func (h *hashUseCase) Hash(
	ctx context.Context,
	input []byte,
	registryID string,
	entropy hashDomain.EntropyClass,
	salt hashDomain.SaltClass,
) (string, error) {
	if err := validateRegistryID(registryID); err != nil {
		return "", err
	}
	if err := entropy.Validate(); err != nil {
		return "", err
	}
	if err := salt.Validate(); err != nil {
		return "", err
	}

	pepper, err := h.pepper.Load(ctx, registryID)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to load registry pepper")
	}

	encoded := hashDomain.EncodedHash{
		PepperVersion: pepper.Version,
		Class:         entropy,
	}
	if encoded.Algorithm, err = hashDomain.DefaultAlgorithm(entropy); err != nil {
		return "", err
	}

	peppered, err := h.applyPepper(pepper, input, salt, &encoded)
	if err != nil {
		return "", err
	}

	if entropy == hashDomain.EntropyLow {
		encoded.Iterations = h.iterations
	} else {
		encoded.Info = hkdfInfo(registryID)
	}

	encoded.Hash, err = h.deriver.Derive(encoded.Algorithm, peppered, encoded.Salt, encoded.Info, encoded.Iterations)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to derive hash")
	}

	return encoded.String(), nil
}

// applyPepper runs the salt-class-selected pepper application and fills the
// pepper and salt fields of the encoding under construction.
func (h *hashUseCase) applyPepper(
	pepper *pepperDomain.Pepper,
	input []byte,
	salt hashDomain.SaltClass,
	encoded *hashDomain.EncodedHash,
) ([]byte, error) {
	if salt == hashDomain.SaltFixed {
		encoded.Deterministic = true

		nonce, err := h.pepper.DeriveFixedNonce(pepper)
		if err != nil {
			return nil, err
		}
		peppered, err := h.pepper.ApplyDeterministic(pepper, input, nonce, nil)
		if err != nil {
			return nil, err
		}
		if encoded.Salt, err = h.pepper.DeriveFixedSalt(pepper); err != nil {
			return nil, err
		}
		return peppered, nil
	}

	peppered, nonce, err := h.pepper.ApplyNondeterministic(pepper, input, nil)
	if err != nil {
		return nil, err
	}
	encoded.Nonce = nonce

	encoded.Salt = make([]byte, hashDomain.SaltSize)
	if _, err := rand.Read(encoded.Salt); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate salt")
	}
	return peppered, nil
}

// Validate recomputes the hash with the encoded parameters and compares in
// constant time. A mismatching input returns (false, nil).
func (h *hashUseCase) Validate(ctx context.Context, input []byte, registryID string, encoded string) (bool, error) {
	if err := validateRegistryID(registryID); err != nil {
		return false, err
	}

	if hashDomain.IsLegacyEncoding(encoded) {
		return h.validateLegacy(input, encoded)
	}

	parsed, err := hashDomain.ParseEncodedHash(encoded)
	if err != nil {
		return false, err
	}

	pepper, err := h.pepper.LoadVersion(ctx, registryID, parsed.PepperVersion)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return false, fmt.Errorf(
				"%w: registry %q version %d",
				hashDomain.ErrUnknownPepperVersion,
				registryID,
				parsed.PepperVersion,
			)
		}
		return false, apperrors.Wrap(err, "failed to load referenced pepper")
	}

	peppered, err := h.reapplyPepper(pepper, input, parsed)
	if err != nil {
		return false, err
	}

	derived, err := h.deriver.Derive(parsed.Algorithm, peppered, parsed.Salt, parsed.Info, parsed.Iterations)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to derive hash")
	}

	return subtle.ConstantTimeCompare(derived, parsed.Hash) == 1, nil
}

// reapplyPepper recomputes the peppered input exactly as recorded:
// deterministic strings re-derive the fixed nonce, nondeterministic strings
// replay the recorded nonce and AAD.
func (h *hashUseCase) reapplyPepper(
	pepper *pepperDomain.Pepper,
	input []byte,
	parsed hashDomain.EncodedHash,
) ([]byte, error) {
	if parsed.Deterministic {
		nonce, err := h.pepper.DeriveFixedNonce(pepper)
		if err != nil {
			return nil, err
		}
		return h.pepper.ApplyDeterministic(pepper, input, nonce, nil)
	}
	return h.pepper.Reapply(pepper, input, parsed.Nonce, parsed.AAD)
}

// validateLegacy checks input against a previous-generation hash string.
// Legacy rows predate peppering, so the input feeds the KDF directly.
func (h *hashUseCase) validateLegacy(input []byte, encoded string) (bool, error) {
	parsed, err := hashDomain.ParseLegacyHash(encoded)
	if err != nil {
		return false, err
	}

	derived, err := h.deriver.Derive(hashDomain.PBKDF2SHA256, input, parsed.Salt, nil, parsed.Iterations)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to derive legacy hash")
	}

	return subtle.ConstantTimeCompare(derived, parsed.Hash) == 1, nil
}

// NewHashUseCase creates a HashUseCase over a pepper use case and a key
// deriver.
//
// Parameters:
//   - pepper: Pepper use case providing registry peppers and application
//   - deriver: Key derivation service for the PBKDF2 and HKDF families
//   - iterations: PBKDF2 iteration count from configuration; values below
//     the floor of 600000 are raised to it
//
// Returns:
//   - A HashUseCase instance
func NewHashUseCase(
	pepper pepperUsecase.PepperUseCase,
	deriver hashService.KeyDeriver,
	iterations int,
) HashUseCase {
	if iterations < hashDomain.MinPBKDF2Iterations {
		iterations = hashDomain.MinPBKDF2Iterations
	}

	return &hashUseCase{
		pepper:     pepper,
		deriver:    deriver,
		iterations: iterations,
	}
}
