// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// unsealBarrier obtains root key material from the provider and opens the
// barrier with it. The material is zeroed before returning, whatever the
// outcome.
func unsealBarrier(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
) error {
	material, err := provider.Obtain(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain unseal material: %w", err)
	}
	defer material.Zero()

	if err := barrierUseCase.Initialize(ctx, material); err != nil {
		return fmt.Errorf("failed to initialize the barrier: %w", err)
	}

	return nil
}

// parseLayer converts a layer string to barrierDomain.Layer.
// Returns an error if the layer string is invalid.
func parseLayer(layerStr string) (barrierDomain.Layer, error) {
	switch layerStr {
	case "root":
		return barrierDomain.LayerRoot, nil
	case "intermediate":
		return barrierDomain.LayerIntermediate, nil
	case "content":
		return barrierDomain.LayerContent, nil
	default:
		return "", fmt.Errorf(
			"invalid layer: %s (valid options: root, intermediate, content)",
			layerStr,
		)
	}
}

// parseAlgorithm converts an algorithm string to barrierDomain.Algorithm.
// Returns an error if the algorithm string is invalid.
func parseAlgorithm(algorithmStr string) (barrierDomain.Algorithm, error) {
	switch algorithmStr {
	case "aes-gcm":
		return barrierDomain.AESGCM, nil
	case "aes-gcm-siv":
		return barrierDomain.AESGCMSIV, nil
	case "aes-128-gcm":
		return barrierDomain.AES128GCM, nil
	case "aes-192-gcm":
		return barrierDomain.AES192GCM, nil
	default:
		return "", fmt.Errorf(
			"invalid algorithm: %s (valid options: aes-gcm, aes-gcm-siv, aes-128-gcm, aes-192-gcm)",
			algorithmStr,
		)
	}
}

// parseEntropyClass converts an entropy class string to hashDomain.EntropyClass.
// Returns an error if the entropy class string is invalid.
func parseEntropyClass(entropyStr string) (hashDomain.EntropyClass, error) {
	switch entropyStr {
	case "low":
		return hashDomain.EntropyLow, nil
	case "high":
		return hashDomain.EntropyHigh, nil
	default:
		return "", fmt.Errorf("invalid entropy class: %s (valid options: low, high)", entropyStr)
	}
}

// parseSaltClass converts a salt class string to hashDomain.SaltClass.
// Returns an error if the salt class string is invalid.
func parseSaltClass(saltStr string) (hashDomain.SaltClass, error) {
	switch saltStr {
	case "random":
		return hashDomain.SaltRandom, nil
	case "fixed":
		return hashDomain.SaltFixed, nil
	default:
		return "", fmt.Errorf("invalid salt class: %s (valid options: random, fixed)", saltStr)
	}
}
