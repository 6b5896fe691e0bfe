package commands

import (
	"context"
	"fmt"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	pepperUsecase "github.com/allisson/barrier/internal/pepper/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunCreatePepper creates version 1 of a registry's pepper, sealed under the
// barrier. Should be run once per registry before its callers start hashing.
// Registries that need deterministic hashing must use aes-gcm-siv.
//
// Requirements: Database must be migrated and the unseal configuration set.
func RunCreatePepper(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	pepperUseCase pepperUsecase.PepperUseCase,
	logger *slog.Logger,
	registryID string,
	algorithmStr string,
) error {
	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	logger.Info("creating pepper",
		slog.String("registry_id", registryID),
		slog.String("algorithm", algorithmStr),
	)

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	pepper, err := pepperUseCase.Generate(ctx, registryID, algorithm)
	if err != nil {
		return fmt.Errorf("failed to create pepper: %w", err)
	}

	logger.Info("pepper created successfully",
		slog.String("registry_id", pepper.RegistryID),
		slog.Uint64("version", uint64(pepper.Version)),
		slog.String("algorithm", string(pepper.Algorithm)),
	)

	return nil
}
