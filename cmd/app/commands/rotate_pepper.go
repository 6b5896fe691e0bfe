package commands

import (
	"context"
	"fmt"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	pepperUsecase "github.com/allisson/barrier/internal/pepper/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunRotatePepper rotates a registry's pepper to a new version with fresh
// key material, keeping the previous algorithm. New hashes pick up the new
// version; stored strings keep validating against the version they record.
//
// Requirements: Database must be migrated and the unseal configuration set.
func RunRotatePepper(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	pepperUseCase pepperUsecase.PepperUseCase,
	logger *slog.Logger,
	registryID string,
) error {
	logger.Info("rotating pepper", slog.String("registry_id", registryID))

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	pepper, err := pepperUseCase.Rotate(ctx, registryID)
	if err != nil {
		return fmt.Errorf("failed to rotate pepper: %w", err)
	}

	logger.Info("pepper rotated successfully",
		slog.String("registry_id", pepper.RegistryID),
		slog.Uint64("version", uint64(pepper.Version)),
		slog.String("algorithm", string(pepper.Algorithm)),
	)

	return nil
}
