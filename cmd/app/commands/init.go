package commands

import (
	"context"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunInit obtains root key material from the configured unseal provider and
// opens the barrier. On an empty database this creates the full key
// hierarchy; on an existing one it unwraps the stored keys. Either way the
// clear unseal material is zeroed before returning.
//
// Requirements: Database must be migrated and the unseal configuration set
// (UNSEAL_MODE plus the mode's inputs).
func RunInit(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	logger *slog.Logger,
) error {
	logger.Info("initializing the barrier")

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	logger.Info("barrier initialized successfully")
	return nil
}
