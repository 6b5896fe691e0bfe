package commands

import (
	"context"
	"fmt"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunRotate rotates one layer of the key hierarchy to a new version. New
// writes pick up the new key immediately; existing records remain readable
// under their recorded versions until a rewrap pass re-wraps them.
//
// Requirements: Database must be migrated and the unseal configuration set.
func RunRotate(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	logger *slog.Logger,
	layerStr string,
) error {
	layer, err := parseLayer(layerStr)
	if err != nil {
		return err
	}

	logger.Info("rotating barrier layer", slog.String("layer", layerStr))

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	record, err := barrierUseCase.Rotate(ctx, layer)
	if err != nil {
		return fmt.Errorf("failed to rotate %s layer: %w", layerStr, err)
	}

	logger.Info("layer rotated successfully",
		slog.String("layer", layerStr),
		slog.Uint64("version", uint64(record.Version)),
		slog.String("algorithm", string(record.Algorithm)),
	)

	return nil
}
