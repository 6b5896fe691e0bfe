package commands

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunRewrap re-wraps all key records of a layer that are still wrapped under
// an old parent key, in rate-limited batches. Each batch runs in its own
// transaction, so an interrupted pass leaves a consistent mix of old and new
// wrappings and can simply be rerun.
//
// Pacing: batches are spaced by a token bucket of ratePerSec with the given
// burst, keeping a large backlog from saturating the database.
func RunRewrap(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	logger *slog.Logger,
	layerStr string,
	batchSize int,
	ratePerSec float64,
	burst int,
) error {
	layer, err := parseLayer(layerStr)
	if err != nil {
		return err
	}

	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if ratePerSec <= 0 {
		return fmt.Errorf("rate must be greater than 0")
	}
	if burst <= 0 {
		return fmt.Errorf("burst must be greater than 0")
	}

	logger.Info("starting rewrap process",
		slog.String("layer", layerStr),
		slog.Int("batch_size", batchSize),
		slog.Float64("rate_per_sec", ratePerSec),
		slog.Int("burst", burst),
	)

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Limit(ratePerSec), burst)
	totalRewrapped := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rewrap pacing interrupted: %w", err)
		}

		rewrappedCount, err := barrierUseCase.Rewrap(ctx, layer, batchSize)
		if err != nil {
			return fmt.Errorf("failed to rewrap %s keys in batch: %w", layerStr, err)
		}

		if rewrappedCount == 0 {
			break
		}

		totalRewrapped += rewrappedCount
		logger.Info("rewrapped batch of key records",
			slog.Int("rewrapped_in_batch", rewrappedCount),
			slog.Int("total_rewrapped", totalRewrapped),
		)
	}

	logger.Info("rewrap process completed",
		slog.String("layer", layerStr),
		slog.Int("total_rewrapped", totalRewrapped),
	)

	return nil
}
