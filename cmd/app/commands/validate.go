package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	hashUsecase "github.com/allisson/barrier/internal/hash/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunValidate checks a value against a stored hash string. The IOTuple
// reader supplies two lines: the value on the first and the encoded hash
// string on the second. Prints "valid" or "invalid" to the writer; a
// mismatch also returns an error so scripts can branch on the exit code.
//
// Requirements: Database must be migrated and the unseal configuration set.
func RunValidate(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	hashUseCase hashUsecase.HashUseCase,
	logger *slog.Logger,
	ioTuple IOTuple,
	registryID string,
) error {
	scanner := bufio.NewScanner(ioTuple.Reader)

	if !scanner.Scan() {
		return fmt.Errorf("expected the value to check on the first input line")
	}
	input := append([]byte(nil), scanner.Bytes()...)

	if !scanner.Scan() {
		return fmt.Errorf("expected the encoded hash string on the second input line")
	}
	encoded := scanner.Text()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(input) == 0 {
		return fmt.Errorf("input is empty")
	}
	if encoded == "" {
		return fmt.Errorf("encoded hash string is empty")
	}

	logger.Info("validating input", slog.String("registry_id", registryID))

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	ok, err := hashUseCase.Validate(ctx, input, registryID, encoded)
	if err != nil {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	if !ok {
		_, _ = fmt.Fprintln(ioTuple.Writer, "invalid")
		return fmt.Errorf("validation failed: input does not match the stored hash")
	}

	_, _ = fmt.Fprintln(ioTuple.Writer, "valid")
	logger.Info("validation succeeded", slog.String("registry_id", registryID))
	return nil
}
