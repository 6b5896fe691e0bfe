package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
	hashUsecase "github.com/allisson/barrier/internal/hash/usecase"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// RunHash reads the value to hash from the IOTuple reader (everything up to
// EOF, with a single trailing line break trimmed) and prints the encoded
// hash string to the writer. Neither the input value nor the resulting hash
// reaches the logs. A warning is emitted when a high-entropy hash is
// requested for an input shorter than the configured boundary.
//
// Requirements: Database must be migrated, the unseal configuration set, and
// the registry's pepper created.
func RunHash(
	ctx context.Context,
	provider unsealService.Provider,
	barrierUseCase barrierUsecase.BarrierUseCase,
	hashUseCase hashUsecase.HashUseCase,
	logger *slog.Logger,
	ioTuple IOTuple,
	registryID string,
	entropyStr, saltStr string,
	highEntropyMinBits int,
) error {
	entropy, err := parseEntropyClass(entropyStr)
	if err != nil {
		return err
	}

	salt, err := parseSaltClass(saltStr)
	if err != nil {
		return err
	}

	input, err := readInput(ioTuple.Reader)
	if err != nil {
		return err
	}

	logger.Info("hashing input",
		slog.String("registry_id", registryID),
		slog.String("entropy", entropyStr),
		slog.String("salt", saltStr),
	)

	// An input shorter than the boundary cannot carry that much entropy, and
	// the high class skips key stretching. Warn but proceed since the class
	// choice belongs to the caller.
	if entropy == hashDomain.EntropyHigh && len(input)*8 < highEntropyMinBits {
		logger.Warn(
			"input is shorter than the high-entropy boundary, consider entropy=low",
			slog.Int("high_entropy_min_bits", highEntropyMinBits),
		)
	}

	if err := unsealBarrier(ctx, provider, barrierUseCase); err != nil {
		return err
	}

	encoded, err := hashUseCase.Hash(ctx, input, registryID, entropy, salt)
	if err != nil {
		return fmt.Errorf("failed to hash input: %w", err)
	}

	_, _ = fmt.Fprintln(ioTuple.Writer, encoded)

	logger.Info("hash computed successfully", slog.String("registry_id", registryID))
	return nil
}

// readInput reads everything from the reader and trims one trailing line
// break, so piped files and heredocs work without surprises.
func readInput(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	if len(data) == 0 {
		return nil, fmt.Errorf("input is empty")
	}

	return data, nil
}
