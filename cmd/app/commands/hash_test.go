package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	barrierMocks "github.com/allisson/barrier/internal/barrier/usecase/mocks"
	hashDomain "github.com/allisson/barrier/internal/hash/domain"
	hashMocks "github.com/allisson/barrier/internal/hash/usecase/mocks"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

func TestRunHash(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := unsealService.NewSimpleProvider(bytes.Repeat([]byte{0x42}, 32))
	encoded := "n1YWJjZGVmZ2hpamts:#l1:pbkdf2-sha256:600000:c2FsdA==:aGFzaA=="

	t.Run("success", func(t *testing.T) {
		mockBarrier := &barrierMocks.MockBarrierUseCase{}
		mockBarrier.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)

		mockHash := &hashMocks.MockHashUseCase{}
		mockHash.On("Hash", ctx, []byte("correct horse"), "passwords", hashDomain.EntropyLow, hashDomain.SaltRandom).
			Return(encoded, nil)

		var out bytes.Buffer
		ioTuple := IOTuple{Reader: strings.NewReader("correct horse\n"), Writer: &out}

		err := RunHash(ctx, provider, mockBarrier, mockHash, logger, ioTuple, "passwords", "low", "random", 256)
		require.NoError(t, err)
		require.Equal(t, encoded+"\n", out.String())
		mockHash.AssertExpectations(t)
	})

	t.Run("input-without-trailing-newline", func(t *testing.T) {
		mockBarrier := &barrierMocks.MockBarrierUseCase{}
		mockBarrier.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)

		mockHash := &hashMocks.MockHashUseCase{}
		mockHash.On("Hash", ctx, []byte("correct horse"), "passwords", hashDomain.EntropyHigh, hashDomain.SaltFixed).
			Return(encoded, nil)

		var out bytes.Buffer
		ioTuple := IOTuple{Reader: strings.NewReader("correct horse"), Writer: &out}

		err := RunHash(ctx, provider, mockBarrier, mockHash, logger, ioTuple, "passwords", "high", "fixed", 256)
		require.NoError(t, err)
		mockHash.AssertExpectations(t)
	})

	t.Run("short-high-entropy-input-warns", func(t *testing.T) {
		mockBarrier := &barrierMocks.MockBarrierUseCase{}
		mockBarrier.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)

		mockHash := &hashMocks.MockHashUseCase{}
		mockHash.On("Hash", ctx, []byte("hunter2"), "passwords", hashDomain.EntropyHigh, hashDomain.SaltRandom).
			Return(encoded, nil)

		var logOut bytes.Buffer
		bufLogger := slog.New(slog.NewTextHandler(&logOut, nil))
		ioTuple := IOTuple{Reader: strings.NewReader("hunter2\n"), Writer: &bytes.Buffer{}}

		err := RunHash(ctx, provider, mockBarrier, mockHash, bufLogger, ioTuple, "passwords", "high", "random", 256)
		require.NoError(t, err)
		require.Contains(t, logOut.String(), "input is shorter than the high-entropy boundary")
		require.Contains(t, logOut.String(), "high_entropy_min_bits=256")
		require.NotContains(t, logOut.String(), "hunter2")
		mockHash.AssertExpectations(t)
	})

	t.Run("invalid-entropy-class", func(t *testing.T) {
		err := RunHash(
			ctx, provider, &barrierMocks.MockBarrierUseCase{}, &hashMocks.MockHashUseCase{},
			logger, IOTuple{}, "passwords", "medium", "random", 256,
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid entropy class")
	})

	t.Run("invalid-salt-class", func(t *testing.T) {
		err := RunHash(
			ctx, provider, &barrierMocks.MockBarrierUseCase{}, &hashMocks.MockHashUseCase{},
			logger, IOTuple{}, "passwords", "low", "static", 256,
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid salt class")
	})

	t.Run("empty-input", func(t *testing.T) {
		ioTuple := IOTuple{Reader: strings.NewReader("\n"), Writer: &bytes.Buffer{}}
		err := RunHash(
			ctx, provider, &barrierMocks.MockBarrierUseCase{}, &hashMocks.MockHashUseCase{},
			logger, ioTuple, "passwords", "low", "random", 256,
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "input is empty")
	})

	t.Run("hash-error", func(t *testing.T) {
		mockBarrier := &barrierMocks.MockBarrierUseCase{}
		mockBarrier.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)

		mockHash := &hashMocks.MockHashUseCase{}
		mockHash.On("Hash", ctx, []byte("x"), "passwords", hashDomain.EntropyLow, hashDomain.SaltRandom).
			Return("", pepperDomain.ErrPepperNotFound)

		ioTuple := IOTuple{Reader: strings.NewReader("x\n"), Writer: &bytes.Buffer{}}
		err := RunHash(ctx, provider, mockBarrier, mockHash, logger, ioTuple, "passwords", "low", "random", 256)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to hash input")
	})
}
