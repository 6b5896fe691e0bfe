package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	barrierMocks "github.com/allisson/barrier/internal/barrier/usecase/mocks"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

func TestRunRotate(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := unsealService.NewSimpleProvider(bytes.Repeat([]byte{0x42}, 32))

	t.Run("success", func(t *testing.T) {
		mockUseCase := &barrierMocks.MockBarrierUseCase{}
		mockUseCase.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)
		mockUseCase.On("Rotate", ctx, barrierDomain.LayerContent).Return(&barrierDomain.KeyRecord{
			Layer:     barrierDomain.LayerContent,
			Version:   2,
			Algorithm: barrierDomain.AESGCM,
		}, nil)

		err := RunRotate(ctx, provider, mockUseCase, logger, "content")
		require.NoError(t, err)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-layer", func(t *testing.T) {
		mockUseCase := &barrierMocks.MockBarrierUseCase{}
		err := RunRotate(ctx, provider, mockUseCase, logger, "middle")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid layer")
		mockUseCase.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("rotate-error", func(t *testing.T) {
		mockUseCase := &barrierMocks.MockBarrierUseCase{}
		mockUseCase.On("Initialize", ctx, mock.AnythingOfType("[]uint8")).Return(nil)
		mockUseCase.On("Rotate", ctx, barrierDomain.LayerRoot).
			Return(nil, errors.New("database gone"))

		err := RunRotate(ctx, provider, mockUseCase, logger, "root")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to rotate root layer")
	})
}
