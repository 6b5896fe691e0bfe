package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	auditMocks "github.com/allisson/barrier/internal/audit/usecase/mocks"
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/barrier/usecase"
	usecaseMocks "github.com/allisson/barrier/internal/barrier/usecase/mocks"
)

func TestBarrierUseCaseWithAudit_Initialize(t *testing.T) {
	ctx := context.Background()
	material := []byte("unseal-test-32bytes-aaaaaaaaaaaaaaa")

	t.Run("Initialize_Success_RecordsTrailEntry", func(t *testing.T) {
		// Arrange
		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Initialize", ctx, material).Return(nil).Once()
		mockAudit.On("Record", ctx, auditDomain.OperationBarrierInitialize, "barrier", map[string]any(nil)).
			Return(nil).
			Once()

		// Act
		err := uc.Initialize(ctx, material)

		// Assert
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("Initialize_Error_NotRecorded", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("initialize failed")

		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Initialize", ctx, material).Return(expectedErr).Once()

		// Act
		err := uc.Initialize(ctx, material)

		// Assert
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockAudit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Initialize_Success_TrailFailureDoesNotFailOperation", func(t *testing.T) {
		// Arrange
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, logger)

		mockNext.On("Initialize", ctx, material).Return(nil).Once()
		mockAudit.On("Record", ctx, auditDomain.OperationBarrierInitialize, "barrier", map[string]any(nil)).
			Return(errors.New("trail store down")).
			Once()

		// Act
		err := uc.Initialize(ctx, material)

		// Assert
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})
}

func TestBarrierUseCaseWithAudit_Rotate(t *testing.T) {
	ctx := context.Background()
	layer := barrierDomain.LayerContent

	t.Run("Rotate_Success_RecordsProducedVersion", func(t *testing.T) {
		// Arrange
		expectedRecord := &barrierDomain.KeyRecord{
			ID:        uuid.Must(uuid.NewV7()),
			Layer:     layer,
			Version:   2,
			Algorithm: barrierDomain.AESGCM,
			CreatedAt: time.Now().UTC(),
		}

		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Rotate", ctx, layer).Return(expectedRecord, nil).Once()
		mockAudit.On("Record", ctx, auditDomain.OperationBarrierRotate, "content", map[string]any{"version": uint(2)}).
			Return(nil).
			Once()

		// Act
		result, err := uc.Rotate(ctx, layer)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, expectedRecord, result)
		mockNext.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("Rotate_Error_NotRecorded", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("rotation failed")

		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Rotate", ctx, layer).Return(nil, expectedErr).Once()

		// Act
		result, err := uc.Rotate(ctx, layer)

		// Assert
		assert.Nil(t, result)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockAudit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBarrierUseCaseWithAudit_Rewrap(t *testing.T) {
	ctx := context.Background()
	layer := barrierDomain.LayerIntermediate
	batchSize := 100

	t.Run("Rewrap_Success_RecordsRewrappedCount", func(t *testing.T) {
		// Arrange
		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Rewrap", ctx, layer, batchSize).Return(7, nil).Once()
		mockAudit.On("Record", ctx, auditDomain.OperationBarrierRewrap, "intermediate", map[string]any{"rewrapped": 7}).
			Return(nil).
			Once()

		// Act
		count, err := uc.Rewrap(ctx, layer, batchSize)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 7, count)
		mockNext.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("Rewrap_Success_NothingStaleStillRecorded", func(t *testing.T) {
		// Arrange
		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Rewrap", ctx, layer, batchSize).Return(0, nil).Once()
		mockAudit.On("Record", ctx, auditDomain.OperationBarrierRewrap, "intermediate", map[string]any{"rewrapped": 0}).
			Return(nil).
			Once()

		// Act
		count, err := uc.Rewrap(ctx, layer, batchSize)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 0, count)
		mockNext.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("Rewrap_Error_NotRecorded", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("rewrap failed")

		mockNext := new(usecaseMocks.MockBarrierUseCase)
		mockAudit := new(auditMocks.MockAuditUseCase)
		uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

		mockNext.On("Rewrap", ctx, layer, batchSize).Return(0, expectedErr).Once()

		// Act
		count, err := uc.Rewrap(ctx, layer, batchSize)

		// Assert
		assert.Equal(t, 0, count)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockAudit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

// TestBarrierUseCaseWithAudit_PassThroughs verifies the data path, key
// derivation, and shutdown forward without leaving trail entries.
func TestBarrierUseCaseWithAudit_PassThroughs(t *testing.T) {
	ctx := context.Background()

	mockNext := new(usecaseMocks.MockBarrierUseCase)
	mockAudit := new(auditMocks.MockAuditUseCase)
	uc := usecase.NewBarrierUseCaseWithAudit(mockNext, mockAudit, nil)

	envelope := &barrierDomain.CiphertextEnvelope{
		KeyID:      uuid.Must(uuid.NewV7()),
		KeyVersion: 1,
		Nonce:      make([]byte, barrierDomain.NonceSize),
		Ciphertext: []byte("encrypted data"),
	}
	plaintext := []byte("hello-world")
	aad := []byte("tenant-123")
	info := []byte("record-signing-v1")
	derived := []byte("derived-signing-key-32-bytes-aaa")

	// Arrange
	mockNext.On("Encrypt", ctx, plaintext, aad).Return(envelope, nil).Once()
	mockNext.On("Decrypt", ctx, envelope).Return(plaintext, nil).Once()
	mockNext.On("DeriveSigningKey", ctx, info).Return(derived, uint(1), nil).Once()
	mockNext.On("DeriveSigningKeyForVersion", ctx, info, uint(1)).Return(derived, nil).Once()
	mockNext.On("Shutdown", ctx).Return(nil).Once()

	// Act
	gotEnvelope, err := uc.Encrypt(ctx, plaintext, aad)
	assert.NoError(t, err)
	assert.Equal(t, envelope, gotEnvelope)

	gotPlaintext, err := uc.Decrypt(ctx, envelope)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, gotPlaintext)

	key, version, err := uc.DeriveSigningKey(ctx, info)
	assert.NoError(t, err)
	assert.Equal(t, derived, key)
	assert.Equal(t, uint(1), version)

	key, err = uc.DeriveSigningKeyForVersion(ctx, info, uint(1))
	assert.NoError(t, err)
	assert.Equal(t, derived, key)

	assert.NoError(t, uc.Shutdown(ctx))

	// Assert
	mockNext.AssertExpectations(t)
	mockAudit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
