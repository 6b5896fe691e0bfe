package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// MockBarrierUseCase is a mock implementation of BarrierUseCase for testing.
type MockBarrierUseCase struct {
	mock.Mock
}

// Initialize mocks the Initialize method of BarrierUseCase.
func (m *MockBarrierUseCase) Initialize(ctx context.Context, material []byte) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

// Encrypt mocks the Encrypt method of BarrierUseCase.
func (m *MockBarrierUseCase) Encrypt(
	ctx context.Context,
	plaintext, aad []byte,
) (*barrierDomain.CiphertextEnvelope, error) {
	args := m.Called(ctx, plaintext, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barrierDomain.CiphertextEnvelope), args.Error(1)
}

// Decrypt mocks the Decrypt method of BarrierUseCase.
func (m *MockBarrierUseCase) Decrypt(
	ctx context.Context,
	envelope *barrierDomain.CiphertextEnvelope,
) ([]byte, error) {
	args := m.Called(ctx, envelope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Rotate mocks the Rotate method of BarrierUseCase.
func (m *MockBarrierUseCase) Rotate(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barrierDomain.KeyRecord), args.Error(1)
}

// Rewrap mocks the Rewrap method of BarrierUseCase.
func (m *MockBarrierUseCase) Rewrap(
	ctx context.Context,
	layer barrierDomain.Layer,
	batchSize int,
) (int, error) {
	args := m.Called(ctx, layer, batchSize)
	return args.Int(0), args.Error(1)
}

// DeriveSigningKey mocks the DeriveSigningKey method of BarrierUseCase.
func (m *MockBarrierUseCase) DeriveSigningKey(
	ctx context.Context,
	info []byte,
) ([]byte, uint, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint), args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(uint), args.Error(2)
}

// DeriveSigningKeyForVersion mocks the DeriveSigningKeyForVersion method of BarrierUseCase.
func (m *MockBarrierUseCase) DeriveSigningKeyForVersion(
	ctx context.Context,
	info []byte,
	version uint,
) ([]byte, error) {
	args := m.Called(ctx, info, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Shutdown mocks the Shutdown method of BarrierUseCase.
func (m *MockBarrierUseCase) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
