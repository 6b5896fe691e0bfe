// Package mocks provides mock implementations for testing hash use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	hashDomain "github.com/allisson/barrier/internal/hash/domain"
)

// MockHashUseCase is a mock implementation of usecase.HashUseCase.
type MockHashUseCase struct {
	mock.Mock
}

// Hash mocks the Hash method.
func (m *MockHashUseCase) Hash(
	ctx context.Context,
	input []byte,
	registryID string,
	entropy hashDomain.EntropyClass,
	salt hashDomain.SaltClass,
) (string, error) {
	args := m.Called(ctx, input, registryID, entropy, salt)
	return args.String(0), args.Error(1)
}

// Validate mocks the Validate method.
func (m *MockHashUseCase) Validate(
	ctx context.Context,
	input []byte,
	registryID string,
	encoded string,
) (bool, error) {
	args := m.Called(ctx, input, registryID, encoded)
	return args.Bool(0), args.Error(1)
}
