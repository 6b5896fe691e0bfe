// Package mocks provides mock implementations for testing pepper use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
)

// MockPepperRepository is a mock implementation of PepperRepository for testing.
type MockPepperRepository struct {
	mock.Mock
}

// Create mocks the Create method of PepperRepository.
func (m *MockPepperRepository) Create(ctx context.Context, pepper *pepperDomain.Pepper) error {
	args := m.Called(ctx, pepper)
	return args.Error(0)
}

// GetByRegistryIDAndVersion mocks the GetByRegistryIDAndVersion method of PepperRepository.
func (m *MockPepperRepository) GetByRegistryIDAndVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	args := m.Called(ctx, registryID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pepperDomain.Pepper), args.Error(1)
}

// GetLatestByRegistryID mocks the GetLatestByRegistryID method of PepperRepository.
func (m *MockPepperRepository) GetLatestByRegistryID(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	args := m.Called(ctx, registryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pepperDomain.Pepper), args.Error(1)
}
