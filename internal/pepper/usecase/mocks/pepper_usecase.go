package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"
)

// MockPepperUseCase is a mock implementation of PepperUseCase for testing.
type MockPepperUseCase struct {
	mock.Mock
}

// Generate mocks the Generate method of PepperUseCase.
func (m *MockPepperUseCase) Generate(
	ctx context.Context,
	registryID string,
	alg barrierDomain.Algorithm,
) (*pepperDomain.Pepper, error) {
	args := m.Called(ctx, registryID, alg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pepperDomain.Pepper), args.Error(1)
}

// Rotate mocks the Rotate method of PepperUseCase.
func (m *MockPepperUseCase) Rotate(ctx context.Context, registryID string) (*pepperDomain.Pepper, error) {
	args := m.Called(ctx, registryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pepperDomain.Pepper), args.Error(1)
}

// Load mocks the Load method of PepperUseCase.
func (m *MockPepperUseCase) Load(ctx context.Context, registryID string) (*pepperDomain.Pepper, error) {
	args := m.Called(ctx, registryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pepperDomain.Pepper), args.Error(1)
}

// LoadVersion mocks the LoadVersion method of PepperUseCase.
func (m *MockPepperUseCase) LoadVersion(
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

// ApplyDeterministic mocks the ApplyDeterministic method of PepperUseCase.
func (m *MockPepperUseCase) ApplyDeterministic(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	args := m.Called(pepper, input, nonce, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ApplyNondeterministic mocks the ApplyNondeterministic method of PepperUseCase.
func (m *MockPepperUseCase) ApplyNondeterministic(
	pepper *pepperDomain.Pepper,
	input, aad []byte,
) ([]byte, []byte, error) {
	args := m.Called(pepper, input, aad)
	var peppered, nonce []byte
	if args.Get(0) != nil {
		peppered = args.Get(0).([]byte)
	}
	if args.Get(1) != nil {
		nonce = args.Get(1).([]byte)
	}
	return peppered, nonce, args.Error(2)
}

// Reapply mocks the Reapply method of PepperUseCase.
func (m *MockPepperUseCase) Reapply(
	pepper *pepperDomain.Pepper,
	input, nonce, aad []byte,
) ([]byte, error) {
	args := m.Called(pepper, input, nonce, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DeriveFixedNonce mocks the DeriveFixedNonce method of PepperUseCase.
func (m *MockPepperUseCase) DeriveFixedNonce(pepper *pepperDomain.Pepper) ([]byte, error) {
	args := m.Called(pepper)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DeriveFixedSalt mocks the DeriveFixedSalt method of PepperUseCase.
func (m *MockPepperUseCase) DeriveFixedSalt(pepper *pepperDomain.Pepper) ([]byte, error) {
	args := m.Called(pepper)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
