// Package mocks provides mock implementations for testing barrier use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// MockKeyRecordRepository is a mock implementation of KeyRecordRepository for testing.
type MockKeyRecordRepository struct {
	mock.Mock
}

// Create mocks the Create method of KeyRecordRepository.
func (m *MockKeyRecordRepository) Create(ctx context.Context, record *barrierDomain.KeyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// GetByLayerAndVersion mocks the GetByLayerAndVersion method of KeyRecordRepository.
func (m *MockKeyRecordRepository) GetByLayerAndVersion(
	ctx context.Context,
	layer barrierDomain.Layer,
	version uint,
) (*barrierDomain.KeyRecord, error) {
	args := m.Called(ctx, layer, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barrierDomain.KeyRecord), args.Error(1)
}

// GetLatestByLayer mocks the GetLatestByLayer method of KeyRecordRepository.
func (m *MockKeyRecordRepository) GetLatestByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*barrierDomain.KeyRecord), args.Error(1)
}

// ListByLayer mocks the ListByLayer method of KeyRecordRepository.
func (m *MockKeyRecordRepository) ListByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) ([]*barrierDomain.KeyRecord, error) {
	args := m.Called(ctx, layer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*barrierDomain.KeyRecord), args.Error(1)
}

// ListStaleByLayer mocks the ListStaleByLayer method of KeyRecordRepository.
func (m *MockKeyRecordRepository) ListStaleByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
	currentRef string,
	limit int,
) ([]*barrierDomain.KeyRecord, error) {
	args := m.Called(ctx, layer, currentRef, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*barrierDomain.KeyRecord), args.Error(1)
}

// UpdateWrapping mocks the UpdateWrapping method of KeyRecordRepository.
func (m *MockKeyRecordRepository) UpdateWrapping(
	ctx context.Context,
	record *barrierDomain.KeyRecord,
) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
