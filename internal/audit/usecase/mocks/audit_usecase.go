// Package mocks provides mock implementations for testing audit use cases.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
)

// MockAuditUseCase is a mock implementation of AuditUseCase for testing.
type MockAuditUseCase struct {
	mock.Mock
}

// Record mocks the Record method of AuditUseCase.
func (m *MockAuditUseCase) Record(
	ctx context.Context,
	operation auditDomain.Operation,
	subject string,
	metadata map[string]any,
) error {
	args := m.Called(ctx, operation, subject, metadata)
	return args.Error(0)
}

// List mocks the List method of AuditUseCase.
func (m *MockAuditUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditRecord, error) {
	args := m.Called(ctx, offset, limit, createdAtFrom, createdAtTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditRecord), args.Error(1)
}

// VerifyBatch mocks the VerifyBatch method of AuditUseCase.
func (m *MockAuditUseCase) VerifyBatch(
	ctx context.Context,
	createdAtFrom, createdAtTo time.Time,
) (*auditDomain.VerificationReport, error) {
	args := m.Called(ctx, createdAtFrom, createdAtTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.VerificationReport), args.Error(1)
}
