package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	auditService "github.com/allisson/barrier/internal/audit/service"
	"github.com/allisson/barrier/internal/audit/usecase/mocks"
	apperrors "github.com/allisson/barrier/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAuditRecordRepository is an in-memory AuditRecordRepository. Records
// keep their append order, which is chronological for records written
// through the use case.
type fakeAuditRecordRepository struct {
	mu      sync.Mutex
	records []*auditDomain.AuditRecord
}

func storedRecordCopy(record *auditDomain.AuditRecord) *auditDomain.AuditRecord {
	stored := *record
	return &stored
}

func (f *fakeAuditRecordRepository) Create(ctx context.Context, record *auditDomain.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = append(f.records, storedRecordCopy(record))
	return nil
}

func (f *fakeAuditRecordRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var filtered []*auditDomain.AuditRecord
	for _, record := range f.records {
		if createdAtFrom != nil && record.CreatedAt.Before(*createdAtFrom) {
			continue
		}
		if createdAtTo != nil && record.CreatedAt.After(*createdAtTo) {
			continue
		}
		filtered = append(filtered, record)
	}

	if offset >= len(filtered) {
		return []*auditDomain.AuditRecord{}, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	out := make([]*auditDomain.AuditRecord, 0, len(filtered))
	for _, record := range filtered {
		out = append(out, storedRecordCopy(record))
	}
	return out, nil
}

// mutate alters a stored record in place, simulating direct database
// tampering behind the trail's back.
func (f *fakeAuditRecordRepository) mutate(t *testing.T, id uuid.UUID, fn func(*auditDomain.AuditRecord)) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if record.ID == id {
			fn(record)
			return
		}
	}
	t.Fatalf("no stored audit record %s", id)
}

func (f *fakeAuditRecordRepository) all() []*auditDomain.AuditRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*auditDomain.AuditRecord, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, storedRecordCopy(record))
	}
	return out
}

// fakeSigningKeyProvider hands out per-root-version signing keys the way the
// barrier does, without the key hierarchy behind it.
type fakeSigningKeyProvider struct {
	mu     sync.Mutex
	keys   map[uint][]byte
	active uint
	sealed bool
}

func newFakeSigningKeyProvider(t *testing.T) *fakeSigningKeyProvider {
	t.Helper()

	provider := &fakeSigningKeyProvider{keys: make(map[uint][]byte)}
	provider.rotate(t)
	return provider
}

// rotate installs a fresh signing key as the next active root version.
func (f *fakeSigningKeyProvider) rotate(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	f.active++
	f.keys[f.active] = key
}

// keyFor returns a copy of the signing key for a version, for tests that
// verify signatures by hand.
func (f *fakeSigningKeyProvider) keyFor(t *testing.T, version uint) []byte {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	key, ok := f.keys[version]
	require.True(t, ok, "no signing key for version %d", version)
	return append([]byte(nil), key...)
}

func (f *fakeSigningKeyProvider) DeriveSigningKey(ctx context.Context, info []byte) ([]byte, uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sealed {
		return nil, 0, apperrors.ErrSealed
	}

	// Callers zero the returned key, so hand out a copy.
	return append([]byte(nil), f.keys[f.active]...), f.active, nil
}

func (f *fakeSigningKeyProvider) DeriveSigningKeyForVersion(
	ctx context.Context,
	info []byte,
	version uint,
) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sealed {
		return nil, apperrors.ErrSealed
	}

	key, ok := f.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: root version %d", apperrors.ErrNotFound, version)
	}
	return append([]byte(nil), key...), nil
}

func newTestAuditUseCase(
	repo AuditRecordRepository,
	provider SigningKeyProvider,
) AuditUseCase {
	return NewAuditUseCase(repo, auditService.NewAuditSigner(), provider)
}

// fullRange returns time bounds that cover every record a test just wrote.
func fullRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

// TestAuditUseCase_Record tests the Record method of auditUseCase.
func TestAuditUseCase_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AppendsSignedRecord", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		err := uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", map[string]any{"version": 2})
		require.NoError(t, err)

		records := repo.all()
		require.Len(t, records, 1)

		record := records[0]
		assert.Equal(t, auditDomain.OperationBarrierRotate, record.Operation)
		assert.Equal(t, "content", record.Subject)
		assert.Equal(t, uint(1), record.RootKeyVersion)
		assert.Equal(t, map[string]any{"version": 2}, record.Metadata)
		assert.True(t, record.Signed())
		assert.False(t, record.CreatedAt.IsZero())

		// The stored signature verifies under the version-1 signing key.
		signer := auditService.NewAuditSigner()
		assert.NoError(t, signer.Verify(provider.keyFor(t, 1), record))
	})

	t.Run("Success_RecordsActiveRootVersion", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		provider.rotate(t)
		require.NoError(t, uc.Record(ctx, auditDomain.OperationPepperRotate, "emails", nil))

		records := repo.all()
		require.Len(t, records, 1)
		assert.Equal(t, uint(2), records[0].RootKeyVersion)
	})

	t.Run("Success_NilMetadata", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierInitialize, "barrier", nil))

		records := repo.all()
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Metadata)
		assert.True(t, records[0].Signed())
	})

	t.Run("Error_UnknownOperation", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		uc := newTestAuditUseCase(repo, newFakeSigningKeyProvider(t))

		err := uc.Record(ctx, auditDomain.Operation("barrier_open"), "barrier", nil)
		assert.ErrorIs(t, err, auditDomain.ErrUnknownOperation)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		assert.Empty(t, repo.all())
	})

	t.Run("Error_SealedBarrier", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		provider.sealed = true
		uc := newTestAuditUseCase(repo, provider)

		err := uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrSealed))
		assert.Empty(t, repo.all())
	})

	t.Run("Error_PersistenceFailure", func(t *testing.T) {
		expectedError := errors.New("database error")

		mockRepo := new(mocks.MockAuditRecordRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(expectedError).Once()

		uc := newTestAuditUseCase(mockRepo, newFakeSigningKeyProvider(t))

		err := uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil)
		assert.ErrorIs(t, err, expectedError)
		mockRepo.AssertExpectations(t)
	})
}

// TestAuditUseCase_List tests the List method of auditUseCase.
func TestAuditUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PassesBoundsThrough", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))
		require.NoError(t, uc.Record(ctx, auditDomain.OperationPepperGenerate, "emails", nil))

		from, to := fullRange()
		records, err := uc.List(ctx, 0, 10, &from, &to)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, auditDomain.OperationBarrierRotate, records[0].Operation)
		assert.Equal(t, auditDomain.OperationPepperGenerate, records[1].Operation)

		// A range in the past matches nothing.
		pastFrom := from.Add(-2 * time.Hour)
		pastTo := from.Add(-time.Hour)
		records, err = uc.List(ctx, 0, 10, &pastFrom, &pastTo)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		expectedError := errors.New("database error")

		mockRepo := new(mocks.MockAuditRecordRepository)
		mockRepo.On("List", mock.Anything, 0, 10, mock.Anything, mock.Anything).
			Return(nil, expectedError).
			Once()

		uc := newTestAuditUseCase(mockRepo, newFakeSigningKeyProvider(t))

		records, err := uc.List(ctx, 0, 10, nil, nil)
		assert.ErrorIs(t, err, expectedError)
		assert.Nil(t, records)
		mockRepo.AssertExpectations(t)
	})
}

// TestAuditUseCase_VerifyBatch tests the VerifyBatch method of auditUseCase.
func TestAuditUseCase_VerifyBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AllRecordsVerify", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierInitialize, "barrier", nil))
		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", map[string]any{"version": 2}))
		require.NoError(t, uc.Record(ctx, auditDomain.OperationPepperGenerate, "emails", map[string]any{"version": 1}))

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(3), report.TotalChecked)
		assert.Equal(t, int64(3), report.SignedCount)
		assert.Equal(t, int64(3), report.ValidCount)
		assert.Equal(t, int64(0), report.InvalidCount)
		assert.Equal(t, int64(0), report.UnsignedCount)
		assert.Empty(t, report.InvalidRecords)
	})

	t.Run("Success_SurvivesRootRotation", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))
		provider.rotate(t)
		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "root", nil))

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.ValidCount)
		assert.Equal(t, int64(0), report.InvalidCount)
	})

	t.Run("Success_FlagsTamperedSubject", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))
		require.NoError(t, uc.Record(ctx, auditDomain.OperationPepperRotate, "emails", nil))

		tampered := repo.all()[0].ID
		repo.mutate(t, tampered, func(record *auditDomain.AuditRecord) {
			record.Subject = "root"
		})

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.TotalChecked)
		assert.Equal(t, int64(1), report.ValidCount)
		assert.Equal(t, int64(1), report.InvalidCount)
		assert.Equal(t, []uuid.UUID{tampered}, report.InvalidRecords)
	})

	t.Run("Success_FlagsUnknownRootVersionAsInvalid", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))

		tampered := repo.all()[0].ID
		repo.mutate(t, tampered, func(record *auditDomain.AuditRecord) {
			record.RootKeyVersion = 99
		})

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(1), report.InvalidCount)
		assert.Equal(t, []uuid.UUID{tampered}, report.InvalidRecords)
	})

	t.Run("Success_CountsUnsignedSeparately", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		// A row written before signing was deployed.
		require.NoError(t, repo.Create(ctx, &auditDomain.AuditRecord{
			ID:        uuid.Must(uuid.NewV7()),
			Operation: auditDomain.OperationBarrierInitialize,
			Subject:   "barrier",
			CreatedAt: time.Now().UTC(),
		}))
		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(2), report.TotalChecked)
		assert.Equal(t, int64(1), report.UnsignedCount)
		assert.Equal(t, int64(1), report.SignedCount)
		assert.Equal(t, int64(1), report.ValidCount)
		assert.Equal(t, int64(0), report.InvalidCount)
	})

	t.Run("Success_PagesThroughLargeTrail", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		total := verifyBatchSize + 3
		for i := 0; i < total; i++ {
			require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRewrap, "content", nil))
		}

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(total), report.TotalChecked)
		assert.Equal(t, int64(total), report.ValidCount)
	})

	t.Run("Success_EmptyRange", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		uc := newTestAuditUseCase(repo, newFakeSigningKeyProvider(t))

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		require.NoError(t, err)

		assert.Equal(t, int64(0), report.TotalChecked)
	})

	t.Run("Error_SealedBarrier", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		provider := newFakeSigningKeyProvider(t)
		uc := newTestAuditUseCase(repo, provider)

		require.NoError(t, uc.Record(ctx, auditDomain.OperationBarrierRotate, "content", nil))
		provider.sealed = true

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		assert.True(t, apperrors.Is(err, apperrors.ErrSealed))
		assert.Nil(t, report)
	})

	t.Run("Error_ContextCanceled", func(t *testing.T) {
		repo := &fakeAuditRecordRepository{}
		uc := newTestAuditUseCase(repo, newFakeSigningKeyProvider(t))

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		from, to := fullRange()
		report, err := uc.VerifyBatch(canceled, from, to)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, report)
	})

	t.Run("Error_ListFailure", func(t *testing.T) {
		expectedError := errors.New("database error")

		mockRepo := new(mocks.MockAuditRecordRepository)
		mockRepo.On("List", mock.Anything, 0, verifyBatchSize, mock.Anything, mock.Anything).
			Return(nil, expectedError).
			Once()

		uc := newTestAuditUseCase(mockRepo, newFakeSigningKeyProvider(t))

		from, to := fullRange()
		report, err := uc.VerifyBatch(ctx, from, to)
		assert.ErrorIs(t, err, expectedError)
		assert.Nil(t, report)
		mockRepo.AssertExpectations(t)
	})
}
