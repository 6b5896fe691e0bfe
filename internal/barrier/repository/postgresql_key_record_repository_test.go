package repository

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/testutil"
)

func newStoredKeyRecord(t *testing.T, layer barrierDomain.Layer, version uint, ref string) *barrierDomain.KeyRecord {
	t.Helper()

	encryptedKey := make([]byte, 48)
	_, err := rand.Read(encryptedKey)
	require.NoError(t, err)

	nonce := make([]byte, 12)
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	return &barrierDomain.KeyRecord{
		ID:             uuid.Must(uuid.NewV7()),
		Layer:          layer,
		Version:        version,
		Algorithm:      barrierDomain.AESGCM,
		EncryptedKey:   encryptedKey,
		Nonce:          nonce,
		WrappingKeyRef: ref,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestNewPostgreSQLKeyRecordRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLKeyRecordRepository{}, repo)
}

func TestPostgreSQLKeyRecordRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	record := newStoredKeyRecord(t, barrierDomain.LayerRoot, 1, barrierDomain.WrappingKeyRefUnseal)
	err := repo.Create(ctx, record)
	require.NoError(t, err)

	// Verify the record was created by reading it back
	var readRecord barrierDomain.KeyRecord
	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records WHERE id = $1`
	err = db.QueryRowContext(ctx, query, record.ID).Scan(
		&readRecord.ID,
		&readRecord.Layer,
		&readRecord.Version,
		&readRecord.Algorithm,
		&readRecord.EncryptedKey,
		&readRecord.Nonce,
		&readRecord.WrappingKeyRef,
		&readRecord.CreatedAt,
	)
	require.NoError(t, err)

	assert.Equal(t, record.ID, readRecord.ID)
	assert.Equal(t, record.Layer, readRecord.Layer)
	assert.Equal(t, record.Version, readRecord.Version)
	assert.Equal(t, record.Algorithm, readRecord.Algorithm)
	assert.Equal(t, record.EncryptedKey, readRecord.EncryptedKey)
	assert.Equal(t, record.Nonce, readRecord.Nonce)
	assert.Equal(t, record.WrappingKeyRef, readRecord.WrappingKeyRef)
	assert.WithinDuration(t, record.CreatedAt, readRecord.CreatedAt, time.Second)
}

func TestPostgreSQLKeyRecordRepository_Create_DuplicateVersion(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	first := newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "parent-a")
	require.NoError(t, repo.Create(ctx, first))

	// Same (layer, version) must violate the unique constraint.
	duplicate := newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "parent-b")
	err := repo.Create(ctx, duplicate)
	assert.Error(t, err)
}

func TestPostgreSQLKeyRecordRepository_GetByLayerAndVersion(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	v1 := newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "parent-a")
	v2 := newStoredKeyRecord(t, barrierDomain.LayerContent, 2, "parent-a")
	require.NoError(t, repo.Create(ctx, v1))
	require.NoError(t, repo.Create(ctx, v2))

	t.Run("returns the exact version", func(t *testing.T) {
		record, err := repo.GetByLayerAndVersion(ctx, barrierDomain.LayerContent, 1)
		require.NoError(t, err)
		assert.Equal(t, v1.ID, record.ID)
		assert.Equal(t, uint(1), record.Version)
	})

	t.Run("unknown version returns ErrKeyNotFound", func(t *testing.T) {
		_, err := repo.GetByLayerAndVersion(ctx, barrierDomain.LayerContent, 9)
		assert.ErrorIs(t, err, barrierDomain.ErrKeyNotFound)
	})

	t.Run("same version in another layer is not found", func(t *testing.T) {
		_, err := repo.GetByLayerAndVersion(ctx, barrierDomain.LayerRoot, 1)
		assert.ErrorIs(t, err, barrierDomain.ErrKeyNotFound)
	})
}

func TestPostgreSQLKeyRecordRepository_GetLatestByLayer(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerRoot, 1, barrierDomain.WrappingKeyRefUnseal)))
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerRoot, 2, barrierDomain.WrappingKeyRefUnseal)))
	v3 := newStoredKeyRecord(t, barrierDomain.LayerRoot, 3, barrierDomain.WrappingKeyRefUnseal)
	require.NoError(t, repo.Create(ctx, v3))

	t.Run("returns the highest version", func(t *testing.T) {
		record, err := repo.GetLatestByLayer(ctx, barrierDomain.LayerRoot)
		require.NoError(t, err)
		assert.Equal(t, v3.ID, record.ID)
		assert.Equal(t, uint(3), record.Version)
	})

	t.Run("empty layer returns ErrKeyNotFound", func(t *testing.T) {
		_, err := repo.GetLatestByLayer(ctx, barrierDomain.LayerIntermediate)
		assert.ErrorIs(t, err, barrierDomain.ErrKeyNotFound)
	})
}

func TestPostgreSQLKeyRecordRepository_ListByLayer(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	// Insert out of order to exercise the ordering clause.
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerContent, 2, "parent-a")))
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "parent-a")))
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerRoot, 1, barrierDomain.WrappingKeyRefUnseal)))

	t.Run("returns all versions ordered ascending", func(t *testing.T) {
		records, err := repo.ListByLayer(ctx, barrierDomain.LayerContent)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, uint(1), records[0].Version)
		assert.Equal(t, uint(2), records[1].Version)
	})

	t.Run("empty layer returns no records", func(t *testing.T) {
		records, err := repo.ListByLayer(ctx, barrierDomain.LayerIntermediate)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestPostgreSQLKeyRecordRepository_ListStaleByLayer(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "old-parent")))
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerContent, 2, "old-parent")))
	require.NoError(t, repo.Create(ctx, newStoredKeyRecord(t, barrierDomain.LayerContent, 3, "current-parent")))

	t.Run("returns records wrapped under other parents", func(t *testing.T) {
		records, err := repo.ListStaleByLayer(ctx, barrierDomain.LayerContent, "current-parent", 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, uint(1), records[0].Version)
		assert.Equal(t, uint(2), records[1].Version)
	})

	t.Run("limit bounds the batch", func(t *testing.T) {
		records, err := repo.ListStaleByLayer(ctx, barrierDomain.LayerContent, "current-parent", 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, uint(1), records[0].Version)
	})

	t.Run("nothing stale returns no records", func(t *testing.T) {
		records, err := repo.ListStaleByLayer(ctx, barrierDomain.LayerContent, "old-parent", 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "current-parent", records[0].WrappingKeyRef)
	})
}

func TestPostgreSQLKeyRecordRepository_UpdateWrapping(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	record := newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "old-parent")
	require.NoError(t, repo.Create(ctx, record))

	t.Run("updates only the wrapping columns", func(t *testing.T) {
		updated := *record
		updated.EncryptedKey = []byte("rewrapped-key-material")
		updated.Nonce = []byte("fresh-nonce!")
		updated.WrappingKeyRef = "new-parent"

		err := repo.UpdateWrapping(ctx, &updated)
		require.NoError(t, err)

		read, err := repo.GetByLayerAndVersion(ctx, barrierDomain.LayerContent, 1)
		require.NoError(t, err)
		assert.Equal(t, record.ID, read.ID)
		assert.Equal(t, []byte("rewrapped-key-material"), read.EncryptedKey)
		assert.Equal(t, []byte("fresh-nonce!"), read.Nonce)
		assert.Equal(t, "new-parent", read.WrappingKeyRef)
		assert.Equal(t, record.Version, read.Version)
		assert.Equal(t, record.Algorithm, read.Algorithm)
	})

	t.Run("unknown record returns ErrKeyNotFound", func(t *testing.T) {
		missing := newStoredKeyRecord(t, barrierDomain.LayerContent, 9, "old-parent")
		err := repo.UpdateWrapping(ctx, missing)
		assert.ErrorIs(t, err, barrierDomain.ErrKeyNotFound)
	})
}

// The sqlmock tests below cover driver failure paths a live database does not
// produce on demand.

func TestPostgreSQLKeyRecordRepository_Create_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO key_records").WillReturnError(assert.AnError)

	repo := NewPostgreSQLKeyRecordRepository(db)
	record := newStoredKeyRecord(t, barrierDomain.LayerRoot, 1, barrierDomain.WrappingKeyRefUnseal)

	err = repo.Create(context.Background(), record)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "failed to create key record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLKeyRecordRepository_GetByLayerAndVersion_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM key_records").WillReturnError(assert.AnError)

	repo := NewPostgreSQLKeyRecordRepository(db)
	_, err = repo.GetByLayerAndVersion(context.Background(), barrierDomain.LayerContent, 1)
	require.Error(t, err)

	// An infrastructure failure must not masquerade as a missing key.
	assert.NotErrorIs(t, err, barrierDomain.ErrKeyNotFound)
	assert.ErrorContains(t, err, "failed to get key record by layer and version")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLKeyRecordRepository_ListByLayer_IterationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"id", "layer", "version", "algorithm", "encrypted_key", "nonce", "wrapping_key_ref", "created_at"}
	rows := sqlmock.NewRows(columns).
		AddRow(uuid.Must(uuid.NewV7()).String(), "content", int64(1), "aes-gcm", []byte("wrapped"), []byte("nonce-bytes!"), "parent-a", time.Now().UTC()).
		AddRow(uuid.Must(uuid.NewV7()).String(), "content", int64(2), "aes-gcm", []byte("wrapped"), []byte("nonce-bytes!"), "parent-a", time.Now().UTC()).
		RowError(1, assert.AnError)
	mock.ExpectQuery("SELECT (.+) FROM key_records").WillReturnRows(rows)

	repo := NewPostgreSQLKeyRecordRepository(db)
	records, err := repo.ListByLayer(context.Background(), barrierDomain.LayerContent)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to iterate key records")
	assert.Nil(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLKeyRecordRepository_UpdateWrapping_RowsAffectedError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE key_records").WillReturnResult(sqlmock.NewErrorResult(assert.AnError))

	repo := NewPostgreSQLKeyRecordRepository(db)
	record := newStoredKeyRecord(t, barrierDomain.LayerContent, 1, "new-parent")

	err = repo.UpdateWrapping(context.Background(), record)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read affected rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
