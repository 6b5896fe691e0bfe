// Package repository provides persistence for barrier key records.
//
// Repositories speak raw SQL through database.GetTx so they join any open
// transaction, with PostgreSQL and MySQL variants differing only in
// placeholder style and UUID storage.
package repository

import (
	"context"
	"database/sql"
	"errors"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/database"
	apperrors "github.com/allisson/barrier/internal/errors"
)

// PostgreSQLKeyRecordRepository implements key record persistence for PostgreSQL databases.
//
// Key records are the wrapped form of the hierarchy: each row holds one
// version of one layer, encrypted under its parent key. Rows are append-only;
// rotation inserts new versions and rewrap updates only the wrapping columns.
// Clear key material never reaches this repository.
//
// Database schema requirements:
//   - id: UUID PRIMARY KEY
//   - layer: VARCHAR (root, intermediate, content)
//   - version: INTEGER (unique together with layer)
//   - algorithm: VARCHAR (AEAD algorithm name)
//   - encrypted_key: BYTEA (key material wrapped by the parent key)
//   - nonce: BYTEA (nonce used when wrapping)
//   - wrapping_key_ref: VARCHAR (parent record ID, or "unseal" for root records)
//   - created_at: TIMESTAMP
//   - UNIQUE constraint on (layer, version)
//
// Transaction support:
//
//	The repository automatically detects transaction context using database.GetTx().
//	All methods work both within and outside of transactions seamlessly.
//
// Example usage:
//
//	repo := NewPostgreSQLKeyRecordRepository(db)
//
//	// Create a key record outside a transaction
//	err := repo.Create(ctx, record)
//
//	// Or within a transaction (first boot creates all three layers atomically)
//	err = txManager.WithTx(ctx, func(txCtx context.Context) error {
//	    if err := repo.Create(txCtx, rootRecord); err != nil {
//	        return err
//	    }
//	    return repo.Create(txCtx, intermediateRecord)
//	})
type PostgreSQLKeyRecordRepository struct {
	db *sql.DB
}

// Create inserts a new key record into the PostgreSQL database.
//
// Only the wrapped form is persisted; the record's clear Key field is
// ignored. This method supports transaction context via database.GetTx(),
// which Initialize relies on to create the three layers all-or-nothing.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - record: The key record to insert (wrapped fields populated)
//
// Returns:
//   - An error if the insert fails (including unique violations on (layer, version))
//
// Example:
//
//	record := &barrierDomain.KeyRecord{
//	    ID:             uuid.Must(uuid.NewV7()),
//	    Layer:          barrierDomain.LayerRoot,
//	    Version:        1,
//	    Algorithm:      barrierDomain.AESGCM,
//	    EncryptedKey:   wrapped,
//	    Nonce:          nonce,
//	    WrappingKeyRef: barrierDomain.WrappingKeyRefUnseal,
//	    CreatedAt:      time.Now().UTC(),
//	}
//	err := repo.Create(ctx, record)
func (p *PostgreSQLKeyRecordRepository) Create(ctx context.Context, record *barrierDomain.KeyRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO key_records (id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.Layer,
		record.Version,
		record.Algorithm,
		record.EncryptedKey,
		record.Nonce,
		record.WrappingKeyRef,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create key record")
	}

	return nil
}

// GetByLayerAndVersion retrieves the key record for an exact (layer, version) pair.
//
// Decryption resolves keys through this exact lookup: a ciphertext envelope
// names the version that encrypted it, and no other version is ever tried.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - layer: The hierarchy layer
//   - version: The exact version to fetch
//
// Returns:
//   - A pointer to the key record (clear Key field nil)
//   - barrierDomain.ErrKeyNotFound if no matching record exists
//   - An error if the query fails
//
// Example:
//
//	record, err := repo.GetByLayerAndVersion(ctx, barrierDomain.LayerContent, 2)
//	if errors.Is(err, barrierDomain.ErrKeyNotFound) {
//	    // Version was never created
//	}
func (p *PostgreSQLKeyRecordRepository) GetByLayerAndVersion(
	ctx context.Context,
	layer barrierDomain.Layer,
	version uint,
) (*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = $1 AND version = $2`

	var record barrierDomain.KeyRecord
	err := querier.QueryRowContext(ctx, query, layer, version).Scan(
		&record.ID,
		&record.Layer,
		&record.Version,
		&record.Algorithm,
		&record.EncryptedKey,
		&record.Nonce,
		&record.WrappingKeyRef,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, barrierDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key record by layer and version")
	}

	return &record, nil
}

// GetLatestByLayer retrieves the highest-version key record for a layer.
//
// The highest version is the layer's active key: new encryptions and new
// child wrappings always use it.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - layer: The hierarchy layer
//
// Returns:
//   - A pointer to the key record with the highest version number
//   - barrierDomain.ErrKeyNotFound if the layer has no records
//   - An error if the query fails
func (p *PostgreSQLKeyRecordRepository) GetLatestByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = $1
			  ORDER BY version DESC
			  LIMIT 1`

	var record barrierDomain.KeyRecord
	err := querier.QueryRowContext(ctx, query, layer).Scan(
		&record.ID,
		&record.Layer,
		&record.Version,
		&record.Algorithm,
		&record.EncryptedKey,
		&record.Nonce,
		&record.WrappingKeyRef,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, barrierDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest key record for layer")
	}

	return &record, nil
}

// ListByLayer retrieves every version of a layer ordered by version ascending.
//
// Initialization unwraps the full history of each layer through this method
// so historical versions stay available for decryption.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - layer: The hierarchy layer
//
// Returns:
//   - All key records of the layer, oldest version first (empty slice when none)
//   - An error if the query fails
func (p *PostgreSQLKeyRecordRepository) ListByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) ([]*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = $1
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, layer)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key records for layer")
	}
	defer func() { _ = rows.Close() }()

	var records []*barrierDomain.KeyRecord
	for rows.Next() {
		var record barrierDomain.KeyRecord
		err := rows.Scan(
			&record.ID,
			&record.Layer,
			&record.Version,
			&record.Algorithm,
			&record.EncryptedKey,
			&record.Nonce,
			&record.WrappingKeyRef,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key records")
	}

	return records, nil
}

// ListStaleByLayer retrieves up to limit records of a layer whose wrapping
// reference differs from currentRef.
//
// This is the work queue for the rewrap maintenance pass: after rotating a
// parent layer, children still wrapped under older parents are "stale" until
// a rewrap moves them to the current one.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - layer: The hierarchy layer to scan
//   - currentRef: The wrapping reference records should have (current parent ID)
//   - limit: Maximum number of records to return
//
// Returns:
//   - Stale key records, oldest version first (empty slice when none)
//   - An error if the query fails
func (p *PostgreSQLKeyRecordRepository) ListStaleByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
	currentRef string,
	limit int,
) ([]*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = $1 AND wrapping_key_ref != $2
			  ORDER BY version ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, layer, currentRef, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stale key records")
	}
	defer func() { _ = rows.Close() }()

	var records []*barrierDomain.KeyRecord
	for rows.Next() {
		var record barrierDomain.KeyRecord
		err := rows.Scan(
			&record.ID,
			&record.Layer,
			&record.Version,
			&record.Algorithm,
			&record.EncryptedKey,
			&record.Nonce,
			&record.WrappingKeyRef,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key records")
	}

	return records, nil
}

// UpdateWrapping replaces a record's wrapped key, nonce, and wrapping reference.
//
// Only the wrapping columns change; the record's identity (layer, version,
// algorithm) is immutable after creation. Used by the rewrap pass after
// RewrapKeyRecord produces the new wrapped form.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - record: The key record carrying the new EncryptedKey, Nonce, and WrappingKeyRef
//
// Returns:
//   - barrierDomain.ErrKeyNotFound if the record does not exist
//   - An error if the update fails
func (p *PostgreSQLKeyRecordRepository) UpdateWrapping(
	ctx context.Context,
	record *barrierDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE key_records
			  SET encrypted_key = $1, nonce = $2, wrapping_key_ref = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		record.EncryptedKey,
		record.Nonce,
		record.WrappingKeyRef,
		record.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key record wrapping")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return barrierDomain.ErrKeyNotFound
	}

	return nil
}

// NewPostgreSQLKeyRecordRepository creates a new PostgreSQL key record repository instance.
//
// Parameters:
//   - db: A PostgreSQL database connection
//
// Returns:
//   - A new PostgreSQLKeyRecordRepository ready for use
//
// Example:
//
//	db, err := sql.Open("postgres", dsn)
//	if err != nil {
//	    return nil, err
//	}
//	repo := NewPostgreSQLKeyRecordRepository(db)
func NewPostgreSQLKeyRecordRepository(db *sql.DB) *PostgreSQLKeyRecordRepository {
	return &PostgreSQLKeyRecordRepository{db: db}
}
