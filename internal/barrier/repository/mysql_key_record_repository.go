package repository

import (
	"context"
	"database/sql"
	"errors"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/database"
	apperrors "github.com/allisson/barrier/internal/errors"
)

// MySQLKeyRecordRepository implements key record persistence for MySQL databases.
//
// This repository mirrors PostgreSQLKeyRecordRepository using MySQL's
// BINARY(16) for UUID storage and DATETIME for date fields. UUIDs are
// marshaled/unmarshaled to/from binary format using uuid.MarshalBinary() and
// uuid.UnmarshalBinary(). It supports transaction-aware operations via
// database.GetTx().
//
// Database schema requirements:
//   - id: BINARY(16) PRIMARY KEY (UUID in binary format)
//   - layer: VARCHAR (root, intermediate, content)
//   - version: INTEGER (unique together with layer)
//   - algorithm: VARCHAR (AEAD algorithm name)
//   - encrypted_key: VARBINARY/BLOB (key material wrapped by the parent key)
//   - nonce: VARBINARY (nonce used when wrapping)
//   - wrapping_key_ref: VARCHAR (parent record ID, or "unseal" for root records)
//   - created_at: DATETIME/TIMESTAMP
//   - UNIQUE KEY on (layer, version)
//
// UUID handling:
//
//	MySQL doesn't have a native UUID type, so UUIDs are stored as BINARY(16).
//	The wrapping_key_ref column stays VARCHAR: it holds either a parent UUID
//	in string form or the literal "unseal", and is compared, never joined.
type MySQLKeyRecordRepository struct {
	db *sql.DB
}

// Create inserts a new key record into the MySQL database.
// The record's ID is marshaled to BINARY(16); the clear Key field is ignored.
func (m *MySQLKeyRecordRepository) Create(ctx context.Context, record *barrierDomain.KeyRecord) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO key_records (id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key record id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

// GetByLayerAndVersion retrieves the key record for an exact (layer, version)
// pair, returning barrierDomain.ErrKeyNotFound when it does not exist.
func (m *MySQLKeyRecordRepository) GetByLayerAndVersion(
	ctx context.Context,
	layer barrierDomain.Layer,
	version uint,
) (*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = ? AND version = ?`

	return m.scanRecord(querier.QueryRowContext(ctx, query, layer, version), "failed to get key record by layer and version")
}

// GetLatestByLayer retrieves the highest-version (active) key record for a
// layer, returning barrierDomain.ErrKeyNotFound when the layer is empty.
func (m *MySQLKeyRecordRepository) GetLatestByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) (*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = ?
			  ORDER BY version DESC
			  LIMIT 1`

	return m.scanRecord(querier.QueryRowContext(ctx, query, layer), "failed to get latest key record for layer")
}

// ListByLayer retrieves every version of a layer ordered by version ascending.
func (m *MySQLKeyRecordRepository) ListByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
) ([]*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = ?
			  ORDER BY version ASC`

	rows, err := querier.QueryContext(ctx, query, layer)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key records for layer")
	}
	defer func() { _ = rows.Close() }()

	return m.scanRecords(rows)
}

// ListStaleByLayer retrieves up to limit records of a layer whose wrapping
// reference differs from currentRef (the rewrap work queue).
func (m *MySQLKeyRecordRepository) ListStaleByLayer(
	ctx context.Context,
	layer barrierDomain.Layer,
	currentRef string,
	limit int,
) ([]*barrierDomain.KeyRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, layer, version, algorithm, encrypted_key, nonce, wrapping_key_ref, created_at
			  FROM key_records
			  WHERE layer = ? AND wrapping_key_ref != ?
			  ORDER BY version ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, layer, currentRef, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list stale key records")
	}
	defer func() { _ = rows.Close() }()

	return m.scanRecords(rows)
}

// UpdateWrapping replaces a record's wrapped key, nonce, and wrapping
// reference. Only the wrapping columns change.
func (m *MySQLKeyRecordRepository) UpdateWrapping(
	ctx context.Context,
	record *barrierDomain.KeyRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE key_records
			  SET encrypted_key = ?, nonce = ?, wrapping_key_ref = ?
			  WHERE id = ?`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key record id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		record.EncryptedKey,
		record.Nonce,
		record.WrappingKeyRef,
		id,
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

// scanRecord scans a single row, mapping sql.ErrNoRows to ErrKeyNotFound and
// unmarshaling the BINARY(16) id.
func (m *MySQLKeyRecordRepository) scanRecord(row *sql.Row, failMessage string) (*barrierDomain.KeyRecord, error) {
	var record barrierDomain.KeyRecord
	var id []byte

	err := row.Scan(
		&id,
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
		return nil, apperrors.Wrap(err, failMessage)
	}

	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal key record id")
	}

	return &record, nil
}

// scanRecords drains a multi-row result set.
func (m *MySQLKeyRecordRepository) scanRecords(rows *sql.Rows) ([]*barrierDomain.KeyRecord, error) {
	var records []*barrierDomain.KeyRecord

	for rows.Next() {
		var record barrierDomain.KeyRecord
		var id []byte

		err := rows.Scan(
			&id,
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

		if err := record.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal key record id")
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key records")
	}

	return records, nil
}

// NewMySQLKeyRecordRepository creates a new MySQL key record repository instance.
//
// Parameters:
//   - db: A MySQL database connection
//
// Returns:
//   - A new MySQLKeyRecordRepository ready for use
func NewMySQLKeyRecordRepository(db *sql.DB) *MySQLKeyRecordRepository {
	return &MySQLKeyRecordRepository{db: db}
}
