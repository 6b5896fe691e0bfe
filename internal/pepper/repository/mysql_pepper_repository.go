package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/allisson/barrier/internal/database"
	pepperDomain "github.com/allisson/barrier/internal/pepper/domain"

	apperrors "github.com/allisson/barrier/internal/errors"
)

// MySQLPepperRepository implements pepper persistence for MySQL databases.
//
// This repository mirrors PostgreSQLPepperRepository using MySQL placeholder
// style and DATETIME for date fields. Pepper rows carry no UUID columns, so
// no binary marshaling is involved; the composite primary key
// (registry_id, version) provides the same generation idempotency guard.
type MySQLPepperRepository struct {
	db *sql.DB
}

// Create inserts a new pepper version, returning
// pepperDomain.ErrPepperAlreadyExists on a duplicate (registry, version).
func (m *MySQLPepperRepository) Create(ctx context.Context, pepper *pepperDomain.Pepper) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO peppers (registry_id, version, algorithm, envelope, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		pepper.RegistryID,
		pepper.Version,
		pepper.Algorithm,
		pepper.Envelope,
		pepper.CreatedAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return pepperDomain.ErrPepperAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create pepper")
	}

	return nil
}

// GetByRegistryIDAndVersion retrieves the pepper for an exact
// (registry, version) pair, returning pepperDomain.ErrPepperNotFound when
// it does not exist.
func (m *MySQLPepperRepository) GetByRegistryIDAndVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT registry_id, version, algorithm, envelope, created_at
			  FROM peppers
			  WHERE registry_id = ? AND version = ?`

	var pepper pepperDomain.Pepper
	err := querier.QueryRowContext(ctx, query, registryID, version).Scan(
		&pepper.RegistryID,
		&pepper.Version,
		&pepper.Algorithm,
		&pepper.Envelope,
		&pepper.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pepperDomain.ErrPepperNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get pepper by registry and version")
	}

	return &pepper, nil
}

// GetLatestByRegistryID retrieves the highest-version pepper for a registry,
// returning pepperDomain.ErrPepperNotFound when the registry has none.
func (m *MySQLPepperRepository) GetLatestByRegistryID(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT registry_id, version, algorithm, envelope, created_at
			  FROM peppers
			  WHERE registry_id = ?
			  ORDER BY version DESC
			  LIMIT 1`

	var pepper pepperDomain.Pepper
	err := querier.QueryRowContext(ctx, query, registryID).Scan(
		&pepper.RegistryID,
		&pepper.Version,
		&pepper.Algorithm,
		&pepper.Envelope,
		&pepper.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pepperDomain.ErrPepperNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest pepper for registry")
	}

	return &pepper, nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate key violation
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}

// NewMySQLPepperRepository creates a new MySQL pepper repository instance.
func NewMySQLPepperRepository(db *sql.DB) *MySQLPepperRepository {
	return &MySQLPepperRepository{db: db}
}
