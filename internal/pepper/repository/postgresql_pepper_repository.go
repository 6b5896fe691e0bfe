// Package repository provides persistence for pepper registries.
//
// Pepper rows hold only the sealed form of the key: a barrier ciphertext
// envelope string. Repositories speak raw SQL through database.GetTx so they
// join any open transaction.
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

// PostgreSQLPepperRepository implements pepper persistence for PostgreSQL databases.
//
// Database schema requirements:
//   - registry_id: VARCHAR (lowercase registry identifier)
//   - version: INTEGER (starting at 1)
//   - algorithm: VARCHAR (aes-gcm-siv or aes-gcm)
//   - envelope: TEXT (barrier ciphertext envelope wrapping the pepper key)
//   - created_at: TIMESTAMP
//   - PRIMARY KEY (registry_id, version)
//
// The primary key doubles as the idempotency guard for pepper generation:
// two processes racing to create the same registry cannot both insert
// version 1.
type PostgreSQLPepperRepository struct {
	db *sql.DB
}

// Create inserts a new pepper version.
//
// Only the sealed envelope is persisted; the pepper's clear Key field is
// ignored. Returns pepperDomain.ErrPepperAlreadyExists when the
// (registry_id, version) pair already exists.
//
// Parameters:
//   - ctx: Context for cancellation, timeouts, and transaction propagation
//   - pepper: The pepper to insert (Envelope populated, Key ignored)
//
// Returns:
//   - pepperDomain.ErrPepperAlreadyExists on a duplicate (registry, version)
//   - An error if the insert fails
func (p *PostgreSQLPepperRepository) Create(ctx context.Context, pepper *pepperDomain.Pepper) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO peppers (registry_id, version, algorithm, envelope, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

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
		if isPostgreSQLUniqueViolation(err) {
			return pepperDomain.ErrPepperAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create pepper")
	}

	return nil
}

// GetByRegistryIDAndVersion retrieves the pepper for an exact
// (registry, version) pair.
//
// Validation resolves peppers through this exact lookup: an encoded hash
// names the version that peppered it, and no other version is ever tried.
// Returns pepperDomain.ErrPepperNotFound when the pair does not exist.
func (p *PostgreSQLPepperRepository) GetByRegistryIDAndVersion(
	ctx context.Context,
	registryID string,
	version uint,
) (*pepperDomain.Pepper, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT registry_id, version, algorithm, envelope, created_at
			  FROM peppers
			  WHERE registry_id = $1 AND version = $2`

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

// GetLatestByRegistryID retrieves the highest-version pepper for a registry.
//
// The highest version is the registry's active pepper: new hashes always
// use it. Returns pepperDomain.ErrPepperNotFound when the registry has no
// peppers.
func (p *PostgreSQLPepperRepository) GetLatestByRegistryID(
	ctx context.Context,
	registryID string,
) (*pepperDomain.Pepper, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT registry_id, version, algorithm, envelope, created_at
			  FROM peppers
			  WHERE registry_id = $1
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

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}

// NewPostgreSQLPepperRepository creates a new PostgreSQL pepper repository instance.
func NewPostgreSQLPepperRepository(db *sql.DB) *PostgreSQLPepperRepository {
	return &PostgreSQLPepperRepository{db: db}
}
