// Package repository provides persistence for the audit trail.
//
// Audit rows are append-only: records are inserted and read back for
// verification, never updated or deleted. Repositories speak raw SQL through
// database.GetTx so a record written during a key operation joins that
// operation's transaction when one is open.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	"github.com/allisson/barrier/internal/database"

	apperrors "github.com/allisson/barrier/internal/errors"
)

// PostgreSQLAuditRecordRepository implements audit record persistence for
// PostgreSQL databases.
//
// Database schema requirements:
//   - id: UUID PRIMARY KEY
//   - operation: VARCHAR (audited operation name)
//   - subject: VARCHAR (hierarchy layer or pepper registry)
//   - key_version: BIGINT (root key version whose subkey signed the record)
//   - metadata: JSONB NULL (operation details)
//   - signature: BYTEA NULL (HMAC-SHA256 over the canonical record)
//   - created_at: TIMESTAMP
type PostgreSQLAuditRecordRepository struct {
	db *sql.DB
}

// Create inserts a new audit record. Nil metadata is stored as NULL.
func (p *PostgreSQLAuditRecordRepository) Create(
	ctx context.Context,
	record *auditDomain.AuditRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	var metadataJSON []byte
	var err error
	if record.Metadata != nil {
		metadataJSON, err = json.Marshal(record.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record metadata")
		}
	}

	query := `INSERT INTO audit_records (id, operation, subject, key_version, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		string(record.Operation),
		record.Subject,
		record.RootKeyVersion,
		metadataJSON,
		record.Signature,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}

	return nil
}

// List retrieves audit records in chronological order (oldest first) with
// pagination and optional time filtering. createdAtFrom and createdAtTo are
// inclusive; nil means no bound. Chronological order keeps verification
// paging stable: records appended while a replay runs land after the pages
// already read.
func (p *PostgreSQLAuditRecordRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any

	if createdAtFrom != nil {
		args = append(args, *createdAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if createdAtTo != nil {
		args = append(args, *createdAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, operation, subject, key_version, metadata, signature, created_at
			  FROM audit_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*auditDomain.AuditRecord, 0)
	for rows.Next() {
		var record auditDomain.AuditRecord
		var operation string
		var metadataJSON []byte

		err := rows.Scan(
			&record.ID,
			&operation,
			&record.Subject,
			&record.RootKeyVersion,
			&metadataJSON,
			&record.Signature,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}

		record.Operation = auditDomain.Operation(operation)

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit record metadata")
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}

	return records, nil
}

// NewPostgreSQLAuditRecordRepository creates a new PostgreSQL audit record repository instance.
func NewPostgreSQLAuditRecordRepository(db *sql.DB) *PostgreSQLAuditRecordRepository {
	return &PostgreSQLAuditRecordRepository{db: db}
}
