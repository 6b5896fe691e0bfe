package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	"github.com/allisson/barrier/internal/database"

	apperrors "github.com/allisson/barrier/internal/errors"
)

// MySQLAuditRecordRepository implements audit record persistence for MySQL
// databases. UUIDs are stored as BINARY(16) and metadata as JSON.
type MySQLAuditRecordRepository struct {
	db *sql.DB
}

// Create inserts a new audit record. Nil metadata is stored as NULL.
func (m *MySQLAuditRecordRepository) Create(
	ctx context.Context,
	record *auditDomain.AuditRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit record id")
	}

	var metadataJSON []byte
	if record.Metadata != nil {
		metadataJSON, err = json.Marshal(record.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit record metadata")
		}
	}

	query := `INSERT INTO audit_records (id, operation, subject, key_version, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
// pagination and optional inclusive time filtering; nil means no bound.
func (m *MySQLAuditRecordRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *createdAtFrom)
	}
	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *createdAtTo)
	}

	query := `SELECT id, operation, subject, key_version, metadata, signature, created_at
			  FROM audit_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

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
		var id []byte
		var operation string
		var metadataJSON []byte

		err := rows.Scan(
			&id,
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

		if err := record.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit record id")
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

// NewMySQLAuditRecordRepository creates a new MySQL audit record repository instance.
func NewMySQLAuditRecordRepository(db *sql.DB) *MySQLAuditRecordRepository {
	return &MySQLAuditRecordRepository{db: db}
}
