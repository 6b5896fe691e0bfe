package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/barrier/internal/audit/domain"
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/testutil"
)

// TestAuditTrailSignature_EndToEnd verifies the signed audit trail: every
// lifecycle operation appends a record, signatures replay cleanly, tampered
// rows are flagged, and the trail stays verifiable across root rotations.
func TestAuditTrailSignature_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbConfigs := []struct {
		name   string
		driver string
		dsn    string
	}{
		{
			name:   "PostgreSQL",
			driver: "postgres",
			dsn:    testutil.GetPostgresTestDSN(),
		},
		{
			name:   "MySQL",
			driver: "mysql",
			dsn:    testutil.GetMySQLTestDSN(),
		},
	}

	for _, dbConfig := range dbConfigs {
		t.Run(dbConfig.name, func(t *testing.T) {
			ctx := context.Background()
			driver := dbConfig.driver // Capture driver for inner test functions

			testCtx := setupIntegrationTest(t, driver, dbConfig.dsn)
			defer cleanupIntegrationTest(t, testCtx)

			// Unsealing appends the trail's first record.
			unsealBarrier(t, testCtx.container)

			barrierUseCase, err := testCtx.container.BarrierUseCase()
			require.NoError(t, err, "failed to get barrier use case")

			pepperUseCase, err := testCtx.container.PepperUseCase()
			require.NoError(t, err, "failed to get pepper use case")

			auditUseCase, err := testCtx.container.AuditUseCase()
			require.NoError(t, err, "failed to get audit use case")

			// tamperRecord rewrites one audit row directly in the database,
			// bypassing the use case, the way an attacker with storage access
			// would.
			tamperRecord := func(t *testing.T, query string, id uuid.UUID) {
				t.Helper()

				var result sql.Result
				var execErr error
				if driver == "postgres" {
					result, execErr = testCtx.db.Exec(query+" WHERE id = $1", id)
				} else {
					// MySQL stores UUID as BINARY(16), need binary representation
					idBinary, marshalErr := id.MarshalBinary()
					require.NoError(t, marshalErr, "failed to marshal UUID")
					result, execErr = testCtx.db.Exec(query+" WHERE id = ?", idBinary)
				}
				require.NoError(t, execErr, "failed to tamper with audit record")

				rowsAffected, _ := result.RowsAffected()
				require.Equal(t, int64(1), rowsAffected, "UPDATE should affect exactly 1 row")
			}

			t.Run("LifecycleOperationsAppendSignedRecords", func(t *testing.T) {
				records, err := auditUseCase.List(ctx, 0, 10, nil, nil)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 1, "unsealing should have appended one record")

				initialize := records[0]
				assert.Equal(t, auditDomain.OperationBarrierInitialize, initialize.Operation)
				assert.Equal(t, "barrier", initialize.Subject)
				assert.Equal(t, uint(1), initialize.RootKeyVersion, "first boot signs under root v1")
				assert.True(t, initialize.Signed(), "record should carry a signature")
				assert.Len(t, initialize.Signature, auditDomain.SignatureSize)
				assert.Nil(t, initialize.Metadata, "initialize records no metadata")

				rotated, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")
				time.Sleep(10 * time.Millisecond) // Ensure distinct timestamps

				pepper, err := pepperUseCase.Generate(ctx, "emails", barrierDomain.AESGCMSIV)
				require.NoError(t, err, "failed to generate pepper")

				records, err = auditUseCase.List(ctx, 0, 10, nil, nil)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 3, "each lifecycle operation should append one record")

				assert.Equal(t, auditDomain.OperationBarrierRotate, records[1].Operation)
				assert.Equal(t, "content", records[1].Subject)
				// JSON metadata numbers read back as float64
				assert.Equal(t, float64(rotated.Version), records[1].Metadata["version"])

				assert.Equal(t, auditDomain.OperationPepperGenerate, records[2].Operation)
				assert.Equal(t, "emails", records[2].Subject)
				assert.Equal(t, float64(pepper.Version), records[2].Metadata["version"])
			})

			t.Run("VerifyBatch_AllValid", func(t *testing.T) {
				startTime := time.Now().UTC()

				_, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")
				time.Sleep(10 * time.Millisecond)

				// A pass that finds nothing stale still leaves an entry.
				count, err := barrierUseCase.Rewrap(ctx, barrierDomain.LayerContent, 5)
				require.NoError(t, err, "failed to rewrap content layer")
				assert.Equal(t, 0, count, "no parent rotation happened, nothing is stale")
				time.Sleep(10 * time.Millisecond)

				_, err = pepperUseCase.Rotate(ctx, "emails")
				require.NoError(t, err, "failed to rotate pepper")

				endTime := time.Now().UTC().Add(1 * time.Second)

				report, err := auditUseCase.VerifyBatch(ctx, startTime, endTime)
				require.NoError(t, err, "batch verification should succeed")

				assert.Equal(t, int64(3), report.TotalChecked, "should check 3 records")
				assert.Equal(t, int64(3), report.SignedCount, "all 3 should be signed")
				assert.Equal(t, int64(3), report.ValidCount, "all 3 should be valid")
				assert.Equal(t, int64(0), report.InvalidCount, "no invalid records")
				assert.Equal(t, int64(0), report.UnsignedCount, "no unsigned records")
				assert.Empty(t, report.InvalidRecords, "no invalid record IDs")
			})

			t.Run("TamperDetection", func(t *testing.T) {
				startTime := time.Now().UTC()

				_, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")

				endTime := time.Now().UTC().Add(1 * time.Second)

				records, err := auditUseCase.List(ctx, 0, 10, &startTime, &endTime)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 1, "expected exactly one record in the window")
				record := records[0]

				tamperRecord(t, "UPDATE audit_records SET subject = 'intermediate'", record.ID)

				report, err := auditUseCase.VerifyBatch(ctx, startTime, endTime)
				require.NoError(t, err, "batch verification should not error")

				assert.Equal(t, int64(1), report.TotalChecked, "should check 1 record")
				assert.Equal(t, int64(1), report.SignedCount, "the record still carries a signature")
				assert.Equal(t, int64(0), report.ValidCount, "the signature no longer verifies")
				assert.Equal(t, int64(1), report.InvalidCount, "the tampered record should be flagged")
				require.Len(t, report.InvalidRecords, 1, "should report 1 invalid record ID")
				assert.Equal(t, record.ID, report.InvalidRecords[0], "invalid record ID should match the tampered row")
			})

			t.Run("TamperedRootVersionDetected", func(t *testing.T) {
				startTime := time.Now().UTC()

				_, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")

				endTime := time.Now().UTC().Add(1 * time.Second)

				records, err := auditUseCase.List(ctx, 0, 10, &startTime, &endTime)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 1, "expected exactly one record in the window")
				record := records[0]

				// The version column selects the verification key, so
				// pointing it at a version that never existed must flag the
				// record, not error the replay.
				tamperRecord(t, "UPDATE audit_records SET key_version = 999", record.ID)

				report, err := auditUseCase.VerifyBatch(ctx, startTime, endTime)
				require.NoError(t, err, "batch verification should not error")

				assert.Equal(t, int64(1), report.TotalChecked, "should check 1 record")
				assert.Equal(t, int64(1), report.InvalidCount, "a nonexistent root version counts as invalid")
				require.Len(t, report.InvalidRecords, 1, "should report 1 invalid record ID")
				assert.Equal(t, record.ID, report.InvalidRecords[0])
			})

			t.Run("UnsignedRecordsCountedSeparately", func(t *testing.T) {
				auditRepo, err := testCtx.container.AuditRecordRepository()
				require.NoError(t, err, "failed to get audit record repository")

				startTime := time.Now().UTC()

				_, err = barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")
				time.Sleep(10 * time.Millisecond)

				// Rows written before signing was deployed have no signature
				// and no root version.
				legacy := &auditDomain.AuditRecord{
					ID:        uuid.Must(uuid.NewV7()),
					Operation: auditDomain.OperationBarrierRotate,
					Subject:   "content",
					CreatedAt: time.Now().UTC(),
				}
				err = auditRepo.Create(ctx, legacy)
				require.NoError(t, err, "failed to create unsigned record")

				endTime := time.Now().UTC().Add(1 * time.Second)

				report, err := auditUseCase.VerifyBatch(ctx, startTime, endTime)
				require.NoError(t, err, "batch verification should succeed")

				assert.Equal(t, int64(2), report.TotalChecked, "should check 2 records")
				assert.Equal(t, int64(1), report.SignedCount, "1 should be signed")
				assert.Equal(t, int64(1), report.UnsignedCount, "1 should be unsigned")
				assert.Equal(t, int64(1), report.ValidCount, "the signed record should be valid")
				assert.Equal(t, int64(0), report.InvalidCount, "unsigned records are not flagged as tampered")

				records, err := auditUseCase.List(ctx, 0, 10, &startTime, &endTime)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 2)
				assert.False(t, records[1].Signed(), "the legacy record should read back unsigned")
			})

			t.Run("SignaturesSurviveRootRotation", func(t *testing.T) {
				startTime := time.Now().UTC()

				_, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")
				time.Sleep(10 * time.Millisecond)

				rootRecord, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerRoot)
				require.NoError(t, err, "failed to rotate root layer")
				assert.Equal(t, uint(2), rootRecord.Version, "rotation should produce root v2")
				time.Sleep(10 * time.Millisecond)

				_, err = barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")

				endTime := time.Now().UTC().Add(1 * time.Second)

				records, err := auditUseCase.List(ctx, 0, 10, &startTime, &endTime)
				require.NoError(t, err, "failed to list audit records")
				require.Len(t, records, 3)

				// The record of the root rotation itself is already signed
				// under the new version.
				assert.Equal(t, uint(1), records[0].RootKeyVersion)
				assert.Equal(t, uint(2), records[1].RootKeyVersion)
				assert.Equal(t, uint(2), records[2].RootKeyVersion)

				report, err := auditUseCase.VerifyBatch(ctx, startTime, endTime)
				require.NoError(t, err, "batch verification should succeed")

				assert.Equal(t, int64(3), report.TotalChecked, "should check 3 records")
				assert.Equal(t, int64(3), report.ValidCount, "records signed under v1 must verify after the rotation")
				assert.Equal(t, int64(0), report.InvalidCount, "no invalid records")
			})
		})
	}
}
