// Package integration provides end-to-end integration tests for the key
// barrier, pepper registries, peppered hashing, and the audit trail.
// Tests run against both PostgreSQL and MySQL databases.
package integration

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/barrier/internal/app"
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	"github.com/allisson/barrier/internal/config"
	apperrors "github.com/allisson/barrier/internal/errors"
	"github.com/allisson/barrier/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	cfg       *config.Config
	driver    string
}

// generateUnsealKey creates a base64-encoded 32-byte unseal key for testing.
func generateUnsealKey(t *testing.T) string {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err, "failed to generate unseal key")
	return base64.StdEncoding.EncodeToString(key)
}

// newTestConfig builds a configuration pointing at the test database with
// simple-mode unsealing and metrics disabled.
func newTestConfig(driver, dsn, unsealKey string) *config.Config {
	return &config.Config{
		DBDriver:             driver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		LogLevel:             "error",
		UnsealMode:           "simple",
		UnsealKey:            unsealKey,
		RootKDFHash:          "sha256",
		BarrierAlgorithm:     "aes-gcm",
		PBKDF2Iterations:     600000,
		HighEntropyMinBits:   256,
		MetricsEnabled:       false,
	}
}

// setupIntegrationTest initializes the test database and a DI container.
// The barrier starts sealed; tests unseal it through unsealBarrier.
func setupIntegrationTest(t *testing.T, driver, dsn string) *integrationTestContext {
	t.Helper()

	var db *sql.DB
	if driver == "postgres" {
		db = testutil.SetupPostgresDB(t)
	} else {
		db = testutil.SetupMySQLDB(t)
	}

	cfg := newTestConfig(driver, dsn, generateUnsealKey(t))
	container := app.NewContainer(cfg)

	return &integrationTestContext{
		container: container,
		db:        db,
		cfg:       cfg,
		driver:    driver,
	}
}

// cleanupIntegrationTest closes container and database resources.
func cleanupIntegrationTest(t *testing.T, testCtx *integrationTestContext) {
	t.Helper()

	if err := testCtx.container.Shutdown(context.Background()); err != nil {
		t.Logf("Warning: failed to shutdown container: %v", err)
	}

	if err := testCtx.db.Close(); err != nil {
		t.Logf("Warning: failed to close database: %v", err)
	}
}

// unsealBarrier obtains unseal material from the container's provider and
// initializes the barrier with it.
func unsealBarrier(t *testing.T, container *app.Container) {
	t.Helper()

	provider, err := container.UnsealProvider()
	require.NoError(t, err, "failed to get unseal provider")

	material, err := provider.Obtain(context.Background())
	require.NoError(t, err, "failed to obtain unseal material")
	defer material.Zero()

	barrierUseCase, err := container.BarrierUseCase()
	require.NoError(t, err, "failed to get barrier use case")

	err = barrierUseCase.Initialize(context.Background(), material)
	require.NoError(t, err, "failed to initialize the barrier")
}

// TestBarrierLifecycle_EndToEnd exercises the full key hierarchy lifecycle:
// unsealing, envelope round trips, lazy rotation with rewrap migration, and
// reopening the hierarchy from storage in a fresh process.
func TestBarrierLifecycle_EndToEnd(t *testing.T) {
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

			testCtx := setupIntegrationTest(t, dbConfig.driver, dbConfig.dsn)
			defer cleanupIntegrationTest(t, testCtx)

			barrierUseCase, err := testCtx.container.BarrierUseCase()
			require.NoError(t, err, "failed to get barrier use case")

			plaintext := []byte("credential payload for round trips")
			aad := []byte("tenant-42")

			// Encrypted under content v1 in the first round trip; later
			// subtests keep decrypting it after rotations, rewraps, and a
			// reopen to prove old versions stay resolvable.
			var staleEnvelope *barrierDomain.CiphertextEnvelope

			t.Run("SealedBeforeUnseal", func(t *testing.T) {
				_, err := barrierUseCase.Encrypt(ctx, plaintext, aad)
				require.Error(t, err, "encrypt should fail before the barrier is unsealed")
				assert.ErrorIs(t, err, apperrors.ErrSealed, "error should match ErrSealed")

				_, err = barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.Error(t, err, "rotate should fail before the barrier is unsealed")
				assert.ErrorIs(t, err, apperrors.ErrSealed, "error should match ErrSealed")
			})

			t.Run("UnsealAndEncryptDecrypt", func(t *testing.T) {
				unsealBarrier(t, testCtx.container)

				envelope, err := barrierUseCase.Encrypt(ctx, plaintext, aad)
				require.NoError(t, err, "failed to encrypt")

				assert.Equal(t, uint(1), envelope.KeyVersion, "first boot should encrypt under content v1")
				assert.NotEmpty(t, envelope.Nonce, "envelope should carry a nonce")
				assert.NotEmpty(t, envelope.Ciphertext, "envelope should carry ciphertext")
				assert.NotEqual(t, plaintext, envelope.Ciphertext, "ciphertext should differ from plaintext")

				decrypted, err := barrierUseCase.Decrypt(ctx, envelope)
				require.NoError(t, err, "failed to decrypt")
				assert.Equal(t, plaintext, decrypted, "decrypted plaintext should match original")

				// The string form is the persisted shape; it must survive a
				// parse round trip and still decrypt.
				parsed, err := barrierDomain.ParseCiphertextEnvelope(envelope.String())
				require.NoError(t, err, "failed to parse envelope string form")

				decrypted, err = barrierUseCase.Decrypt(ctx, &parsed)
				require.NoError(t, err, "failed to decrypt parsed envelope")
				assert.Equal(t, plaintext, decrypted, "parsed envelope should decrypt to the same plaintext")

				staleEnvelope = envelope
			})

			t.Run("WrongAADFailsAuthentication", func(t *testing.T) {
				require.NotNil(t, staleEnvelope, "round trip subtest must run first")

				tampered := *staleEnvelope
				tampered.AAD = []byte("tenant-43")

				_, err := barrierUseCase.Decrypt(ctx, &tampered)
				require.Error(t, err, "decrypt should fail with mismatched aad")
				assert.ErrorIs(t, err, barrierDomain.ErrAuthenticationFailed, "error should be ErrAuthenticationFailed")
			})

			t.Run("SecondInitializeIsNoOp", func(t *testing.T) {
				unsealBarrier(t, testCtx.container)

				envelope, err := barrierUseCase.Encrypt(ctx, plaintext, nil)
				require.NoError(t, err, "encrypt should still work after a repeated initialize")
				assert.Equal(t, uint(1), envelope.KeyVersion, "active content version should be unchanged")
			})

			t.Run("RotateContentLayer", func(t *testing.T) {
				record, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerContent)
				require.NoError(t, err, "failed to rotate content layer")

				assert.Equal(t, barrierDomain.LayerContent, record.Layer)
				assert.Equal(t, uint(2), record.Version, "rotation should produce content v2")
				assert.Equal(t, barrierDomain.AESGCM, record.Algorithm)
				assert.NotEmpty(t, record.Key, "rotated record should carry its clear key")

				envelope, err := barrierUseCase.Encrypt(ctx, plaintext, aad)
				require.NoError(t, err, "failed to encrypt after rotation")
				assert.Equal(t, uint(2), envelope.KeyVersion, "new writes should use content v2")

				decrypted, err := barrierUseCase.Decrypt(ctx, staleEnvelope)
				require.NoError(t, err, "envelope written under v1 should still decrypt")
				assert.Equal(t, plaintext, decrypted)
			})

			t.Run("RewrapAfterParentRotation", func(t *testing.T) {
				record, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerIntermediate)
				require.NoError(t, err, "failed to rotate intermediate layer")
				assert.Equal(t, uint(2), record.Version, "rotation should produce intermediate v2")

				// Both content versions were wrapped under intermediate v1
				// and are now stale.
				count, err := barrierUseCase.Rewrap(ctx, barrierDomain.LayerContent, 10)
				require.NoError(t, err, "failed to rewrap content layer")
				assert.Equal(t, 2, count, "both content versions should be re-wrapped")

				count, err = barrierUseCase.Rewrap(ctx, barrierDomain.LayerContent, 10)
				require.NoError(t, err, "second rewrap pass should succeed")
				assert.Equal(t, 0, count, "nothing should be left to re-wrap")

				decrypted, err := barrierUseCase.Decrypt(ctx, staleEnvelope)
				require.NoError(t, err, "old envelope should decrypt after rewrap")
				assert.Equal(t, plaintext, decrypted)
			})

			t.Run("RootRotationAndBatchedRewrap", func(t *testing.T) {
				// The root layer is wrapped by the unseal-derived key and is
				// never stale.
				count, err := barrierUseCase.Rewrap(ctx, barrierDomain.LayerRoot, 10)
				require.NoError(t, err, "root rewrap should succeed")
				assert.Equal(t, 0, count, "root layer should have no stale records")

				record, err := barrierUseCase.Rotate(ctx, barrierDomain.LayerRoot)
				require.NoError(t, err, "failed to rotate root layer")
				assert.Equal(t, uint(2), record.Version, "rotation should produce root v2")

				// Two intermediate versions are stale; a batch size of one
				// forces the pass to resume where it stopped.
				count, err = barrierUseCase.Rewrap(ctx, barrierDomain.LayerIntermediate, 1)
				require.NoError(t, err, "first batched rewrap should succeed")
				assert.Equal(t, 1, count, "batch size should cap the pass at one record")

				count, err = barrierUseCase.Rewrap(ctx, barrierDomain.LayerIntermediate, 10)
				require.NoError(t, err, "second batched rewrap should succeed")
				assert.Equal(t, 1, count, "the remaining record should be re-wrapped")

				count, err = barrierUseCase.Rewrap(ctx, barrierDomain.LayerIntermediate, 10)
				require.NoError(t, err, "final rewrap pass should succeed")
				assert.Equal(t, 0, count, "nothing should be left to re-wrap")

				decrypted, err := barrierUseCase.Decrypt(ctx, staleEnvelope)
				require.NoError(t, err, "old envelope should decrypt after root rotation")
				assert.Equal(t, plaintext, decrypted)
			})

			t.Run("ReopenFromStorage", func(t *testing.T) {
				// A second container with the same unseal key plays the role
				// of a fresh process: the hierarchy must reload from storage
				// with every historical version intact.
				container2 := app.NewContainer(testCtx.cfg)
				defer func() {
					_ = container2.Shutdown(ctx)
				}()

				unsealBarrier(t, container2)

				barrier2, err := container2.BarrierUseCase()
				require.NoError(t, err, "failed to get barrier use case from second container")

				decrypted, err := barrier2.Decrypt(ctx, staleEnvelope)
				require.NoError(t, err, "reopened hierarchy should decrypt the v1 envelope")
				assert.Equal(t, plaintext, decrypted)

				envelope, err := barrier2.Encrypt(ctx, plaintext, nil)
				require.NoError(t, err, "failed to encrypt through reopened hierarchy")
				assert.Equal(t, uint(2), envelope.KeyVersion, "active content version should persist across reopens")

				err = container2.Shutdown(ctx)
				require.NoError(t, err, "failed to shutdown second container")

				_, err = barrier2.Encrypt(ctx, plaintext, nil)
				require.Error(t, err, "encrypt should fail after shutdown")
				assert.ErrorIs(t, err, barrierDomain.ErrBarrierClosed, "error should be ErrBarrierClosed")
			})
		})
	}
}
