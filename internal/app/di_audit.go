package app

import (
	"fmt"

	auditRepository "github.com/allisson/barrier/internal/audit/repository"
	auditService "github.com/allisson/barrier/internal/audit/service"
	auditUsecase "github.com/allisson/barrier/internal/audit/usecase"
)

// AuditSigner returns the audit record signing service.
func (c *Container) AuditSigner() auditService.AuditSigner {
	c.auditSignerInit.Do(func() {
		c.auditSigner = auditService.NewAuditSigner()
	})
	return c.auditSigner
}

// AuditRecordRepository returns the audit record repository based on the database driver.
func (c *Container) AuditRecordRepository() (auditUsecase.AuditRecordRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRecordRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditUseCase returns the audit trail use case.
func (c *Container) AuditUseCase() (auditUsecase.AuditUseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// initAuditRecordRepository creates the audit record repository based on the database driver.
func (c *Container) initAuditRecordRepository() (auditUsecase.AuditRecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit record repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditRecordRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLAuditRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditUseCase creates the audit use case with all its dependencies.
// Signing keys come from the undecorated barrier core, so trail writes made
// by the barrier's own decorator never recurse into recording.
func (c *Container) initAuditUseCase() (auditUsecase.AuditUseCase, error) {
	auditRepo, err := c.AuditRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit record repository for audit use case: %w", err)
	}

	barrierCore, err := c.barrierCoreUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get barrier core for audit use case: %w", err)
	}

	return auditUsecase.NewAuditUseCase(auditRepo, c.AuditSigner(), barrierCore), nil
}
