package app

import (
	"fmt"

	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
	barrierRepository "github.com/allisson/barrier/internal/barrier/repository"
	barrierService "github.com/allisson/barrier/internal/barrier/service"
	barrierUsecase "github.com/allisson/barrier/internal/barrier/usecase"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() barrierService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = barrierService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() barrierService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = barrierService.NewKeyManager(c.AEADManager())
	})
	return c.keyManager
}

// RootKeyDeriver returns the root-unwrap key derivation service.
func (c *Container) RootKeyDeriver() (barrierService.RootKeyDeriver, error) {
	var err error
	c.rootDeriverInit.Do(func() {
		c.rootDeriver, err = barrierService.NewRootKeyDeriver(c.config.RootKDFHash)
		if err != nil {
			c.initErrors["rootDeriver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rootDeriver"]; exists {
		return nil, storedErr
	}
	return c.rootDeriver, nil
}

// KeyRecordRepository returns the key record repository based on the database driver.
func (c *Container) KeyRecordRepository() (barrierUsecase.KeyRecordRepository, error) {
	var err error
	c.keyRecordRepoInit.Do(func() {
		c.keyRecordRepo, err = c.initKeyRecordRepository()
		if err != nil {
			c.initErrors["keyRecordRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyRecordRepo"]; exists {
		return nil, storedErr
	}
	return c.keyRecordRepo, nil
}

// BarrierUseCase returns the barrier use case decorated with audit trail
// recording and, when enabled, metrics.
func (c *Container) BarrierUseCase() (barrierUsecase.BarrierUseCase, error) {
	var err error
	c.barrierUseCaseInit.Do(func() {
		c.barrierUseCase, err = c.initBarrierUseCase()
		if err != nil {
			c.initErrors["barrierUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["barrierUseCase"]; exists {
		return nil, storedErr
	}
	return c.barrierUseCase, nil
}

// barrierCoreUseCase returns the undecorated barrier engine. The audit use
// case derives signing keys from it; everything else goes through the
// decorated BarrierUseCase.
func (c *Container) barrierCoreUseCase() (barrierUsecase.BarrierUseCase, error) {
	var err error
	c.barrierCoreInit.Do(func() {
		c.barrierCore, err = c.initBarrierCore()
		if err != nil {
			c.initErrors["barrierCore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["barrierCore"]; exists {
		return nil, storedErr
	}
	return c.barrierCore, nil
}

// initKeyRecordRepository creates the key record repository based on the database driver.
func (c *Container) initKeyRecordRepository() (barrierUsecase.KeyRecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key record repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return barrierRepository.NewPostgreSQLKeyRecordRepository(db), nil
	case "mysql":
		return barrierRepository.NewMySQLKeyRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initBarrierCore creates the undecorated barrier use case with all its dependencies.
func (c *Container) initBarrierCore() (barrierUsecase.BarrierUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for barrier use case: %w", err)
	}

	keyRecordRepo, err := c.KeyRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key record repository for barrier use case: %w", err)
	}

	rootDeriver, err := c.RootKeyDeriver()
	if err != nil {
		return nil, fmt.Errorf("failed to get root key deriver for barrier use case: %w", err)
	}

	algorithm := barrierDomain.Algorithm(c.config.BarrierAlgorithm)
	if _, err := algorithm.KeySize(); err != nil {
		return nil, fmt.Errorf("unsupported barrier algorithm: %s", c.config.BarrierAlgorithm)
	}

	return barrierUsecase.NewBarrierUseCase(
		txManager,
		keyRecordRepo,
		c.KeyManager(),
		c.AEADManager(),
		rootDeriver,
		algorithm,
	), nil
}

// initBarrierUseCase wraps the barrier core with the audit trail and metrics
// decorators.
func (c *Container) initBarrierUseCase() (barrierUsecase.BarrierUseCase, error) {
	core, err := c.barrierCoreUseCase()
	if err != nil {
		return nil, err
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for barrier use case: %w", err)
	}

	useCase := barrierUsecase.NewBarrierUseCaseWithAudit(core, auditUseCase, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for barrier use case: %w", err)
		}
		return barrierUsecase.NewBarrierUseCaseWithMetrics(useCase, businessMetrics), nil
	}

	return useCase, nil
}
