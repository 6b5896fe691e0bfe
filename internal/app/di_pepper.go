package app

import (
	"fmt"

	pepperRepository "github.com/allisson/barrier/internal/pepper/repository"
	pepperUsecase "github.com/allisson/barrier/internal/pepper/usecase"
)

// PepperRepository returns the pepper repository based on the database driver.
func (c *Container) PepperRepository() (pepperUsecase.PepperRepository, error) {
	var err error
	c.pepperRepoInit.Do(func() {
		c.pepperRepo, err = c.initPepperRepository()
		if err != nil {
			c.initErrors["pepperRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pepperRepo"]; exists {
		return nil, storedErr
	}
	return c.pepperRepo, nil
}

// PepperUseCase returns the pepper use case decorated with audit trail
// recording and, when enabled, metrics.
func (c *Container) PepperUseCase() (pepperUsecase.PepperUseCase, error) {
	var err error
	c.pepperUseCaseInit.Do(func() {
		c.pepperUseCase, err = c.initPepperUseCase()
		if err != nil {
			c.initErrors["pepperUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pepperUseCase"]; exists {
		return nil, storedErr
	}
	return c.pepperUseCase, nil
}

// initPepperRepository creates the pepper repository based on the database driver.
func (c *Container) initPepperRepository() (pepperUsecase.PepperRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for pepper repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return pepperRepository.NewPostgreSQLPepperRepository(db), nil
	case "mysql":
		return pepperRepository.NewMySQLPepperRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPepperUseCase creates the pepper use case with all its dependencies,
// wrapped with the audit trail and metrics decorators.
func (c *Container) initPepperUseCase() (pepperUsecase.PepperUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for pepper use case: %w", err)
	}

	pepperRepo, err := c.PepperRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get pepper repository for pepper use case: %w", err)
	}

	barrierUseCase, err := c.BarrierUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get barrier use case for pepper use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for pepper use case: %w", err)
	}

	baseUseCase := pepperUsecase.NewPepperUseCase(
		txManager,
		pepperRepo,
		barrierUseCase,
		c.AEADManager(),
	)

	useCase := pepperUsecase.NewPepperUseCaseWithAudit(baseUseCase, auditUseCase, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for pepper use case: %w", err)
		}
		return pepperUsecase.NewPepperUseCaseWithMetrics(useCase, businessMetrics), nil
	}

	return useCase, nil
}
