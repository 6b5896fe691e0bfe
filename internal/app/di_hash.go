package app

import (
	"fmt"

	hashService "github.com/allisson/barrier/internal/hash/service"
	hashUsecase "github.com/allisson/barrier/internal/hash/usecase"
)

// KeyDeriver returns the hash key derivation service.
func (c *Container) KeyDeriver() hashService.KeyDeriver {
	c.keyDeriverInit.Do(func() {
		c.keyDeriver = hashService.NewKeyDeriver()
	})
	return c.keyDeriver
}

// HashUseCase returns the hash use case decorated with metrics when enabled.
func (c *Container) HashUseCase() (hashUsecase.HashUseCase, error) {
	var err error
	c.hashUseCaseInit.Do(func() {
		c.hashUseCase, err = c.initHashUseCase()
		if err != nil {
			c.initErrors["hashUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["hashUseCase"]; exists {
		return nil, storedErr
	}
	return c.hashUseCase, nil
}

// initHashUseCase creates the hash use case with all its dependencies.
func (c *Container) initHashUseCase() (hashUsecase.HashUseCase, error) {
	pepperUseCase, err := c.PepperUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get pepper use case for hash use case: %w", err)
	}

	baseUseCase := hashUsecase.NewHashUseCase(
		pepperUseCase,
		c.KeyDeriver(),
		c.config.PBKDF2Iterations,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for hash use case: %w", err)
		}
		return hashUsecase.NewHashUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
