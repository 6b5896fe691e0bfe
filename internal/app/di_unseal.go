package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	unsealService "github.com/allisson/barrier/internal/unseal/service"
)

// KMSService returns the KMS service used to unwrap KMS-protected unseal keys.
func (c *Container) KMSService() unsealService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = unsealService.NewKMSService()
	})
	return c.kmsService
}

// UnsealProvider returns the unseal material provider selected by the
// configured unseal mode.
func (c *Container) UnsealProvider() (unsealService.Provider, error) {
	var err error
	c.unsealProviderInit.Do(func() {
		c.unsealProvider, err = c.initUnsealProvider()
		if err != nil {
			c.initErrors["unsealProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["unsealProvider"]; exists {
		return nil, storedErr
	}
	return c.unsealProvider, nil
}

// initUnsealProvider builds the provider for the configured unseal mode.
func (c *Container) initUnsealProvider() (unsealService.Provider, error) {
	switch c.config.UnsealMode {
	case "simple":
		return c.initSimpleProvider()
	case "shares":
		return c.initSharesProvider()
	case "fingerprint":
		return c.initFingerprintProvider()
	default:
		return nil, fmt.Errorf("unsupported unseal mode: %s", c.config.UnsealMode)
	}
}

// initSimpleProvider builds the simple-mode provider. A configured key file
// takes precedence; otherwise the base64 key from the environment is used,
// unwrapped through the KMS when a provider is configured.
func (c *Container) initSimpleProvider() (unsealService.Provider, error) {
	if c.config.UnsealKeyFile != "" {
		return unsealService.NewSimpleProviderFromFile(c.config.UnsealKeyFile), nil
	}

	if c.config.UnsealKey == "" {
		return nil, fmt.Errorf("simple unseal mode requires UNSEAL_KEY or UNSEAL_KEY_FILE")
	}

	decoded, err := base64.StdEncoding.DecodeString(c.config.UnsealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode unseal key: %w", err)
	}

	if c.config.KMSProvider != "" {
		keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper for unseal provider: %w", err)
		}
		return unsealService.NewSimpleProviderFromKMS(keeper, decoded), nil
	}

	return unsealService.NewSimpleProvider(decoded), nil
}

// initSharesProvider decodes the configured share list and builds the
// threshold provider.
func (c *Container) initSharesProvider() (unsealService.Provider, error) {
	if c.config.UnsealShares == "" {
		return nil, fmt.Errorf("shares unseal mode requires UNSEAL_SHARES")
	}

	parts := strings.Split(c.config.UnsealShares, ",")
	shares := make([][]byte, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("failed to decode unseal share: %w", err)
		}
		shares = append(shares, decoded)
	}

	return unsealService.NewSharedSecretsProvider(shares, c.config.UnsealShareThreshold), nil
}

// initFingerprintProvider builds the host fingerprint provider with any
// configured extra attributes.
func (c *Container) initFingerprintProvider() (unsealService.Provider, error) {
	var attrs []string
	for _, attr := range strings.Split(c.config.UnsealFingerprintAttrs, ",") {
		attr = strings.TrimSpace(attr)
		if attr != "" {
			attrs = append(attrs, attr)
		}
	}
	return unsealService.NewFingerprintProvider(attrs...), nil
}
