package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type VenueConfig struct {
	// PoolVenueURL is the base URL of the pool-custody venue's API.
	PoolVenueURL string

	// DirectVenueURL is the base URL of the direct-transfer venue's API.
	DirectVenueURL string

	// RequestTimeoutMs bounds every remote venue call. Default: 15000.
	RequestTimeoutMs int

	// PoolSpender / DirectSpender are the contract addresses allowance grants
	// are issued to, base58-encoded.
	PoolSpender   string
	DirectSpender string
}

func (c *VenueConfig) Key() string {
	return VENUE_CONFIG_KEY
}

func (c *VenueConfig) Load() error {
	c.PoolVenueURL = common.GetEnvOrDefault("POOL_VENUE_URL", "http://localhost:9101")
	c.DirectVenueURL = common.GetEnvOrDefault("DIRECT_VENUE_URL", "http://localhost:9102")
	c.RequestTimeoutMs = common.GetEnvOrDefaultInt("VENUE_REQUEST_TIMEOUT_MS", 15000)
	c.PoolSpender = common.GetEnvOrDefault("POOL_SPENDER", "")
	c.DirectSpender = common.GetEnvOrDefault("DIRECT_SPENDER", "")
	return c.Validate()
}

func (c *VenueConfig) Validate() error {
	if c.PoolVenueURL == "" || c.DirectVenueURL == "" {
		return errors.New("invalid venue config")
	}
	if c.RequestTimeoutMs <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}
