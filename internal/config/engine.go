package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type EngineConfig struct {
	// DefaultSlippageBps widens quoted outputs into minimum-out bounds when
	// the caller does not specify a tolerance. Default: 50 (0.5%).
	DefaultSlippageBps int

	// OptimizerMaxIterations bounds the split-ratio ternary search.
	// Default: 10.
	OptimizerMaxIterations int

	// DBPath is the BoltDB file holding the token policy registry.
	// Default: "./data/venue-router.db"
	DBPath string
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DefaultSlippageBps = common.GetEnvOrDefaultInt("ENGINE_DEFAULT_SLIPPAGE_BPS", 50)
	c.OptimizerMaxIterations = common.GetEnvOrDefaultInt("ENGINE_OPTIMIZER_MAX_ITERATIONS", 10)
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/venue-router.db")
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps >= 10000 {
		return errors.New("invalid slippage bps")
	}
	if c.OptimizerMaxIterations < 1 {
		return errors.New("optimizer iterations must be positive")
	}
	return nil
}
