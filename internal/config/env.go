package config

import (
	"fmt"
	"strconv"

	"github.com/jgivc/celty/internal/common"
)

const (
	EnvRPCSecret = "CELTY_RPC_SECRET"
	EnvRPCHost   = "CELTY_RPC_HOST"
	EnvRPCPort   = "CELTY_RPC_PORT"
	EnvRedisURL  = "CELTY_REDIS_URL"
)

// ApplyEnv overrides daemon and redis settings from the environment.
// A secret from the environment implies UseSecret.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRPCSecret); ok && v != "" {
		c.Aria2.FixedSecret = v
		c.Aria2.UseSecret = true
	}

	if v, ok := lookup(EnvRPCHost); ok && v != "" {
		c.Aria2.Host = v
	}

	if v, ok := lookup(EnvRPCPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: invalid %s %q", common.ErrMalformedConfig, EnvRPCPort, v)
		}
		c.Aria2.Port = port
	}

	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.RedisURL = v
	}

	return nil
}
