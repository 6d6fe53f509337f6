// Package repository provides the initialization for repository implementations
package repository

import (
	"github.com/navikt/huddle/internal/config"
	"github.com/navikt/huddle/internal/repository/memory"
	"github.com/navikt/huddle/internal/repository/redis"
)

// NewRepository creates the configured repository implementation: Redis when
// enabled, otherwise the in-memory fallback so the service runs without infra.
func NewRepository(cfg config.RedisConfig) (Repository, error) {
	if cfg.Enabled {
		return redis.NewRepository(cfg)
	}
	return memory.NewRepository(), nil
}
