package config

import (
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Soak configures a contention run against the guarded collections.
type Soak struct {
	Workers    int       // SOAK_WORKERS, goroutines sharing the collections
	Items      int       // SOAK_ITEMS, distinct keys offered
	Duplicates int       // SOAK_DUPLICATES, times each key is offered
	LogLevel   log.Level // LOG_LEVEL
}

func DefaultSoak() Soak {
	return Soak{
		Workers:    runtime.GOMAXPROCS(-1) * 4,
		Items:      10_000,
		Duplicates: 3,
		LogLevel:   log.InfoLevel,
	}
}

// Reads the soak configuration from the environment, falling back to DefaultSoak
// for anything that is not set.
func LoadSoak() (cfg Soak, err error) {
	cfg = DefaultSoak()

	if cfg.Workers, err = EnviroVarOr("SOAK_WORKERS", cfg.Workers); err != nil {
		return cfg, err
	}
	if cfg.Items, err = EnviroVarOr("SOAK_ITEMS", cfg.Items); err != nil {
		return cfg, err
	}
	if cfg.Duplicates, err = EnviroVarOr("SOAK_DUPLICATES", cfg.Duplicates); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = EnviroVarOr("LOG_LEVEL", cfg.LogLevel); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (s Soak) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("SOAK_WORKERS must be at least 1, got %d", s.Workers)
	}
	if s.Items < 0 {
		return fmt.Errorf("SOAK_ITEMS must not be negative, got %d", s.Items)
	}
	if s.Duplicates < 1 {
		return fmt.Errorf("SOAK_DUPLICATES must be at least 1, got %d", s.Duplicates)
	}

	return nil
}
