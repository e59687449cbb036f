// Package config loads the HARTREE service configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	VQE struct {
		LearningRate  float64 `env:"VQE_LEARNING_RATE" envDefault:"0.4"`
		Momentum      float64 `env:"VQE_MOMENTUM" envDefault:"0"`
		MaxIterations int     `env:"VQE_MAX_ITERATIONS" envDefault:"100"`
		ConvTol       float64 `env:"VQE_CONV_TOL" envDefault:"1e-6"`
		EarlyStop     bool    `env:"VQE_EARLY_STOP" envDefault:"false"`
		// Gradient selects the differentiation strategy:
		// "parameter-shift" or "adjoint".
		Gradient string `env:"VQE_GRADIENT" envDefault:"parameter-shift"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.VQE.Gradient {
	case "parameter-shift", "adjoint":
	default:
		return nil, fmt.Errorf("unknown gradient method %q (want parameter-shift or adjoint)", cfg.VQE.Gradient)
	}

	// Development runs default to verbose logging unless overridden.
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
