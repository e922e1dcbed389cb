package email

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the SMTP transport settings. All required fields must be
// present and valid before a logger is constructed; there are no silent
// defaults.
type Config struct {
	Host       string   `env:"EMAIL_HOST" validate:"required"`
	Port       int      `env:"EMAIL_PORT" validate:"gte=0"`
	Username   string   `env:"EMAIL_USER" validate:"required,email"`
	Password   string   `env:"EMAIL_PASSWORD" validate:"required"`
	From       string   `env:"EMAIL_FROM" validate:"required,email"`
	To         []string `env:"EMAIL_TO" validate:"required,min=1,dive,email"`
	UseTLS     bool     `env:"EMAIL_TLS"`
	SkipVerify bool     `env:"EMAIL_TLS_SKIP_VERIFY"`
}

var validate = validator.New()

/**
 * ConfigFromEnv reads and validates the SMTP configuration from the
 * process environment. Any parse or validation failure is returned as an
 * error; callers are expected to treat it as fatal and refuse to start.
 *
 * @return *Config Validated transport configuration
 * @return error Non-nil when the environment is incomplete or invalid
 */
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("email: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field presence and address syntax.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("email: invalid configuration: %w", err)
	}
	return nil
}
