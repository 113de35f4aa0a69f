package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check cross-field constraints after
// parsing.
type Validator interface {
	Validate() error
}

// Option customizes a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix      string
	environment map[string]string
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process environment.
// Used by tests to avoid t.Setenv, which forbids t.Parallel.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) { o.environment = vars }
}

var dotenvOnce sync.Once

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped. With no
// arguments the default ".env" in the working directory is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Load parses environment variables into v using `env` struct tags. The default .env
// file is read once per process before the first parse. When *T implements
// Validator, Validate runs after parsing and its error is wrapped in
// ErrInvalidConfig.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environment == nil {
		dotenvOnce.Do(func() {
			_ = LoadEnvFiles()
		})
	}

	eo := env.Options{Prefix: o.prefix}
	if o.environment != nil {
		eo.Environment = o.environment
	}
	if err := env.ParseWithOptions(v, eo); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
