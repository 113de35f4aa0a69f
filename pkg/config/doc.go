// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv for optional .env files and
// github.com/caarlos0/env/v11 for tag-driven parsing:
//
//   - LoadEnvFiles reads one or more .env files into the process environment
//     without overriding variables that are already set. Missing files are
//     skipped.
//   - Load parses the environment into any struct annotated with `env` tags. The
//     default .env file is read once per process before the first parse.
//   - Structs that implement Validator get a post-parse check, so cross-field rules
//     (for example "the mongo ledger backend requires MONGODB_URL") fail at startup
//     rather than on the first request.
//   - MustLoad panics on failure for binaries that cannot start without config.
//
// # Usage
//
// Describe the configuration with `env` tags. Nested structs are parsed too, which
// lets each package own its part of the environment:
//
//	type Config struct {
//		AppEnv   string `env:"APP_ENV" envDefault:"development"`
//		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//		HTTP     httpserver.Config
//		Postgres pg.Config
//		Redis    redis.Config
//	}
//
//	func (c *Config) Validate() error {
//		if c.AppEnv == "" {
//			return errors.New("APP_ENV is empty")
//		}
//		return nil
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// WithPrefix scopes the tags of one struct, and WithEnvironment parses from a map
// instead of the process environment:
//
//	err := config.Load(&cfg, config.WithEnvironment(map[string]string{
//		"DATABASE_URL": "postgres://localhost/formgate_test",
//	}))
//
// Tests use WithEnvironment instead of t.Setenv so they can run with t.Parallel.
//
// # Error Handling
//
// Errors are joined with sentinels that can be matched with errors.Is:
//
//   - ErrParsingConfig: the environment could not be parsed into the struct.
//   - ErrInvalidConfig: Validate rejected the parsed values.
//   - ErrNilPointer: a nil pointer was passed to Load or MustLoad.
//
// # See Also
//
//   - https://github.com/joho/godotenv
//   - https://github.com/caarlos0/env
package config
