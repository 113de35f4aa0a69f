package redis

import "time"

// Config holds connection settings. An empty ConnectionURL means Redis is not
// configured and callers should fall back to in-process state.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                          // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Configured reports whether a connection URL was provided.
func (c Config) Configured() bool {
	return c.ConnectionURL != ""
}
