package regiongrowing

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages region growing configuration using Viper
type Config struct {
	v      *viper.Viper
	logger *zerolog.Logger
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())
	v.SetDefault("algorithm.seed_attempts", 0)
	v.SetDefault("algorithm.iteration_factor", 2)
	v.SetDefault("algorithm.repair", true)

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }
func (c *Config) IterationFactor() int { return c.v.GetInt("algorithm.iteration_factor") }
func (c *Config) Repair() bool { return c.v.GetBool("algorithm.repair") }
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// SeedAttempts returns the candidate budget per seed; 0 means max(100, 2·V).
func (c *Config) SeedAttempts() int { return c.v.GetInt("algorithm.seed_attempts") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// SetLogger makes Logger return l instead of a logger built from logging.level.
func (c *Config) SetLogger(l zerolog.Logger) {
	c.logger = &l
}

// Logger returns the injected logger or a new one from CreateLogger.
func (c *Config) Logger() zerolog.Logger {
	if c.logger != nil {
		return *c.logger
	}
	return c.CreateLogger()
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "region_growing").Logger()
}
