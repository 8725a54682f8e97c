package fm

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// defaultMaxPasses applies when algorithm.max_passes is not positive.
const defaultMaxPasses = 100

// Config manages FM refinement configuration using Viper
type Config struct {
	v      *viper.Viper
	logger *zerolog.Logger
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.max_passes", defaultMaxPasses)
	v.SetDefault("algorithm.preserve_connectivity", true)
	v.SetDefault("algorithm.max_moves_per_pass", 0)

	// Analysis parameters
	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "fm_moves.jsonl")

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) MaxPasses() int { return c.v.GetInt("algorithm.max_passes") }
func (c *Config) PreserveConnectivity() bool { return c.v.GetBool("algorithm.preserve_connectivity") }
func (c *Config) TrackMoves() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) MoveOutputFile() string { return c.v.GetString("analysis.output_file") }
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// MaxMovesPerPass caps the moves in one pass; 0 means one per vertex.
func (c *Config) MaxMovesPerPass() int { return c.v.GetInt("algorithm.max_moves_per_pass") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) SetLogger(l zerolog.Logger) {
	c.logger = &l
}

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
	}).Level(level).With().Timestamp().Str("service", "fm").Logger()
}
