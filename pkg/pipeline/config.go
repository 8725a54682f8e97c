package pipeline

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/graph-partitioning-service/pkg/fm"
	"github.com/gilchrisn/graph-partitioning-service/pkg/models"
	"github.com/gilchrisn/graph-partitioning-service/pkg/regiongrowing"
)

var validate = validator.New()

// Config manages pipeline configuration using Viper
type Config struct {
	v      *viper.Viper
	logger *zerolog.Logger
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Partitioning parameters
	v.SetDefault("partition.parts", 2)
	v.SetDefault("partition.accuracy", 0.1)
	v.SetDefault("partition.refine_only", false)

	// Region growing parameters
	v.SetDefault("region_growing.random_seed", time.Now().UnixNano())
	v.SetDefault("region_growing.seed_attempts", 0)
	v.SetDefault("region_growing.iteration_factor", 2)
	v.SetDefault("region_growing.repair", true)

	// FM parameters
	v.SetDefault("fm.max_passes", 100)
	v.SetDefault("fm.preserve_connectivity", true)
	v.SetDefault("fm.max_moves_per_pass", 0)
	v.SetDefault("fm.track_moves", false)
	v.SetDefault("fm.moves_file", "fm_moves.jsonl")

	// I/O parameters
	v.SetDefault("input.format", "auto")
	v.SetDefault("output.format", "auto")
	v.SetDefault("output.mapping_file", "")
	v.SetDefault("output.report_file", "")

	// Metrics parameters
	v.SetDefault("metrics.namespace", "partitioner")
	v.SetDefault("metrics.textfile", "")

	// Logging parameters
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("PARTITIONER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) Parts() int { return c.v.GetInt("partition.parts") }
func (c *Config) Accuracy() float64 { return c.v.GetFloat64("partition.accuracy") }
func (c *Config) RefineOnly() bool { return c.v.GetBool("partition.refine_only") }
func (c *Config) InputFormat() string { return c.v.GetString("input.format") }
func (c *Config) OutputFormat() string { return c.v.GetString("output.format") }
func (c *Config) MappingFile() string { return c.v.GetString("output.mapping_file") }
func (c *Config) ReportFile() string { return c.v.GetString("output.report_file") }
func (c *Config) MetricsNamespace() string { return c.v.GetString("metrics.namespace") }
func (c *Config) MetricsTextfile() string { return c.v.GetString("metrics.textfile") }
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// Params is the validated view of the settings that can make a run fail before it starts.
type Params struct {
	Parts        int     `validate:"gte=1"`
	Accuracy     float64 `validate:"gte=0,lte=1"`
	MaxPasses    int     `validate:"gte=0"`
	InputFormat  string  `validate:"oneof=auto text txt binary bin delta legacy vbyte vbin"`
	OutputFormat string  `validate:"oneof=auto text txt binary bin delta legacy vbyte vbin"`
	LogLevel     string  `validate:"oneof=trace debug info warn error fatal panic disabled"`
}

// Params validates the run parameters.
func (c *Config) Params() (Params, error) {
	p := Params{
		Parts:        c.Parts(),
		Accuracy:     c.Accuracy(),
		MaxPasses:    c.v.GetInt("fm.max_passes"),
		InputFormat:  strings.ToLower(c.InputFormat()),
		OutputFormat: strings.ToLower(c.OutputFormat()),
		LogLevel:     strings.ToLower(c.LogLevel()),
	}
	if err := validate.Struct(p); err != nil {
		return p, toValidationErrors(err)
	}
	return p, nil
}

func toValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var out models.ValidationErrors
	for _, fe := range verrs {
		ve := models.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed '%s' constraint %s", fe.Tag(), fe.Param()),
			Value:   fmt.Sprint(fe.Value()),
		}
		switch fe.Field() {
		case "Parts":
			ve.Err = models.ErrInvalidPartitionCount
		case "Accuracy":
			ve.Err = models.ErrInvalidAccuracy
		}
		out = append(out, ve)
	}
	return out
}

// RegionGrowingConfig derives the region growing configuration.
func (c *Config) RegionGrowingConfig() *regiongrowing.Config {
	rg := regiongrowing.NewConfig()
	rg.Set("algorithm.random_seed", c.v.GetInt64("region_growing.random_seed"))
	rg.Set("algorithm.seed_attempts", c.v.GetInt("region_growing.seed_attempts"))
	rg.Set("algorithm.iteration_factor", c.v.GetInt("region_growing.iteration_factor"))
	rg.Set("algorithm.repair", c.v.GetBool("region_growing.repair"))
	rg.Set("logging.level", c.LogLevel())
	rg.SetLogger(c.Logger().With().Str("stage", "region_growing").Logger())
	return rg
}

// FMConfig derives the FM configuration.
func (c *Config) FMConfig() *fm.Config {
	f := fm.NewConfig()
	f.Set("algorithm.max_passes", c.v.GetInt("fm.max_passes"))
	f.Set("algorithm.preserve_connectivity", c.v.GetBool("fm.preserve_connectivity"))
	f.Set("algorithm.max_moves_per_pass", c.v.GetInt("fm.max_moves_per_pass"))
	f.Set("analysis.track_moves", c.v.GetBool("fm.track_moves"))
	f.Set("analysis.output_file", c.v.GetString("fm.moves_file"))
	f.Set("logging.level", c.LogLevel())
	f.SetLogger(c.Logger().With().Str("stage", "fm").Logger())
	return f
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
	}).Level(level).With().Timestamp().Str("service", "partitioner").Logger()
}
