package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/formats/columnar"
	"github.com/ajitpratap0/colschema/pkg/logger"
	"github.com/ajitpratap0/colschema/pkg/observability"
	"github.com/ajitpratap0/colschema/pkg/schemagen"
)

// Config is the root configuration document.
type Config struct {
	// Schema controls how schemas are derived
	Schema SchemaConfig `yaml:"schema" json:"schema"`

	// Writer controls parquet output
	Writer WriterConfig `yaml:"writer" json:"writer"`

	// Reader controls parquet input
	Reader ReaderConfig `yaml:"reader" json:"reader"`

	// Logging configures the global logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Tracing configures OpenTelemetry spans
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// SchemaConfig contains derivation settings.
type SchemaConfig struct {
	// ListEncoding selects one_level, two_level or three_level
	ListEncoding string `yaml:"list_encoding" json:"list_encoding"`
	// TagName is the struct tag read for aliases and notnull
	TagName string `yaml:"tag_name" json:"tag_name"`
}

// WriterConfig contains parquet writer settings.
type WriterConfig struct {
	// Compression is one of none, snappy, gzip, zstd, brotli, lz4
	Compression      string            `yaml:"compression" json:"compression"`
	RowGroupSize     int               `yaml:"row_group_size" json:"row_group_size"`
	PageSize         int               `yaml:"page_size" json:"page_size"`
	EnableDictionary bool              `yaml:"enable_dictionary" json:"enable_dictionary"`
	EnableStats      bool              `yaml:"enable_stats" json:"enable_stats"`
	Metadata         map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ReaderConfig contains parquet reader settings.
type ReaderConfig struct {
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// MemoryMap maps files into memory instead of reading them
	MemoryMap bool `yaml:"memory_map" json:"memory_map"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" json:"level"`
	// Encoding is json or console
	Encoding    string   `yaml:"encoding" json:"encoding"`
	Development bool     `yaml:"development" json:"development"`
	OutputPaths []string `yaml:"output_paths,omitempty" json:"output_paths,omitempty"`
}

// TracingConfig contains tracing settings.
type TracingConfig struct {
	// Exporter is none or stdout
	Exporter     string  `yaml:"exporter" json:"exporter"`
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
}

// Default returns a configuration with the same defaults the libraries use
// when given no configuration.
func Default() *Config {
	w := columnar.DefaultWriterConfig()
	t := observability.DefaultTracingConfig()
	return &Config{
		Schema: SchemaConfig{
			ListEncoding: schemagen.DefaultListEncoding.String(),
			TagName:      "parquet",
		},
		Writer: WriterConfig{
			Compression:      w.Compression,
			RowGroupSize:     w.RowGroupSize,
			PageSize:         w.PageSize,
			EnableDictionary: w.EnableDictionary,
			EnableStats:      w.EnableStats,
		},
		Reader: ReaderConfig{
			BatchSize: columnar.DefaultReaderConfig().BatchSize,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Tracing: TracingConfig{
			Exporter:     t.Exporter,
			SamplingRate: t.SamplingRate,
		},
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := schemagen.ParseListEncoding(c.Schema.ListEncoding); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Schema.TagName == "" {
		result = multierror.Append(result, fmt.Errorf("schema.tag_name is required"))
	}
	if _, err := columnar.ParseCompression(c.Writer.Compression); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Writer.RowGroupSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("writer.row_group_size must be positive"))
	}
	if c.Writer.PageSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("writer.page_size must be positive"))
	}
	if c.Reader.BatchSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("reader.batch_size must be positive"))
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.encoding must be json or console, got %q", c.Logging.Encoding))
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		result = multierror.Append(result, fmt.Errorf("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		result = multierror.Append(result, fmt.Errorf("tracing.sampling_rate must be between 0 and 1"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}
	return nil
}

// Encoding returns the parsed list encoding.
func (s *SchemaConfig) Encoding() (schemagen.ListEncoding, error) {
	return schemagen.ParseListEncoding(s.ListEncoding)
}

// BuilderOptions returns the schemagen options this configuration selects.
func (c *Config) BuilderOptions() ([]schemagen.Option, error) {
	enc, err := c.Schema.Encoding()
	if err != nil {
		return nil, err
	}
	return []schemagen.Option{schemagen.WithListEncoding(enc)}, nil
}

// WriterConfig converts the writer section for columnar.NewWriter.
func (c *Config) WriterConfig() *columnar.WriterConfig {
	return &columnar.WriterConfig{
		Compression:      c.Writer.Compression,
		RowGroupSize:     c.Writer.RowGroupSize,
		PageSize:         c.Writer.PageSize,
		EnableDictionary: c.Writer.EnableDictionary,
		EnableStats:      c.Writer.EnableStats,
		TagName:          c.Schema.TagName,
		Metadata:         c.Writer.Metadata,
	}
}

// ReaderConfig converts the reader section for columnar.NewReader.
func (c *Config) ReaderConfig() *columnar.ReaderConfig {
	return &columnar.ReaderConfig{BatchSize: c.Reader.BatchSize, MemoryMap: c.Reader.MemoryMap}
}

// LoggerConfig converts the logging section for logger.Init.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Logging.Level,
		Development: c.Logging.Development,
		Encoding:    c.Logging.Encoding,
		OutputPaths: c.Logging.OutputPaths,
	}
}

// TracingConfig converts the tracing section for observability.InitTracing.
func (c *Config) TracingConfig(version string) observability.TracingConfig {
	t := observability.DefaultTracingConfig()
	t.ServiceVersion = version
	t.Exporter = c.Tracing.Exporter
	t.SamplingRate = c.Tracing.SamplingRate
	return t
}
