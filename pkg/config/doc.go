// Package config provides the configuration for colschema tools.
//
// The configuration is organized into logical sections:
//   - Schema: list encoding and struct tag used for derivation
//   - Writer: compression, row group and page sizing of parquet output
//   - Reader: batch size and memory mapping used when decoding files
//   - Logging: level and encoding of the global zap logger
//   - Tracing: OpenTelemetry exporter and sampling rate
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Schema.ListEncoding = "two_level"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration File
//
// A colschema configuration is a single YAML document. Every key is
// optional; missing keys keep the values from Default:
//
//	schema:
//	  list_encoding: three_level   # one_level | two_level | three_level
//	  tag_name: parquet
//	writer:
//	  compression: ${COLSCHEMA_COMPRESSION}
//	  row_group_size: 65536        # rows per row group
//	  page_size: 1048576
//	  enable_dictionary: true
//	  enable_stats: true
//	  metadata:
//	    owner: billing
//	reader:
//	  batch_size: 10000
//	  memory_map: false
//	logging:
//	  level: info
//	  encoding: console
//	tracing:
//	  exporter: none               # none | stdout
//	  sampling_rate: 1.0
//
// # Environment Variable Substitution
//
// ${VAR_NAME} references are replaced with the variable's value before the
// document is parsed. Unset variables become empty strings, which fall back
// to library defaults where one exists (an empty compression means
// uncompressed).
//
// # Validation
//
// Load and Parse validate the result and report every invalid field in one
// error built with go-multierror:
//
//	cfg, err := config.Load("colschema.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	w, err := columnar.NewWriter[Order](f, cfg.WriterConfig(), opts...)
package config
