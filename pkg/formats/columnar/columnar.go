// Package columnar writes and reads parquet files whose schema is derived
// from Go types by pkg/schemagen.
//
// A Writer shreds rows of one Go type into column chunks following the
// derived node tree, so files come out in whichever list encoding the
// builder was configured with. A Reader streams rows back as JSON-shaped
// maps.
package columnar

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// Key/value metadata written into every file footer.
const (
	// MetaFingerprint holds schemagen.FingerprintString of the file schema
	MetaFingerprint = "colschema.fingerprint"
	// MetaListEncoding holds the list encoding the schema was derived with
	MetaListEncoding = "colschema.list_encoding"
)

// WriterConfig configures columnar writers
type WriterConfig struct {
	Compression      string
	RowGroupSize     int // rows buffered before a row group is flushed
	PageSize         int
	EnableDictionary bool
	EnableStats      bool
	// TagName is the struct tag read for field aliases and notnull.
	TagName string
	// Metadata is extra key/value metadata stored in the footer.
	Metadata map[string]string
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Compression:      "snappy",
		RowGroupSize:     64 * 1024,
		PageSize:         1024 * 1024, // 1MB
		EnableDictionary: true,
		EnableStats:      true,
	}
}

// Validate checks the configuration values.
func (c *WriterConfig) Validate() error {
	if _, err := ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.RowGroupSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "row group size must be positive, got %d", c.RowGroupSize)
	}
	if c.PageSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "page size must be positive, got %d", c.PageSize)
	}
	return nil
}

// ReaderConfig configures columnar readers
type ReaderConfig struct {
	BatchSize int
	// MemoryMap maps files opened with OpenFile into memory
	MemoryMap bool
}

// DefaultReaderConfig returns default reader configuration
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{BatchSize: 10000}
}

// ParseCompression maps a codec name to its arrow-go compression. The empty
// string means uncompressed.
func ParseCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4", "lz4_raw":
		return compress.Codecs.Lz4Raw, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeConfig, "unsupported compression %q", name).
			WithDetail("compression", name)
	}
}
