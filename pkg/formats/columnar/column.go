package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// column buffers the values and levels of one leaf until its row group is
// flushed. Only the value slice matching the leaf's physical type is used.
type column struct {
	desc *schema.Column

	defs []int16
	reps []int16

	bools    []bool
	int32s   []int32
	int64s   []int64
	float32s []float32
	float64s []float64
	bytes    []parquet.ByteArray
	fixed    []parquet.FixedLenByteArray
}

func (c *column) level(def, rep int16) {
	c.defs = append(c.defs, def)
	c.reps = append(c.reps, rep)
}

// values reports how many non-null values are buffered.
func (c *column) values() int {
	return len(c.bools) + len(c.int32s) + len(c.int64s) + len(c.float32s) +
		len(c.float64s) + len(c.bytes) + len(c.fixed)
}

// mark is a column's buffered length at a row boundary.
type mark struct {
	levels, values int
}

func (c *column) mark() mark {
	return mark{levels: len(c.defs), values: c.values()}
}

// rollback truncates the buffers back to m. Only one value slice is ever
// non-empty, so each is cut to at most m.values.
func (c *column) rollback(m mark) {
	c.defs = c.defs[:m.levels]
	c.reps = c.reps[:m.levels]
	c.bools = c.bools[:min(len(c.bools), m.values)]
	c.int32s = c.int32s[:min(len(c.int32s), m.values)]
	c.int64s = c.int64s[:min(len(c.int64s), m.values)]
	c.float32s = c.float32s[:min(len(c.float32s), m.values)]
	c.float64s = c.float64s[:min(len(c.float64s), m.values)]
	c.bytes = c.bytes[:min(len(c.bytes), m.values)]
	c.fixed = c.fixed[:min(len(c.fixed), m.values)]
}

func (c *column) reset() {
	c.defs = c.defs[:0]
	c.reps = c.reps[:0]
	c.bools = c.bools[:0]
	c.int32s = c.int32s[:0]
	c.int64s = c.int64s[:0]
	c.float32s = c.float32s[:0]
	c.float64s = c.float64s[:0]
	c.bytes = c.bytes[:0]
	c.fixed = c.fixed[:0]
}

// writeTo hands the buffered column chunk to the file writer.
func (c *column) writeTo(cw file.ColumnChunkWriter) error {
	defs, reps := c.defs, c.reps
	if c.desc.MaxDefinitionLevel() == 0 {
		defs = nil
	}
	if c.desc.MaxRepetitionLevel() == 0 {
		reps = nil
	}

	var err error
	switch w := cw.(type) {
	case *file.BooleanColumnChunkWriter:
		_, err = w.WriteBatch(c.bools, defs, reps)
	case *file.Int32ColumnChunkWriter:
		_, err = w.WriteBatch(c.int32s, defs, reps)
	case *file.Int64ColumnChunkWriter:
		_, err = w.WriteBatch(c.int64s, defs, reps)
	case *file.Float32ColumnChunkWriter:
		_, err = w.WriteBatch(c.float32s, defs, reps)
	case *file.Float64ColumnChunkWriter:
		_, err = w.WriteBatch(c.float64s, defs, reps)
	case *file.ByteArrayColumnChunkWriter:
		_, err = w.WriteBatch(c.bytes, defs, reps)
	case *file.FixedLenByteArrayColumnChunkWriter:
		_, err = w.WriteBatch(c.fixed, defs, reps)
	default:
		return fmt.Errorf("column %s: unsupported chunk writer %T", c.desc.Path(), cw)
	}
	return err
}
