package columnar

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/json"
	"github.com/ajitpratap0/colschema/pkg/logger"
	"github.com/ajitpratap0/colschema/pkg/metrics"
)

// Reader streams the rows of a parquet file as JSON-shaped maps: records
// become map[string]any, lists []any, maps a list of {"key", "value"}
// objects, and numbers float64. A Reader is not safe for concurrent use.
type Reader struct {
	config  *ReaderConfig
	file    *file.Reader
	arrow   *pqarrow.FileReader
	records pqarrow.RecordReader
	current arrow.Record
	row     int
	read    int64
	logger  *zap.Logger
}

// NewReader opens a parquet file over r.
func NewReader(r parquet.ReaderAtSeeker, config *ReaderConfig) (*Reader, error) {
	fr, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open parquet file")
	}
	return newReader(fr, config, logger.Get())
}

// OpenFile opens the parquet file at path. Closing the reader closes the file.
func OpenFile(path string, config *ReaderConfig) (*Reader, error) {
	if config == nil {
		config = DefaultReaderConfig()
	}
	fr, err := file.OpenParquetFile(path, config.MemoryMap)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open parquet file").WithDetail("path", path)
	}
	return newReader(fr, config, logger.With(zap.String("file", path)))
}

func newReader(fr *file.Reader, config *ReaderConfig, log *zap.Logger) (*Reader, error) {
	if config == nil {
		config = DefaultReaderConfig()
	}
	if config.BatchSize <= 0 {
		_ = fr.Close()
		return nil, errors.Newf(errors.ErrorTypeConfig, "batch size must be positive, got %d", config.BatchSize)
	}

	ar, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{BatchSize: int64(config.BatchSize)}, memory.NewGoAllocator())
	if err != nil {
		_ = fr.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow reader")
	}

	log.Debug("opened parquet reader",
		zap.Int64("rows", fr.NumRows()),
		zap.Int("row_groups", fr.NumRowGroups()))
	return &Reader{config: config, file: fr, arrow: ar, logger: log}, nil
}

// Schema returns the file schema.
func (r *Reader) Schema() *schema.Schema { return r.file.MetaData().Schema }

// NumRows returns the row count recorded in the footer.
func (r *Reader) NumRows() int64 { return r.file.NumRows() }

// NumRowGroups returns the number of row groups in the file.
func (r *Reader) NumRowGroups() int { return r.file.NumRowGroups() }

// RowsRead returns the number of rows returned by Next so far.
func (r *Reader) RowsRead() int64 { return r.read }

// Metadata looks up a footer key/value entry.
func (r *Reader) Metadata(key string) (string, bool) {
	v := r.file.MetaData().KeyValueMetadata().FindValue(key)
	if v == nil {
		return "", false
	}
	return *v, true
}

// Next returns the next row, or io.EOF after the last one.
func (r *Reader) Next() (map[string]any, error) {
	for r.current == nil || r.row >= int(r.current.NumRows()) {
		if err := r.loadNextBatch(); err != nil {
			return nil, err
		}
	}

	row, err := r.decode(r.row)
	if err != nil {
		return nil, err
	}
	r.row++
	r.read++
	metrics.RowsRead.Inc()
	return row, nil
}

// ReadAll returns every remaining row.
func (r *Reader) ReadAll() ([]map[string]any, error) {
	rows := make([]map[string]any, 0, max(r.NumRows()-r.read, 0))
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Close releases the reader and its file.
func (r *Reader) Close() error {
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
	if r.records != nil {
		r.records.Release()
		r.records = nil
	}
	return r.file.Close()
}

func (r *Reader) loadNextBatch() error {
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}

	if r.records == nil {
		rr, err := r.arrow.GetRecordReader(context.Background(), nil, nil)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to read row groups")
		}
		r.records = rr
	}

	if !r.records.Next() {
		if err := r.records.Err(); err != nil && err != io.EOF {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode record batch")
		}
		return io.EOF
	}
	r.current = r.records.Record()
	r.current.Retain()
	r.row = 0
	return nil
}

// decode renders one row through arrow's JSON marshalling and reads it back
// so nested values come out as plain maps and slices.
func (r *Reader) decode(i int) (map[string]any, error) {
	fields := r.current.Schema().Fields()
	raw := make(map[string]any, len(fields))
	for c, f := range fields {
		raw[f.Name] = r.current.Column(c).GetOneForMarshal(i)
	}

	row := make(map[string]any, len(fields))
	if err := json.Normalize(raw, &row); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode row").WithDetail("row", r.read)
	}
	return row, nil
}
