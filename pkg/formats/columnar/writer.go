package columnar

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/logger"
	"github.com/ajitpratap0/colschema/pkg/metrics"
	"github.com/ajitpratap0/colschema/pkg/observability"
	"github.com/ajitpratap0/colschema/pkg/schemagen"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

const createdBy = "colschema"

// schemas shares derived roots between writers using the same struct tag.
var schemas sync.Map // tag -> *schemagen.Cache

func deriveSchema(refl *typeinfo.Reflect, tag string, rt reflect.Type, opts []schemagen.Option) (*schema.GroupNode, schemagen.ListEncoding, error) {
	builder := schemagen.NewBuilder(refl, opts...)
	v, _ := schemas.LoadOrStore(tag, schemagen.NewCache(schemagen.NewBuilder(refl)))
	root, err := v.(*schemagen.Cache).GetWith(builder, rt)
	return root, builder.Encoding(), err
}

// Writer writes rows of T to a parquet file whose schema is derived from T.
// A Writer is not safe for concurrent use.
type Writer[T any] struct {
	config   *WriterConfig
	root     *schema.GroupNode
	encoding schemagen.ListEncoding
	shredder *shredder
	out      *countingWriter
	file     *file.Writer
	logger   *zap.Logger

	buffered int
	rows     int64
	reported int64
	closed   bool
}

// NewWriter derives the schema of T and starts a parquet file on w. Builder
// options select the list encoding and the derivation logger; the struct tag
// comes from the config. Derived schemas are shared by every writer of T with
// the same tag and encoding, so a cached schema is not derived or logged again.
func NewWriter[T any](w io.Writer, config *WriterConfig, opts ...schemagen.Option) (*Writer[T], error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	codec, _ := ParseCompression(config.Compression)

	refl := typeinfo.NewReflect(config.TagName)
	rt := reflect.TypeFor[T]()
	root, encoding, err := deriveSchema(refl, config.TagName, rt, opts)
	if err != nil {
		return nil, err
	}

	sh, err := newShredder(root, rt, refl)
	if err != nil {
		return nil, err
	}

	kv := metadata.NewKeyValueMetadata()
	for k, v := range config.Metadata {
		if err := kv.Append(k, v); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid file metadata").WithDetail("key", k)
		}
	}
	if err := kv.Append(MetaFingerprint, schemagen.FingerprintString(root)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "file metadata already has a fingerprint")
	}
	if err := kv.Append(MetaListEncoding, encoding.String()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "file metadata already has a list encoding")
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(config.EnableDictionary),
		parquet.WithDataPageSize(int64(config.PageSize)),
		parquet.WithStats(config.EnableStats),
		parquet.WithCreatedBy(createdBy),
	)

	out := &countingWriter{w: w}
	pw := &Writer[T]{
		config:   config,
		root:     root,
		encoding: encoding,
		shredder: sh,
		out:      out,
		logger:   logger.With(zap.String("root_type", root.Name())),
	}
	pw.file = file.NewParquetWriter(out, root, file.WithWriterProps(props), file.WithWriteMetadata(kv))
	pw.report()

	pw.logger.Debug("opened parquet writer",
		zap.Stringer("encoding", pw.encoding),
		zap.String("compression", codec.String()),
		zap.Int("columns", len(sh.cols)))
	return pw, nil
}

// Schema returns the derived root of the file schema.
func (pw *Writer[T]) Schema() *schema.GroupNode { return pw.root }

// Encoding returns the list encoding the file is written with.
func (pw *Writer[T]) Encoding() schemagen.ListEncoding { return pw.encoding }

// RowsWritten returns the number of rows accepted so far, flushed or not.
func (pw *Writer[T]) RowsWritten() int64 { return pw.rows }

// BytesWritten returns the bytes that have reached the underlying stream.
func (pw *Writer[T]) BytesWritten() int64 { return pw.out.Count() }

// Write shreds rows into the current row group, flushing it whenever it
// reaches the configured size. A row that cannot be shredded is rejected
// whole and the rows before it are kept.
func (pw *Writer[T]) Write(rows ...T) error {
	if pw.closed {
		return errors.New(errors.ErrorTypeFile, "write on closed parquet writer")
	}
	for i := range rows {
		if err := pw.shredder.shred(reflect.ValueOf(&rows[i]).Elem()); err != nil {
			return err
		}
		pw.buffered++
		pw.rows++
		metrics.RowsWritten.WithLabelValues(pw.root.Name()).Inc()

		if pw.buffered >= pw.config.RowGroupSize {
			if err := pw.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes the buffered rows as one row group. It is a no-op when
// nothing is buffered.
func (pw *Writer[T]) Flush() (err error) {
	if pw.closed {
		return errors.New(errors.ErrorTypeFile, "flush on closed parquet writer")
	}
	if pw.buffered == 0 {
		return nil
	}

	_, span := observability.StartSpan(context.Background(), "columnar.FlushRowGroup")
	span.SetAttribute("root_type", pw.root.Name())
	span.SetAttribute("rows", pw.buffered)
	span.SetAttribute("columns", len(pw.shredder.cols))
	defer func() { span.End(err) }()

	rg := pw.file.AppendRowGroup()
	for _, col := range pw.shredder.cols {
		cw, err := rg.NextColumn()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to open column chunk").
				WithDetail("column", col.desc.Path())
		}
		if err := col.writeTo(cw); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write column chunk").
				WithDetail("column", col.desc.Path())
		}
	}
	if err := rg.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close row group")
	}

	pw.logger.Debug("flushed row group", zap.Int("rows", pw.buffered))
	pw.shredder.reset()
	pw.buffered = 0
	pw.report()
	return nil
}

// Close flushes buffered rows, writes the footer and closes w when it is an
// io.Closer. Calling Close again has no effect.
func (pw *Writer[T]) Close() error {
	if pw.closed {
		return nil
	}
	if err := pw.Flush(); err != nil {
		return err
	}
	pw.closed = true

	if err := pw.file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close parquet file")
	}
	pw.report()

	pw.logger.Debug("closed parquet writer",
		zap.Int64("rows", pw.rows),
		zap.Int64("bytes", pw.out.Count()))
	return nil
}

// report adds the bytes written since the last call to the byte counter.
func (pw *Writer[T]) report() {
	n := pw.out.Count()
	if delta := n - pw.reported; delta > 0 {
		metrics.BytesWritten.WithLabelValues(pw.root.Name()).Add(float64(delta))
	}
	pw.reported = n
}
