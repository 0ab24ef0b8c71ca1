package schemagen

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/logger"
	"github.com/ajitpratap0/colschema/pkg/metrics"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

// noFieldID leaves parquet field ids unset.
const noFieldID = -1

// Builder derives schemas with a fixed introspector and list encoding.
type Builder struct {
	introspector typeinfo.Introspector
	encoding     ListEncoding
	logger       *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithListEncoding selects the repeated-field layout.
func WithListEncoding(e ListEncoding) Option {
	return func(b *Builder) {
		b.encoding = e
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a builder over the given introspector.
func NewBuilder(introspector typeinfo.Introspector, opts ...Option) *Builder {
	b := &Builder{
		introspector: introspector,
		encoding:     DefaultListEncoding,
		logger:       logger.Get(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// For derives the schema of T using the reflection binding.
func For[T any](opts ...Option) (*schema.GroupNode, error) {
	return NewBuilder(typeinfo.NewReflect(""), opts...).Build(reflect.TypeFor[T]())
}

// Encoding returns the builder's list encoding.
func (b *Builder) Encoding() ListEncoding { return b.encoding }

// Introspector returns the builder's type introspector.
func (b *Builder) Introspector() typeinfo.Introspector { return b.introspector }

// Build derives the schema root for a record type. The returned group is
// named after the record and must not be modified.
func (b *Builder) Build(root typeinfo.Type) (*schema.GroupNode, error) {
	timer := metrics.NewTimer()
	node, err := b.build(root)
	elapsed := timer.Stop()
	metrics.ObserveBuild(b.encoding.String(), err, elapsed)

	if err != nil {
		b.logger.Debug("schema derivation failed",
			zap.Stringer("root_type", root),
			zap.Stringer("encoding", b.encoding),
			zap.Error(err))
		return nil, err
	}

	b.logger.Debug("derived schema",
		zap.Stringer("root_type", root),
		zap.Stringer("encoding", b.encoding),
		zap.Int("fields", node.NumFields()),
		zap.Duration("elapsed", elapsed))
	return node, nil
}

// BuildSchema is Build wrapped as a complete parquet schema.
func (b *Builder) BuildSchema(root typeinfo.Type) (*schema.Schema, error) {
	node, err := b.Build(root)
	if err != nil {
		return nil, err
	}
	return schema.NewSchema(node), nil
}

func (b *Builder) build(root typeinfo.Type) (*schema.GroupNode, error) {
	if root == nil {
		return nil, errors.New(errors.ErrorTypeNotAComposite, "no root type given")
	}
	if b.encoding < OneLevel || b.encoding > ThreeLevel {
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid list encoding %d", int(b.encoding))
	}

	d, err := b.introspector.Classify(root)
	if err != nil {
		return nil, err
	}
	if d.Kind != typeinfo.KindComposite {
		return nil, errors.Newf(errors.ErrorTypeNotAComposite, "root type %s is a %s, not a record", root, d.Kind).
			WithDetail("type", root.String()).
			WithDetail("encoding", b.encoding.String())
	}

	s := &state{
		introspector: b.introspector,
		encoding:     b.encoding,
		visited:      make(map[string]struct{}),
		path:         []string{d.Name},
	}
	return s.composite(d.Name, parquet.Repetitions.Repeated, d)
}

// state is the per-build recursion context. visited holds the composites on
// the current expansion path only; entries are removed once a composite's
// fields are fully expanded so sibling branches may reuse the type.
type state struct {
	introspector typeinfo.Introspector
	encoding     ListEncoding
	visited      map[string]struct{}
	path         []string
}

func (s *state) push(name string) { s.path = append(s.path, name) }
func (s *state) pop()             { s.path = s.path[:len(s.path)-1] }

func (s *state) fail(kind errors.ErrorType, format string, args ...interface{}) *errors.Error {
	return errors.Newf(kind, format, args...).
		WithDetail("field", strings.Join(s.path, ".")).
		WithDetail("encoding", s.encoding.String())
}

// classify asks the introspector and tags failures with the current path.
func (s *state) classify(t typeinfo.Type) (typeinfo.Descriptor, error) {
	d, err := s.introspector.Classify(t)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			if _, ok := e.Details["field"]; !ok {
				e.WithDetail("field", strings.Join(s.path, "."))
			}
			return d, e
		}
		return d, errors.Wrap(err, errors.ErrorTypeValidation, "failed to classify type").
			WithDetail("field", strings.Join(s.path, "."))
	}
	return d, nil
}

func (s *state) composite(name string, rep parquet.Repetition, d typeinfo.Descriptor) (*schema.GroupNode, error) {
	// generic records recurse by declaration, whatever their arguments
	key := d.Record
	if key == "" {
		key = d.ID
	}
	if _, ok := s.visited[key]; ok {
		return nil, s.fail(errors.ErrorTypeRecursiveType, "record %s refers back to itself", d.Name).
			WithDetail("type", d.ID)
	}
	s.visited[key] = struct{}{}
	defer delete(s.visited, key)

	fields := make(schema.FieldList, 0, len(d.Fields))
	seen := make(map[string]struct{}, len(d.Fields))

	for _, f := range d.Fields {
		s.push(f.Name)
		fd, err := s.classify(f.Type)
		if err != nil {
			return nil, err
		}

		policy := ResolveField(f, fd)
		if _, dup := seen[policy.Name]; dup {
			return nil, s.fail(errors.ErrorTypeDuplicateField, "record %s declares %q twice", d.Name, policy.Name).
				WithDetail("type", d.ID)
		}
		seen[policy.Name] = struct{}{}

		n, err := s.node(policy.Name, policy.Repetition, fd)
		if err != nil {
			return nil, err
		}
		s.pop()
		fields = append(fields, n)
	}

	return group(schema.NewGroupNode(name, rep, fields, noFieldID))
}

// node builds the schema node for one classified type.
func (s *state) node(name string, rep parquet.Repetition, d typeinfo.Descriptor) (schema.Node, error) {
	switch d.Kind {
	case typeinfo.KindPrimitive:
		return primitive(name, rep, d.Primitive)
	case typeinfo.KindString:
		return leaf(schema.NewPrimitiveNodeLogical(name, rep, schema.StringLogicalType{}, parquet.Types.ByteArray, -1, noFieldID))
	case typeinfo.KindEnum:
		return leaf(schema.NewPrimitiveNodeLogical(name, rep, schema.EnumLogicalType{}, parquet.Types.ByteArray, -1, noFieldID))
	case typeinfo.KindBinary:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.ByteArray, noFieldID, -1))
	case typeinfo.KindTimestamp:
		return leaf(schema.NewPrimitiveNodeLogical(name, rep,
			schema.NewTimestampLogicalType(true, schema.TimeUnitMicros), parquet.Types.Int64, -1, noFieldID))
	case typeinfo.KindUUID:
		return leaf(schema.NewPrimitiveNodeLogical(name, rep, schema.UUIDLogicalType{}, parquet.Types.FixedLenByteArray, 16, noFieldID))
	case typeinfo.KindComposite:
		n, err := s.composite(name, rep, d)
		if err != nil {
			return nil, err
		}
		return n, nil
	case typeinfo.KindCollection:
		return s.list(name, rep, d)
	case typeinfo.KindMap:
		return s.mapOf(name, rep, d)
	case typeinfo.KindUnresolved:
		return nil, s.fail(errors.ErrorTypeUnsupportedGeneric, "type parameter %s is not bound to a concrete type", d.Param)
	default:
		reason := d.Reason
		if reason == "" {
			reason = "no columnar representation"
		}
		return nil, s.fail(errors.ErrorTypeUnsupportedType, "unsupported type %s: %s", d.Name, reason)
	}
}

func primitive(name string, rep parquet.Repetition, p typeinfo.PrimitiveType) (schema.Node, error) {
	switch p {
	case typeinfo.Bool:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.Boolean, noFieldID, -1))
	case typeinfo.Int32:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.Int32, noFieldID, -1))
	case typeinfo.Int64:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.Int64, noFieldID, -1))
	case typeinfo.Int8, typeinfo.Int16, typeinfo.Uint8, typeinfo.Uint16, typeinfo.Uint32:
		// no 8/16-bit physical type exists; narrow widths fold into INT32
		logical := schema.NewIntLogicalType(int8(p.BitWidth()), p.Signed())
		return leaf(schema.NewPrimitiveNodeLogical(name, rep, logical, parquet.Types.Int32, -1, noFieldID))
	case typeinfo.Uint64:
		logical := schema.NewIntLogicalType(64, false)
		return leaf(schema.NewPrimitiveNodeLogical(name, rep, logical, parquet.Types.Int64, -1, noFieldID))
	case typeinfo.Float32:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.Float, noFieldID, -1))
	case typeinfo.Float64:
		return leaf(schema.NewPrimitiveNode(name, rep, parquet.Types.Double, noFieldID, -1))
	}
	return nil, errors.Newf(errors.ErrorTypeInternal, "unknown primitive %s", p)
}

func leaf(n *schema.PrimitiveNode, err error) (schema.Node, error) {
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create primitive node")
	}
	return n, nil
}

func group(n *schema.GroupNode, err error) (*schema.GroupNode, error) {
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create group node")
	}
	return n, nil
}
