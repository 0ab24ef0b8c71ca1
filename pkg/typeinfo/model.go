package typeinfo

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// Model is a declarative description of a data model:
//
//	types:
//	  Page:
//	    params: [T]
//	    fields:
//	      - {name: items, type: list<T>}
//	      - {name: next, type: string, alias: next_token}
//	  Status:
//	    kind: enum
//	    values: [NEW, PAID]
//
// Builtin names are the primitives (bool, int8 ... int64, uint8 ... uint64,
// float32/float, float64/double), string, bytes, timestamp, uuid, and the
// generic forms list<E>, set<E>, map<K,V> and box<P>. box marks a primitive
// that may be null.
type Model struct {
	Types map[string]*TypeDef `yaml:"types" json:"types"`
}

// TypeDef declares one record or enum.
type TypeDef struct {
	Kind   string     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Params []string   `yaml:"params,omitempty" json:"params,omitempty"`
	Fields []FieldDef `yaml:"fields,omitempty" json:"fields,omitempty"`
	Values []string   `yaml:"values,omitempty" json:"values,omitempty"`
}

// FieldDef declares one record field.
type FieldDef struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Alias   string `yaml:"alias,omitempty" json:"alias,omitempty"`
	NotNull bool   `yaml:"notnull,omitempty" json:"notnull,omitempty"`
}

const (
	kindRecord = "record"
	kindEnum   = "enum"
)

var builtinPrimitives = map[string]PrimitiveType{
	"bool":    Bool,
	"boolean": Bool,
	"int8":    Int8,
	"byte":    Int8,
	"int16":   Int16,
	"short":   Int16,
	"int32":   Int32,
	"int":     Int32,
	"int64":   Int64,
	"long":    Int64,
	"uint8":   Uint8,
	"uint16":  Uint16,
	"uint32":  Uint32,
	"uint64":  Uint64,
	"float32": Float32,
	"float":   Float32,
	"float64": Float64,
	"double":  Float64,
}

// LoadModel reads and validates a YAML model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read model file").
			WithDetail("path", path)
	}
	m, err := ParseModel(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid model file").
			WithDetail("path", path)
	}
	return m, nil
}

// ParseModel decodes and validates a YAML model document.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the declarations without expanding them. Every problem is
// reported, not just the first.
func (m *Model) Validate() error {
	var result *multierror.Error

	for _, name := range m.TypeNames() {
		def := m.Types[name]
		if def == nil {
			result = multierror.Append(result, fmt.Errorf("type %s: empty declaration", name))
			continue
		}
		if _, ok := builtinPrimitives[name]; ok || isBuiltin(name) {
			result = multierror.Append(result, fmt.Errorf("type %s: shadows a builtin type", name))
		}

		switch def.kind() {
		case kindEnum:
			if len(def.Values) == 0 {
				result = multierror.Append(result, fmt.Errorf("enum %s: no values", name))
			}
		case kindRecord:
			seen := make(map[string]bool, len(def.Params))
			for _, p := range def.Params {
				if seen[p] {
					result = multierror.Append(result, fmt.Errorf("record %s: duplicate parameter %s", name, p))
				}
				seen[p] = true
			}
			for i, f := range def.Fields {
				if f.Name == "" {
					result = multierror.Append(result, fmt.Errorf("record %s: field %d has no name", name, i))
				}
				if _, err := ParseTypeExpr(f.Type); err != nil {
					result = multierror.Append(result, fmt.Errorf("record %s: field %s: %w", name, f.Name, err))
				}
			}
		default:
			result = multierror.Append(result, fmt.Errorf("type %s: unknown kind %q", name, def.Kind))
		}
	}

	return result.ErrorOrNil()
}

// TypeNames returns declared type names in sorted order.
func (m *Model) TypeNames() []string {
	names := make([]string, 0, len(m.Types))
	for name := range m.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Type resolves a type expression at the top level of the model, where no
// type parameters are in scope.
func (m *Model) Type(expr string) (Type, error) {
	e, err := ParseTypeExpr(expr)
	if err != nil {
		return nil, err
	}
	return &ModelType{expr: e}, nil
}

// ModelType is a type expression together with the parameter bindings of the
// record instance it was declared in.
type ModelType struct {
	expr  *TypeExpr
	scope map[string]*ModelType // nil value: declared, unbound
}

func (t *ModelType) String() string {
	return t.resolvedName()
}

// resolvedName renders the expression with bound parameters substituted.
func (t *ModelType) resolvedName() string {
	if len(t.expr.Args) == 0 {
		if bound, declared := t.scope[t.expr.Name]; declared && bound != nil {
			return bound.resolvedName()
		}
		return t.expr.Name
	}
	args := make([]string, len(t.expr.Args))
	for i, a := range t.expr.Args {
		args[i] = (&ModelType{expr: a, scope: t.scope}).resolvedName()
	}
	return t.expr.Name + "<" + strings.Join(args, ", ") + ">"
}

func (t *ModelType) arg(i int) *ModelType {
	return &ModelType{expr: t.expr.Args[i], scope: t.scope}
}

// Classify implements Introspector.
func (m *Model) Classify(t Type) (Descriptor, error) {
	mt, ok := t.(*ModelType)
	if !ok || mt == nil {
		return Descriptor{}, errors.Newf(errors.ErrorTypeValidation, "model introspector cannot classify %T", t)
	}

	e := mt.expr
	if len(e.Args) == 0 {
		if bound, declared := mt.scope[e.Name]; declared {
			if bound == nil {
				return Descriptor{Kind: KindUnresolved, Name: e.Name, Param: e.Name}, nil
			}
			return m.Classify(bound)
		}
	}

	name := mt.resolvedName()
	d := Descriptor{Name: e.Name, ID: name}

	switch strings.ToLower(e.Name) {
	case "list", "set", "array":
		return m.generic(mt, d, 1, func(d *Descriptor) {
			d.Kind, d.Elem = KindCollection, mt.arg(0)
		})
	case "map":
		return m.generic(mt, d, 2, func(d *Descriptor) {
			d.Kind, d.Key, d.Value = KindMap, mt.arg(0), mt.arg(1)
		})
	case "box":
		if len(e.Args) != 1 {
			return Descriptor{}, arityError(name, 1)
		}
		inner, err := m.Classify(mt.arg(0))
		if err != nil {
			return Descriptor{}, err
		}
		inner.Boxed = true
		return inner, nil
	}

	if p, ok := builtinPrimitives[e.Name]; ok && len(e.Args) == 0 {
		d.Kind, d.Primitive = KindPrimitive, p
		return d, nil
	}

	switch e.Name {
	case "string":
		d.Kind = KindString
		return d, nil
	case "bytes", "binary":
		d.Kind = KindBinary
		return d, nil
	case "timestamp":
		d.Kind = KindTimestamp
		return d, nil
	case "uuid":
		d.Kind = KindUUID
		return d, nil
	}

	def, ok := m.Types[e.Name]
	if !ok || def == nil {
		d.Reason = "unknown type " + e.Name
		return d, nil
	}

	if def.kind() == kindEnum {
		d.Kind = KindEnum
		return d, nil
	}

	if len(e.Args) > len(def.Params) {
		return Descriptor{}, errors.Newf(errors.ErrorTypeValidation,
			"record %s takes %d type arguments, got %d", e.Name, len(def.Params), len(e.Args))
	}

	scope := make(map[string]*ModelType, len(def.Params))
	for i, p := range def.Params {
		if i < len(e.Args) {
			scope[p] = mt.arg(i)
		} else {
			scope[p] = nil
		}
	}

	fields := make([]Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		fe, err := ParseTypeExpr(f.Type)
		if err != nil {
			return Descriptor{}, errors.Wrap(err, errors.ErrorTypeValidation, "invalid field type").
				WithDetail("field", e.Name+"."+f.Name)
		}
		fields = append(fields, Field{
			Name:    f.Name,
			Alias:   f.Alias,
			NotNull: f.NotNull,
			Type:    &ModelType{expr: fe, scope: scope},
		})
	}

	d.Kind, d.Fields, d.Record = KindComposite, fields, e.Name
	return d, nil
}

// generic classifies list/map forms. A bare `list` or `map` leaves its
// parameters unbound.
func (m *Model) generic(mt *ModelType, d Descriptor, arity int, fill func(*Descriptor)) (Descriptor, error) {
	switch len(mt.expr.Args) {
	case 0:
		d.Kind, d.Param = KindUnresolved, mt.expr.Name
		return d, nil
	case arity:
		fill(&d)
		return d, nil
	default:
		return Descriptor{}, arityError(mt.resolvedName(), arity)
	}
}

func arityError(name string, want int) error {
	return errors.Newf(errors.ErrorTypeValidation, "%s takes %d type arguments", name, want)
}

func (d *TypeDef) kind() string {
	if d.Kind == "" {
		return kindRecord
	}
	return strings.ToLower(d.Kind)
}

func isBuiltin(name string) bool {
	switch strings.ToLower(name) {
	case "list", "set", "array", "map", "box", "string", "bytes", "binary", "timestamp", "uuid":
		return true
	}
	return false
}
