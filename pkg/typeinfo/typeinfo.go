// Package typeinfo classifies data-model types for schema derivation.
//
// An Introspector turns an opaque Type handle into a Descriptor naming exactly
// one Kind. Two bindings ship with the package:
//
//   - Reflect classifies Go types through the reflect package, reading field
//     aliases and not-null markers from struct tags.
//   - Model classifies types declared in a YAML document, including records
//     with type parameters bound at the point of use.
//
// Any other host description (generated code, a registry, a schema file) can
// plug into the builder by implementing Introspector.
package typeinfo

import "fmt"

// Type is an opaque handle to a data-model type. reflect.Type satisfies it.
type Type interface {
	String() string
}

// Introspector classifies types. Implementations must be safe for concurrent
// use by independent schema builds.
type Introspector interface {
	Classify(t Type) (Descriptor, error)
}

// Enum is implemented by Go types that should be stored as enumerations
// rather than by their underlying kind.
type Enum interface {
	EnumValues() []string
}

// Kind is the classification of a type. Every type maps to exactly one Kind;
// KindInvalid means no classification applies.
type Kind int

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindString
	KindComposite
	KindEnum
	KindCollection
	KindMap
	KindUnresolved
	KindBinary
	KindTimestamp
	KindUUID
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindPrimitive:  "primitive",
	KindString:     "string",
	KindComposite:  "composite",
	KindEnum:       "enum",
	KindCollection: "collection",
	KindMap:        "map",
	KindUnresolved: "unresolved",
	KindBinary:     "binary",
	KindTimestamp:  "timestamp",
	KindUUID:       "uuid",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsScalar reports whether the kind maps to a single leaf column.
func (k Kind) IsScalar() bool {
	switch k {
	case KindPrimitive, KindString, KindEnum, KindBinary, KindTimestamp, KindUUID:
		return true
	}
	return false
}

// PrimitiveType identifies a numeric or boolean primitive.
type PrimitiveType int

const (
	Bool PrimitiveType = iota + 1
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var primitiveNames = map[PrimitiveType]string{
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (p PrimitiveType) String() string {
	if s, ok := primitiveNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PrimitiveType(%d)", int(p))
}

// BitWidth returns the width in bits of integer primitives, 0 otherwise.
func (p PrimitiveType) BitWidth() int {
	switch p {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32:
		return 32
	case Int64, Uint64:
		return 64
	}
	return 0
}

// Signed reports whether an integer primitive is signed.
func (p PrimitiveType) Signed() bool {
	switch p {
	case Uint8, Uint16, Uint32, Uint64:
		return false
	}
	return true
}

// Descriptor is the classification of one type. Only the fields relevant to
// Kind are populated.
type Descriptor struct {
	Kind Kind
	// Name is the short display name, used to name root groups.
	Name string
	// ID identifies the resolved type, including its type arguments.
	ID string
	// Record is the declared record a composite was instantiated from. It is
	// empty when ID already identifies the declaration.
	Record string

	// Primitive is set for KindPrimitive.
	Primitive PrimitiveType
	// Boxed is set when the type was reached through a wrapper (a pointer in
	// Go, box<T> in a model) and can therefore hold a null.
	Boxed bool

	// Fields lists a composite's members in declaration order.
	Fields []Field
	// Elem is the element type of a collection.
	Elem Type
	// Key and Value are the type arguments of a map.
	Key   Type
	Value Type

	// Param names the unbound parameter for KindUnresolved.
	Param string
	// Reason explains a KindInvalid classification.
	Reason string
}

// Field is one declared member of a composite.
type Field struct {
	Name    string
	Alias   string
	NotNull bool
	Type    Type
	// Index is the reflect field index path; nil for model fields.
	Index []int
}
