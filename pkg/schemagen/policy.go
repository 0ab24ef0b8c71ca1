package schemagen

import (
	"github.com/apache/arrow-go/v18/parquet"

	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

// FieldDescriptor is the resolved external shape of one record field.
type FieldDescriptor struct {
	Name       string
	Repetition parquet.Repetition
}

// ResolveField applies the naming and nullability policy to a field whose
// type has already been classified as d.
//
// The alias, when present, replaces the declared name verbatim. Unboxed
// primitives are always required; every other type is optional unless the
// field carries a not-null marker.
func ResolveField(f typeinfo.Field, d typeinfo.Descriptor) FieldDescriptor {
	name := f.Name
	if f.Alias != "" {
		name = f.Alias
	}

	rep := parquet.Repetitions.Optional
	if (d.Kind == typeinfo.KindPrimitive && !d.Boxed) || f.NotNull {
		rep = parquet.Repetitions.Required
	}

	return FieldDescriptor{Name: name, Repetition: rep}
}
