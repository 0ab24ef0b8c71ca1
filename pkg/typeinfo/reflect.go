package typeinfo

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// DefaultTagName is the struct tag read by the reflection binding.
const DefaultTagName = "parquet"

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	enumType = reflect.TypeOf((*Enum)(nil)).Elem()
)

// Reflect classifies Go types through reflection.
//
// Struct tags take the form `parquet:"alias,notnull"`; `parquet:"-"` skips the
// field and `parquet:",notnull"` marks it required without renaming it.
type Reflect struct {
	tagName string
	fields  sync.Map // reflect.Type -> []Field
}

// NewReflect creates a reflection introspector reading the given struct tag.
// An empty tag name selects DefaultTagName.
func NewReflect(tagName string) *Reflect {
	if tagName == "" {
		tagName = DefaultTagName
	}
	return &Reflect{tagName: tagName}
}

// TagName returns the struct tag this introspector reads.
func (r *Reflect) TagName() string { return r.tagName }

// Classify implements Introspector.
func (r *Reflect) Classify(t Type) (Descriptor, error) {
	rt, ok := t.(reflect.Type)
	if !ok || rt == nil {
		return Descriptor{}, errors.Newf(errors.ErrorTypeValidation, "reflection introspector cannot classify %T", t)
	}

	boxed := false
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
		boxed = true
	}

	d := Descriptor{Name: rt.Name(), ID: typeID(rt), Boxed: boxed}

	switch {
	case rt == timeType:
		d.Kind = KindTimestamp
		return d, nil
	case rt == uuidType:
		d.Kind = KindUUID
		return d, nil
	case rt.Implements(enumType) || reflect.PointerTo(rt).Implements(enumType):
		d.Kind = KindEnum
		return d, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		d.Kind, d.Primitive = KindPrimitive, Bool
	case reflect.Int8:
		d.Kind, d.Primitive = KindPrimitive, Int8
	case reflect.Int16:
		d.Kind, d.Primitive = KindPrimitive, Int16
	case reflect.Int32:
		d.Kind, d.Primitive = KindPrimitive, Int32
	case reflect.Int, reflect.Int64:
		d.Kind, d.Primitive = KindPrimitive, Int64
	case reflect.Uint8:
		d.Kind, d.Primitive = KindPrimitive, Uint8
	case reflect.Uint16:
		d.Kind, d.Primitive = KindPrimitive, Uint16
	case reflect.Uint32:
		d.Kind, d.Primitive = KindPrimitive, Uint32
	case reflect.Uint, reflect.Uint64:
		d.Kind, d.Primitive = KindPrimitive, Uint64
	case reflect.Float32:
		d.Kind, d.Primitive = KindPrimitive, Float32
	case reflect.Float64:
		d.Kind, d.Primitive = KindPrimitive, Float64
	case reflect.String:
		d.Kind = KindString
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 && !rt.Elem().Implements(enumType) {
			d.Kind = KindBinary
			break
		}
		d.Kind, d.Elem = KindCollection, rt.Elem()
	case reflect.Array:
		d.Kind, d.Elem = KindCollection, rt.Elem()
	case reflect.Map:
		d.Kind, d.Key, d.Value = KindMap, rt.Key(), rt.Elem()
	case reflect.Struct:
		d.Kind, d.Fields = KindComposite, r.Fields(rt)
		if d.Name == "" {
			d.Name = "schema"
		}
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			d.Kind, d.Param = KindUnresolved, rt.String()
			break
		}
		d.Kind, d.Reason = KindInvalid, "interface types have no fixed shape"
	default:
		d.Kind, d.Reason = KindInvalid, rt.Kind().String()+" has no columnar representation"
	}

	return d, nil
}

// Fields returns the exported, non-skipped fields of a struct type in
// declaration order. Results are memoized per type.
func (r *Reflect) Fields(rt reflect.Type) []Field {
	if cached, ok := r.fields.Load(rt); ok {
		return cached.([]Field)
	}

	fields := make([]Field, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(r.tagName)
		if tag == "-" {
			continue
		}
		alias, notNull := parseTag(tag)
		fields = append(fields, Field{
			Name:    sf.Name,
			Alias:   alias,
			NotNull: notNull,
			Type:    sf.Type,
			Index:   sf.Index,
		})
	}

	actual, _ := r.fields.LoadOrStore(rt, fields)
	return actual.([]Field)
}

func parseTag(tag string) (alias string, notNull bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	alias = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "notnull", "required":
			notNull = true
		}
	}
	return alias, notNull
}

func typeID(rt reflect.Type) string {
	if rt.Name() != "" && rt.PkgPath() != "" {
		return rt.PkgPath() + "." + rt.Name()
	}
	return rt.String()
}
