package schemagen

import (
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

// Names of the synthetic nodes inserted by list and map layouts.
const (
	ListGroupName = "list"
	ElementName   = "element"
	KeyValueName  = "key_value"
	MapKeyName    = "key"
	MapValueName  = "value"
)

// list builds a collection field in the active encoding.
func (s *state) list(name string, rep parquet.Repetition, d typeinfo.Descriptor) (schema.Node, error) {
	s.push(ElementName)
	elem, err := s.classify(d.Elem)
	if err != nil {
		return nil, err
	}
	s.pop()

	switch s.encoding {
	case OneLevel:
		if elem.Kind == typeinfo.KindCollection {
			return nil, s.fail(errors.ErrorTypeUnsupportedNesting,
				"collection %s holds another collection, which one-level lists cannot express", name)
		}
		// the field itself repeats; its nullability is lost
		return s.node(name, parquet.Repetitions.Repeated, elem)

	case TwoLevel:
		s.push(ElementName)
		inner, err := s.node(ElementName, parquet.Repetitions.Repeated, elem)
		if err != nil {
			return nil, err
		}
		s.pop()
		return listGroup(name, rep, inner)

	default:
		s.push(ElementName)
		inner, err := s.node(ElementName, parquet.Repetitions.Optional, elem)
		if err != nil {
			return nil, err
		}
		s.pop()
		mid, err := group(schema.NewGroupNode(ListGroupName, parquet.Repetitions.Repeated, schema.FieldList{inner}, noFieldID))
		if err != nil {
			return nil, err
		}
		return listGroup(name, rep, mid)
	}
}

func listGroup(name string, rep parquet.Repetition, child schema.Node) (schema.Node, error) {
	n, err := schema.NewGroupNodeLogical(name, rep, schema.FieldList{child}, schema.ListLogicalType{}, noFieldID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create list node")
	}
	return n, nil
}

// mapOf builds a MAP-annotated group with a required key and an optional
// value. Collections and maps as values are nested with optional repetition.
// Under OneLevel a collection value would itself be the repeated node, and
// the parquet MAP layout only allows a required or optional value field, so
// such maps fail with UnsupportedNesting.
func (s *state) mapOf(name string, rep parquet.Repetition, d typeinfo.Descriptor) (schema.Node, error) {
	s.push(MapKeyName)
	kd, err := s.classify(d.Key)
	if err != nil {
		return nil, err
	}
	switch kd.Kind {
	case typeinfo.KindCollection, typeinfo.KindMap, typeinfo.KindInvalid:
		return nil, s.fail(errors.ErrorTypeUnsupportedMapValue, "map %s has a %s key", name, kd.Kind).
			WithDetail("key", d.Key.String())
	}
	key, err := s.node(MapKeyName, parquet.Repetitions.Required, kd)
	if err != nil {
		return nil, err
	}
	s.pop()

	s.push(MapValueName)
	vd, err := s.classify(d.Value)
	if err != nil {
		return nil, err
	}
	switch {
	case vd.Kind == typeinfo.KindInvalid:
		reason := vd.Reason
		if reason == "" {
			reason = "no columnar representation"
		}
		return nil, s.fail(errors.ErrorTypeUnsupportedMapValue, "map %s value %s: %s", name, d.Value, reason).
			WithDetail("value", d.Value.String())
	case vd.Kind == typeinfo.KindCollection && s.encoding == OneLevel:
		return nil, s.fail(errors.ErrorTypeUnsupportedNesting,
			"map %s has a collection value, which one-level lists cannot express", name)
	}
	value, err := s.node(MapValueName, parquet.Repetitions.Optional, vd)
	if err != nil {
		return nil, err
	}
	s.pop()

	kv, err := group(schema.NewGroupNode(KeyValueName, parquet.Repetitions.Repeated, schema.FieldList{key, value}, noFieldID))
	if err != nil {
		return nil, err
	}
	n, err := schema.NewGroupNodeLogical(name, rep, schema.FieldList{kv}, schema.MapLogicalType{}, noFieldID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create map node")
	}
	return n, nil
}
