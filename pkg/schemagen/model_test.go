package schemagen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colschema/pkg/errors"
	tu "github.com/ajitpratap0/colschema/pkg/testutil"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

const catalogModel = `
types:
  Line:
    fields:
      - {name: sku, type: string, notnull: true}
      - {name: qty, type: int32}
  Page:
    params: [T]
    fields:
      - {name: items, type: list<T>}
      - {name: cursor, type: box<int64>}
  Catalog:
    fields:
      - {name: id, type: uuid, notnull: true}
      - {name: lines, type: Page<Line>}
      - {name: prices, type: "map<string, double>"}
      - {name: created, type: timestamp}
  Loose:
    fields:
      - {name: page, type: Page}
  Bare:
    fields:
      - {name: anything, type: list}
  Cycle:
    fields:
      - {name: children, type: "map<string, Cycle>"}
  Node:
    params: [T]
    fields:
      - {name: v, type: T}
      - {name: next, type: "Node<list<T>>"}
  Bad:
    fields:
      - {name: ghost, type: Missing}
  Status:
    kind: enum
    values: [OPEN, CLOSED]
`

func loadModel(t *testing.T) *typeinfo.Model {
	t.Helper()
	m, err := typeinfo.ParseModel([]byte(catalogModel))
	require.NoError(t, err)
	return m
}

func buildModel(t *testing.T, m *typeinfo.Model, expr string, enc ListEncoding) (string, error) {
	t.Helper()
	typ, err := m.Type(expr)
	require.NoError(t, err)
	n, err := NewBuilder(m, WithListEncoding(enc), WithLogger(tu.TestLogger(t))).Build(typ)
	if err != nil {
		return "", err
	}
	return tu.Shape(n), nil
}

func TestModelBuild(t *testing.T) {
	m := loadModel(t)

	got, err := buildModel(t, m, "Catalog", ThreeLevel)
	require.NoError(t, err)
	assert.Equal(t, "repeated group Catalog {"+
		"required fixed_len_byte_array id (UUID); "+
		"optional group lines {"+
		"optional group items (List) {repeated group list {optional group element {"+
		"required byte_array sku (String); required int32 qty}}}; "+
		"optional int64 cursor}; "+
		"optional group prices (Map) {repeated group key_value {"+
		"required byte_array key (String); optional double value}}; "+
		"optional int64 created (Timestamp(isAdjustedToUTC=true, timeUnit=microseconds, "+
		"is_from_converted_type=false, force_set_converted_type=false))}", got)

	got, err = buildModel(t, m, "Page<Line>", OneLevel)
	require.NoError(t, err)
	assert.Equal(t, "repeated group Page {"+
		"repeated group items {required byte_array sku (String); required int32 qty}; "+
		"optional int64 cursor}", got)
}

func TestModelBuildErrors(t *testing.T) {
	m := loadModel(t)

	tests := []struct {
		expr  string
		kind  errors.ErrorType
		field string
	}{
		{"Loose", errors.ErrorTypeUnsupportedGeneric, "Loose.page.items.element"},
		{"Page", errors.ErrorTypeUnsupportedGeneric, "Page.items.element"},
		{"Bare", errors.ErrorTypeUnsupportedGeneric, "Bare.anything"},
		{"Cycle", errors.ErrorTypeRecursiveType, "Cycle.children.value"},
		{"Node<int32>", errors.ErrorTypeRecursiveType, "Node.next"},
		{"Bad", errors.ErrorTypeUnsupportedType, "Bad.ghost"},
		{"Status", errors.ErrorTypeNotAComposite, ""},
		{"list<Line>", errors.ErrorTypeNotAComposite, ""},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := buildModel(t, m, tt.expr, ThreeLevel)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.TypeOf(err), err.Error())
			if tt.field != "" {
				field, ok := errors.Detail(err, "field")
				require.True(t, ok)
				assert.Equal(t, tt.field, field)
			}
		})
	}
}
