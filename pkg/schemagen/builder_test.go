package schemagen

import (
	"reflect"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/metrics"
	tu "github.com/ajitpratap0/colschema/pkg/testutil"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

var (
	repRequired = parquet.Repetitions.Required
	repOptional = parquet.Repetitions.Optional
)

type Point struct {
	X int32 `parquet:"x"`
	Y int32 `parquet:"y"`
}

type Person struct {
	Name string `parquet:"name"`
	Age  *int32 `parquet:"age"`
}

type Matrix struct {
	Rows [][]int32 `parquet:"rows"`
}

type Scores struct {
	ByName map[string]*int32 `parquet:"by_name"`
}

type Line struct {
	SKU string `parquet:"sku"`
	Qty int32  `parquet:"qty"`
}

type Order struct {
	Lines []Line `parquet:"lines"`
}

type Tags struct {
	Values []int32 `parquet:"values"`
}

type Tree struct {
	Value    int32
	Children []Tree
}

type Chain struct {
	Next *Chain
}

type Left struct {
	Right *Right
}

type Right struct {
	Left *Left
}

type Segment struct {
	From Point `parquet:"from"`
	To   Point `parquet:"to"`
}

type Clash struct {
	A int32 `parquet:"x"`
	B int32 `parquet:"x"`
}

type Holder struct {
	Value any
}

type Pipe struct {
	C chan int
}

type Strict struct {
	Name string `parquet:"name,notnull"`
}

type Narrow struct {
	A int8
	B int16
	C uint8
	D uint64
	F float32
	G float64
	H bool
}

type suit int

func (suit) EnumValues() []string { return []string{"HEARTS", "SPADES"} }

type Rich struct {
	At    time.Time
	ID    uuid.UUID
	Raw   []byte
	Suit  suit
	Empty struct{}
}

type GridKeys struct {
	M map[[2]int32]string
}

type FuncValues struct {
	M map[string]func()
}

type ListValues struct {
	M map[string][]int32
}

type MapList struct {
	Ms []map[string]int32
}

func build(t *testing.T, enc ListEncoding, v any) (string, error) {
	t.Helper()
	b := NewBuilder(typeinfo.NewReflect(""), WithListEncoding(enc), WithLogger(tu.TestLogger(t)))
	n, err := b.Build(reflect.TypeOf(v))
	if err != nil {
		return "", err
	}
	return tu.Shape(n), nil
}

func TestBuildScalars(t *testing.T) {
	for _, enc := range []ListEncoding{OneLevel, TwoLevel, ThreeLevel} {
		t.Run(enc.String(), func(t *testing.T) {
			got, err := build(t, enc, Point{})
			require.NoError(t, err)
			assert.Equal(t, "repeated group Point {required int32 x; required int32 y}", got)
		})
	}

	tests := []struct {
		name string
		v    any
		want string
	}{
		{
			name: "boxed and string fields are optional",
			v:    Person{},
			want: "repeated group Person {optional byte_array name (String); optional int32 age}",
		},
		{
			name: "not-null marker",
			v:    Strict{},
			want: "repeated group Strict {required byte_array name (String)}",
		},
		{
			name: "narrow and unsigned integers",
			v:    Narrow{},
			want: "repeated group Narrow {" +
				"required int32 A (Int(bitWidth=8, isSigned=true)); " +
				"required int32 B (Int(bitWidth=16, isSigned=true)); " +
				"required int32 C (Int(bitWidth=8, isSigned=false)); " +
				"required int64 D (Int(bitWidth=64, isSigned=false)); " +
				"required float F; " +
				"required double G; " +
				"required boolean H}",
		},
		{
			name: "nested composites reused by siblings",
			v:    Segment{},
			want: "repeated group Segment {" +
				"optional group from {required int32 x; required int32 y}; " +
				"optional group to {required int32 x; required int32 y}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := build(t, ThreeLevel, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSupplementalLeaves(t *testing.T) {
	n, err := For[Rich]()
	require.NoError(t, err)

	info := Describe(n)
	require.Len(t, info.Children, 5)

	at := info.Children[0]
	assert.Equal(t, "int64", at.Physical)
	assert.Contains(t, at.Logical, "Timestamp(isAdjustedToUTC=true, timeUnit=microseconds")

	id := info.Children[1]
	assert.Equal(t, "fixed_len_byte_array", id.Physical)
	assert.Equal(t, "UUID", id.Logical)
	assert.Equal(t, 16, id.TypeLength)

	raw := info.Children[2]
	assert.Equal(t, "byte_array", raw.Physical)
	assert.Empty(t, raw.Logical)

	assert.Equal(t, "Enum", info.Children[3].Logical)

	empty := info.Children[4]
	assert.False(t, empty.Leaf())
	assert.Empty(t, empty.Children)
}

func TestBuildListEncodings(t *testing.T) {
	tests := []struct {
		name string
		v    any
		enc  ListEncoding
		want string
	}{
		{
			name: "primitive list three-level",
			v:    Tags{},
			enc:  ThreeLevel,
			want: "repeated group Tags {optional group values (List) {repeated group list {optional int32 element}}}",
		},
		{
			name: "primitive list two-level",
			v:    Tags{},
			enc:  TwoLevel,
			want: "repeated group Tags {optional group values (List) {repeated int32 element}}",
		},
		{
			name: "primitive list one-level",
			v:    Tags{},
			enc:  OneLevel,
			want: "repeated group Tags {repeated int32 values}",
		},
		{
			name: "composite list three-level",
			v:    Order{},
			enc:  ThreeLevel,
			want: "repeated group Order {optional group lines (List) {repeated group list {" +
				"optional group element {optional byte_array sku (String); required int32 qty}}}}",
		},
		{
			name: "composite list two-level",
			v:    Order{},
			enc:  TwoLevel,
			want: "repeated group Order {optional group lines (List) {" +
				"repeated group element {optional byte_array sku (String); required int32 qty}}}",
		},
		{
			name: "composite list one-level",
			v:    Order{},
			enc:  OneLevel,
			want: "repeated group Order {repeated group lines {optional byte_array sku (String); required int32 qty}}",
		},
		{
			name: "nested list three-level",
			v:    Matrix{},
			enc:  ThreeLevel,
			want: "repeated group Matrix {optional group rows (List) {repeated group list {" +
				"optional group element (List) {repeated group list {optional int32 element}}}}}",
		},
		{
			name: "nested list two-level",
			v:    Matrix{},
			enc:  TwoLevel,
			want: "repeated group Matrix {optional group rows (List) {" +
				"repeated group element (List) {repeated int32 element}}}",
		},
		{
			name: "list of maps one-level",
			v:    MapList{},
			enc:  OneLevel,
			want: "repeated group MapList {repeated group Ms (Map) {repeated group key_value {" +
				"required byte_array key (String); optional int32 value}}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := build(t, tt.enc, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildMaps(t *testing.T) {
	got, err := build(t, ThreeLevel, Scores{})
	require.NoError(t, err)
	assert.Equal(t, "repeated group Scores {optional group by_name (Map) {repeated group key_value {"+
		"required byte_array key (String); optional int32 value}}}", got)

	got, err = build(t, ThreeLevel, ListValues{})
	require.NoError(t, err)
	assert.Equal(t, "repeated group ListValues {optional group M (Map) {repeated group key_value {"+
		"required byte_array key (String); "+
		"optional group value (List) {repeated group list {optional int32 element}}}}}", got)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		v     any
		enc   ListEncoding
		kind  errors.ErrorType
		field string
	}{
		{"root is not a record", int32(0), ThreeLevel, errors.ErrorTypeNotAComposite, ""},
		{"root is a list", []Point{}, ThreeLevel, errors.ErrorTypeNotAComposite, ""},
		{"nested list one-level", Matrix{}, OneLevel, errors.ErrorTypeUnsupportedNesting, "Matrix.Rows"},
		{"list map value one-level", ListValues{}, OneLevel, errors.ErrorTypeUnsupportedNesting, "ListValues.M.value"},
		{"self through list", Tree{}, ThreeLevel, errors.ErrorTypeRecursiveType, "Tree.Children.element"},
		{"self through list one-level", Tree{}, OneLevel, errors.ErrorTypeRecursiveType, "Tree.Children"},
		{"self through pointer", Chain{}, TwoLevel, errors.ErrorTypeRecursiveType, "Chain.Next"},
		{"mutual reference", Left{}, ThreeLevel, errors.ErrorTypeRecursiveType, "Left.Right.Left"},
		{"duplicate alias", Clash{}, ThreeLevel, errors.ErrorTypeDuplicateField, "Clash.B"},
		{"empty interface", Holder{}, ThreeLevel, errors.ErrorTypeUnsupportedGeneric, "Holder.Value"},
		{"channel field", Pipe{}, ThreeLevel, errors.ErrorTypeUnsupportedType, "Pipe.C"},
		{"collection key", GridKeys{}, ThreeLevel, errors.ErrorTypeUnsupportedMapValue, "GridKeys.M.key"},
		{"func value", FuncValues{}, ThreeLevel, errors.ErrorTypeUnsupportedMapValue, "FuncValues.M.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.enc, tt.v)
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

func TestBuildFailuresRecordMetrics(t *testing.T) {
	counter := metrics.SchemaBuilds.WithLabelValues("two_level", string(errors.ErrorTypeRecursiveType))
	before := testutil.ToFloat64(counter)

	_, err := build(t, TwoLevel, Chain{})
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestBuilderInvalidEncoding(t *testing.T) {
	b := NewBuilder(typeinfo.NewReflect(""), WithListEncoding(ListEncoding(9)))
	_, err := b.Build(reflect.TypeOf(Point{}))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBuildSchemaColumns(t *testing.T) {
	b := NewBuilder(typeinfo.NewReflect(""))
	s, err := b.BuildSchema(reflect.TypeOf(Order{}))
	require.NoError(t, err)

	require.Equal(t, 2, s.NumColumns())
	sku := s.Column(0)
	assert.Equal(t, "lines.list.element.sku", sku.Path())
	assert.Equal(t, int16(4), sku.MaxDefinitionLevel())
	assert.Equal(t, int16(1), sku.MaxRepetitionLevel())

	qty := s.Column(1)
	assert.Equal(t, int16(3), qty.MaxDefinitionLevel())
}

func TestFieldOrderIsDeclarationOrder(t *testing.T) {
	type wide struct {
		Zeta  int32
		Alpha string
		Mid   []int64
		Beta  map[string]bool
	}
	n, err := For[wide]()
	require.NoError(t, err)

	names := make([]string, n.NumFields())
	for i := range names {
		names[i] = n.Field(i).Name()
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid", "Beta"}, names)
}

func TestResolveField(t *testing.T) {
	tests := []struct {
		name  string
		field typeinfo.Field
		desc  typeinfo.Descriptor
		want  FieldDescriptor
	}{
		{
			name:  "primitive is required",
			field: typeinfo.Field{Name: "Count"},
			desc:  typeinfo.Descriptor{Kind: typeinfo.KindPrimitive},
			want:  FieldDescriptor{Name: "Count", Repetition: repRequired},
		},
		{
			name:  "boxed primitive is optional",
			field: typeinfo.Field{Name: "Count", Alias: "count"},
			desc:  typeinfo.Descriptor{Kind: typeinfo.KindPrimitive, Boxed: true},
			want:  FieldDescriptor{Name: "count", Repetition: repOptional},
		},
		{
			name:  "not-null composite",
			field: typeinfo.Field{Name: "Addr", NotNull: true},
			desc:  typeinfo.Descriptor{Kind: typeinfo.KindComposite},
			want:  FieldDescriptor{Name: "Addr", Repetition: repRequired},
		},
		{
			name:  "collection defaults to optional",
			field: typeinfo.Field{Name: "Items"},
			desc:  typeinfo.Descriptor{Kind: typeinfo.KindCollection},
			want:  FieldDescriptor{Name: "Items", Repetition: repOptional},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveField(tt.field, tt.desc))
		})
	}
}

func TestParseListEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    ListEncoding
		wantErr bool
	}{
		{in: "ONE_LEVEL", want: OneLevel},
		{in: "two-level", want: TwoLevel},
		{in: "3", want: ThreeLevel},
		{in: "", want: ThreeLevel},
		{in: " Three Level ", want: ThreeLevel},
		{in: "four", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseListEncoding(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
