package columnar

import (
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/schemagen"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

type listRow struct {
	Values []int32 `parquet:"values"`
}

type mapRow struct {
	Scores map[string]int32 `parquet:"scores"`
}

type point struct {
	X int32 `parquet:"x"`
	Y int32 `parquet:"y"`
}

type strictRow struct {
	ID    int64  `parquet:"id"`
	Inner *point `parquet:"inner,notnull"`
}

type color int

func (color) EnumValues() []string { return []string{"RED", "GREEN"} }

type paint struct {
	Color color  `parquet:"color"`
	Note  *int32 `parquet:"note"`
}

func newTestShredder[T any](t *testing.T, enc schemagen.ListEncoding) *shredder {
	t.Helper()
	refl := typeinfo.NewReflect("")
	rt := reflect.TypeFor[T]()
	root, err := schemagen.NewBuilder(refl, schemagen.WithListEncoding(enc)).Build(rt)
	require.NoError(t, err)
	s, err := newShredder(root, rt, refl)
	require.NoError(t, err)
	return s
}

func shredAll[T any](t *testing.T, s *shredder, rows ...T) {
	t.Helper()
	for i := range rows {
		require.NoError(t, s.shred(reflect.ValueOf(&rows[i]).Elem()))
	}
}

func TestShredListLevels(t *testing.T) {
	rows := []listRow{{Values: nil}, {Values: []int32{}}, {Values: []int32{1, 2}}}

	tests := []struct {
		enc  schemagen.ListEncoding
		defs []int16
		reps []int16
	}{
		{schemagen.OneLevel, []int16{0, 0, 1, 1}, []int16{0, 0, 0, 1}},
		{schemagen.TwoLevel, []int16{0, 1, 2, 2}, []int16{0, 0, 0, 1}},
		{schemagen.ThreeLevel, []int16{0, 1, 3, 3}, []int16{0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			s := newTestShredder[listRow](t, tt.enc)
			require.Len(t, s.cols, 1)
			shredAll(t, s, rows...)

			col := s.cols[0]
			assert.Equal(t, tt.defs, col.defs)
			assert.Equal(t, tt.reps, col.reps)
			assert.Equal(t, []int32{1, 2}, col.int32s)
			assert.Equal(t, int(tt.defs[len(tt.defs)-1]), int(col.desc.MaxDefinitionLevel()))
		})
	}
}

func TestShredMapLevels(t *testing.T) {
	s := newTestShredder[mapRow](t, schemagen.ThreeLevel)
	require.Len(t, s.cols, 2)
	shredAll(t, s,
		mapRow{Scores: map[string]int32{"b": 2, "a": 1}},
		mapRow{},
		mapRow{Scores: map[string]int32{}},
	)

	key, value := s.cols[0], s.cols[1]
	assert.Equal(t, []int16{2, 2, 0, 1}, key.defs)
	assert.Equal(t, []int16{0, 1, 0, 0}, key.reps)
	assert.Equal(t, []parquet.ByteArray{parquet.ByteArray("a"), parquet.ByteArray("b")}, key.bytes)

	assert.Equal(t, []int16{3, 3, 0, 1}, value.defs)
	assert.Equal(t, []int16{0, 1, 0, 0}, value.reps)
	assert.Equal(t, []int32{1, 2}, value.int32s)
}

func TestShredEnumAndOptionalLeaf(t *testing.T) {
	s := newTestShredder[paint](t, schemagen.ThreeLevel)
	note := int32(7)
	shredAll(t, s, paint{Color: 1, Note: &note}, paint{Color: 0})

	assert.Equal(t, []parquet.ByteArray{parquet.ByteArray("GREEN"), parquet.ByteArray("RED")}, s.cols[0].bytes)
	assert.Equal(t, []int16{1, 0}, s.cols[1].defs)
	assert.Equal(t, []int32{7}, s.cols[1].int32s)

	bad := paint{Color: 5}
	err := s.shred(reflect.ValueOf(&bad).Elem())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestShredRollsBackFailedRow(t *testing.T) {
	s := newTestShredder[strictRow](t, schemagen.ThreeLevel)
	shredAll(t, s, strictRow{ID: 1, Inner: &point{X: 1, Y: 2}})

	bad := strictRow{ID: 2}
	err := s.shred(reflect.ValueOf(&bad).Elem())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	column, ok := errors.Detail(err, "column")
	require.True(t, ok)
	assert.Equal(t, "strictRow.inner", column)

	for _, c := range s.cols {
		assert.Len(t, c.defs, 1, c.desc.Path())
		assert.Equal(t, 1, c.values(), c.desc.Path())
	}
	assert.Equal(t, []int64{1}, s.cols[0].int64s)

	s.reset()
	for _, c := range s.cols {
		assert.Empty(t, c.defs)
		assert.Zero(t, c.values())
	}
}

func TestShredderRejectsMismatchedType(t *testing.T) {
	refl := typeinfo.NewReflect("")
	root, err := schemagen.NewBuilder(refl).Build(reflect.TypeFor[listRow]())
	require.NoError(t, err)

	_, err = newShredder(root, reflect.TypeFor[mapRow](), refl)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}
