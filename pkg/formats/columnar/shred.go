package columnar

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/ajitpratap0/colschema/pkg/errors"
	"github.com/ajitpratap0/colschema/pkg/schemagen"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

var timeType = reflect.TypeOf(time.Time{})

type planKind int

const (
	leafPlan planKind = iota
	recordPlan
	twoLevelPlan
	threeLevelPlan
	mapPlan
)

// plan mirrors one schema node and knows how to split the Go values that
// reach it into column values with definition and repetition levels.
type plan struct {
	kind planKind
	path string
	rep  parquet.Repetition
	// def and repLvl are the levels of this node when it is present.
	def    int16
	repLvl int16
	// sequence marks a one-level repeated field whose Go value is a slice of
	// occurrences rather than a single occurrence.
	sequence bool

	col    int
	encode encodeFunc

	fields []fieldPlan

	// elem is the list element; for three-level lists midDef and midRep are
	// the levels of the repeated "list" group.
	elem   *plan
	midDef int16
	midRep int16

	key, value   *plan
	kvDef, kvRep int16

	leaves []int
}

type fieldPlan struct {
	index []int
	plan  *plan
}

// shredder turns rows of one Go type into column buffers.
type shredder struct {
	root  *plan
	cols  []*column
	marks []mark
}

func newShredder(root *schema.GroupNode, rt reflect.Type, refl *typeinfo.Reflect) (*shredder, error) {
	sch := schema.NewSchema(root)
	c := &compiler{refl: refl}

	p := &plan{kind: recordPlan, path: root.Name(), rep: parquet.Repetitions.Required}
	if err := c.record(p, root, deref(rt)); err != nil {
		return nil, err
	}
	if c.next != sch.NumColumns() {
		return nil, errors.Newf(errors.ErrorTypeInternal, "shredder produced %d columns, schema has %d", c.next, sch.NumColumns())
	}

	s := &shredder{root: p, cols: make([]*column, sch.NumColumns()), marks: make([]mark, sch.NumColumns())}
	for i := range s.cols {
		s.cols[i] = &column{desc: sch.Column(i)}
	}
	return s, nil
}

// shred appends one row to the column buffers. A row that fails part way is
// rolled back so the buffers only ever hold complete rows.
func (s *shredder) shred(v reflect.Value) error {
	for i, c := range s.cols {
		s.marks[i] = c.mark()
	}
	if err := s.root.write(v, 0, s.cols); err != nil {
		for i, c := range s.cols {
			c.rollback(s.marks[i])
		}
		return err
	}
	return nil
}

func (s *shredder) reset() {
	for _, c := range s.cols {
		c.reset()
	}
}

type compiler struct {
	refl *typeinfo.Reflect
	next int
}

func levels(n schema.Node, def, rep int16) (int16, int16) {
	switch n.RepetitionType() {
	case parquet.Repetitions.Optional:
		def++
	case parquet.Repetitions.Repeated:
		def++
		rep++
	}
	return def, rep
}

// field compiles the node of a record field. A repeated field node is a
// one-level list: its Go value is a slice whose items take the node's shape.
func (c *compiler) field(n schema.Node, rt reflect.Type, def, rep int16, path string) (*plan, error) {
	if n.RepetitionType() != parquet.Repetitions.Repeated {
		return c.shape(n, rt, def, rep, path)
	}
	rt = deref(rt)
	if rt.Kind() != reflect.Slice && rt.Kind() != reflect.Array {
		return nil, mismatch(path, n, rt)
	}
	p, err := c.shape(n, rt.Elem(), def, rep, path)
	if err != nil {
		return nil, err
	}
	p.sequence = true
	return p, nil
}

func (c *compiler) shape(n schema.Node, rt reflect.Type, def, rep int16, path string) (*plan, error) {
	rt = deref(rt)
	p := &plan{path: path, rep: n.RepetitionType()}
	p.def, p.repLvl = levels(n, def, rep)

	switch node := n.(type) {
	case *schema.PrimitiveNode:
		enc, err := encoderFor(node, rt)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "no encoder for column").WithDetail("column", path)
		}
		p.kind, p.encode, p.col = leafPlan, enc, c.next
		p.leaves = []int{c.next}
		c.next++
		return p, nil

	case *schema.GroupNode:
		switch node.LogicalType().(type) {
		case schema.ListLogicalType:
			return p, c.list(p, node, rt)
		case schema.MapLogicalType:
			return p, c.mapOf(p, node, rt)
		default:
			return p, c.record(p, node, rt)
		}
	}
	return nil, errors.Newf(errors.ErrorTypeInternal, "unknown node %T", n)
}

func (c *compiler) record(p *plan, n *schema.GroupNode, rt reflect.Type) error {
	if rt.Kind() != reflect.Struct {
		return mismatch(p.path, n, rt)
	}
	fields := c.refl.Fields(rt)
	if len(fields) != n.NumFields() {
		return mismatch(p.path, n, rt)
	}

	p.kind = recordPlan
	for i, f := range fields {
		child, err := c.field(n.Field(i), f.Type, p.def, p.repLvl, p.path+"."+n.Field(i).Name())
		if err != nil {
			return err
		}
		p.fields = append(p.fields, fieldPlan{index: f.Index, plan: child})
		p.leaves = append(p.leaves, child.leaves...)
	}
	return nil
}

func (c *compiler) list(p *plan, n *schema.GroupNode, rt reflect.Type) error {
	if rt.Kind() != reflect.Slice && rt.Kind() != reflect.Array {
		return mismatch(p.path, n, rt)
	}
	inner := n.Field(0)

	mid, ok := inner.(*schema.GroupNode)
	if ok && inner.Name() == schemagen.ListGroupName && mid.NumFields() == 1 &&
		mid.Field(0).RepetitionType() != parquet.Repetitions.Repeated {
		p.kind = threeLevelPlan
		p.midDef, p.midRep = levels(mid, p.def, p.repLvl)
		elem, err := c.shape(mid.Field(0), rt.Elem(), p.midDef, p.midRep, p.path+"."+mid.Name()+"."+mid.Field(0).Name())
		if err != nil {
			return err
		}
		p.elem = elem
	} else {
		p.kind = twoLevelPlan
		elem, err := c.shape(inner, rt.Elem(), p.def, p.repLvl, p.path+"."+inner.Name())
		if err != nil {
			return err
		}
		p.elem = elem
	}
	p.leaves = p.elem.leaves
	return nil
}

func (c *compiler) mapOf(p *plan, n *schema.GroupNode, rt reflect.Type) error {
	kv, ok := n.Field(0).(*schema.GroupNode)
	if rt.Kind() != reflect.Map || !ok || kv.NumFields() != 2 {
		return mismatch(p.path, n, rt)
	}

	p.kind = mapPlan
	p.kvDef, p.kvRep = levels(kv, p.def, p.repLvl)

	base := p.path + "." + kv.Name() + "."
	key, err := c.shape(kv.Field(0), rt.Key(), p.kvDef, p.kvRep, base+kv.Field(0).Name())
	if err != nil {
		return err
	}
	value, err := c.shape(kv.Field(1), rt.Elem(), p.kvDef, p.kvRep, base+kv.Field(1).Name())
	if err != nil {
		return err
	}
	p.key, p.value = key, value
	p.leaves = append(append(p.leaves, key.leaves...), value.leaves...)
	return nil
}

// feed writes the value of a child node whose parent is present at
// parentDef.
func (p *plan) feed(v reflect.Value, parentDef, rep int16, cols []*column) error {
	if p.sequence {
		v = indirect(v)
		if isNull(v) || v.Len() == 0 {
			p.absent(parentDef, rep, cols)
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			r := rep
			if i > 0 {
				r = p.repLvl
			}
			if err := p.write(v.Index(i), r, cols); err != nil {
				return err
			}
		}
		return nil
	}

	if p.rep == parquet.Repetitions.Optional && isNull(indirect(v)) {
		p.absent(parentDef, rep, cols)
		return nil
	}
	return p.write(v, rep, cols)
}

// write records one present occurrence of the node.
func (p *plan) write(v reflect.Value, rep int16, cols []*column) error {
	v = indirect(v)
	if !v.IsValid() {
		return errors.Newf(errors.ErrorTypeData, "null value for %s field", p.rep).
			WithDetail("column", p.path)
	}

	switch p.kind {
	case leafPlan:
		col := cols[p.col]
		if err := p.encode(col, v); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "cannot encode value").WithDetail("column", p.path)
		}
		col.level(p.def, rep)

	case recordPlan:
		for _, f := range p.fields {
			if err := f.plan.feed(v.FieldByIndex(f.index), p.def, rep, cols); err != nil {
				return err
			}
		}

	case twoLevelPlan:
		n := length(v)
		if n == 0 {
			p.absent(p.def, rep, cols)
			return nil
		}
		for i := 0; i < n; i++ {
			r := rep
			if i > 0 {
				r = p.elem.repLvl
			}
			if err := p.elem.write(v.Index(i), r, cols); err != nil {
				return err
			}
		}

	case threeLevelPlan:
		n := length(v)
		if n == 0 {
			p.absent(p.def, rep, cols)
			return nil
		}
		for i := 0; i < n; i++ {
			r := rep
			if i > 0 {
				r = p.midRep
			}
			if err := p.elem.feed(v.Index(i), p.midDef, r, cols); err != nil {
				return err
			}
		}

	case mapPlan:
		keys := sortedKeys(v)
		if len(keys) == 0 {
			p.absent(p.def, rep, cols)
			return nil
		}
		for i, k := range keys {
			r := rep
			if i > 0 {
				r = p.kvRep
			}
			if err := p.key.write(k, r, cols); err != nil {
				return err
			}
			if err := p.value.feed(v.MapIndex(k), p.kvDef, r, cols); err != nil {
				return err
			}
		}
	}
	return nil
}

// absent records a null or empty subtree, defined up to def.
func (p *plan) absent(def, rep int16, cols []*column) {
	for _, c := range p.leaves {
		cols[c].level(def, rep)
	}
}

func deref(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

func length(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len()
	}
	return 0
}

// sortedKeys orders map keys so files are reproducible. Keys of kinds
// without a natural order keep map iteration order.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	if len(keys) < 2 {
		return keys
	}
	switch v.Type().Key().Kind() {
	case reflect.String:
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	case reflect.Float32, reflect.Float64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	}
	return keys
}

func mismatch(path string, n schema.Node, rt reflect.Type) error {
	return errors.Newf(errors.ErrorTypeInternal, "node %s does not match Go type %s", n.Name(), rt).
		WithDetail("column", path)
}

// encodeFunc appends one present value to a column.
type encodeFunc func(c *column, v reflect.Value) error

func encoderFor(n *schema.PrimitiveNode, rt reflect.Type) (encodeFunc, error) {
	kind := rt.Kind()
	switch n.PhysicalType() {
	case parquet.Types.Boolean:
		if kind == reflect.Bool {
			return func(c *column, v reflect.Value) error {
				c.bools = append(c.bools, v.Bool())
				return nil
			}, nil
		}

	case parquet.Types.Int32:
		switch {
		case isSigned(kind):
			return func(c *column, v reflect.Value) error {
				c.int32s = append(c.int32s, int32(v.Int()))
				return nil
			}, nil
		case isUnsigned(kind):
			return func(c *column, v reflect.Value) error {
				c.int32s = append(c.int32s, int32(uint32(v.Uint())))
				return nil
			}, nil
		}

	case parquet.Types.Int64:
		switch {
		case rt == timeType:
			return func(c *column, v reflect.Value) error {
				c.int64s = append(c.int64s, v.Interface().(time.Time).UnixMicro())
				return nil
			}, nil
		case isSigned(kind):
			return func(c *column, v reflect.Value) error {
				c.int64s = append(c.int64s, v.Int())
				return nil
			}, nil
		case isUnsigned(kind):
			return func(c *column, v reflect.Value) error {
				c.int64s = append(c.int64s, int64(v.Uint()))
				return nil
			}, nil
		}

	case parquet.Types.Float:
		if kind == reflect.Float32 || kind == reflect.Float64 {
			return func(c *column, v reflect.Value) error {
				c.float32s = append(c.float32s, float32(v.Float()))
				return nil
			}, nil
		}

	case parquet.Types.Double:
		if kind == reflect.Float32 || kind == reflect.Float64 {
			return func(c *column, v reflect.Value) error {
				c.float64s = append(c.float64s, v.Float())
				return nil
			}, nil
		}

	case parquet.Types.ByteArray:
		if _, ok := n.LogicalType().(schema.EnumLogicalType); ok {
			return encodeEnum, nil
		}
		switch {
		case kind == reflect.String:
			return func(c *column, v reflect.Value) error {
				c.bytes = append(c.bytes, parquet.ByteArray(v.String()))
				return nil
			}, nil
		case kind == reflect.Slice && rt.Elem().Kind() == reflect.Uint8:
			return func(c *column, v reflect.Value) error {
				c.bytes = append(c.bytes, append(parquet.ByteArray(nil), v.Bytes()...))
				return nil
			}, nil
		}

	case parquet.Types.FixedLenByteArray:
		if kind == reflect.Array && rt.Elem().Kind() == reflect.Uint8 && rt.Len() == n.TypeLength() {
			return func(c *column, v reflect.Value) error {
				b := make([]byte, v.Len())
				reflect.Copy(reflect.ValueOf(b), v)
				c.fixed = append(c.fixed, b)
				return nil
			}, nil
		}
	}
	return nil, fmt.Errorf("cannot store %s as %s", rt, n.PhysicalType())
}

// encodeEnum stores an enumeration by name: its String method when present,
// the value itself for string kinds, or EnumValues()[ordinal] for integers.
func encodeEnum(c *column, v reflect.Value) error {
	iface := v.Interface()
	if s, ok := iface.(fmt.Stringer); ok {
		c.bytes = append(c.bytes, parquet.ByteArray(s.String()))
		return nil
	}
	if v.Kind() == reflect.String {
		c.bytes = append(c.bytes, parquet.ByteArray(v.String()))
		return nil
	}

	e, ok := iface.(typeinfo.Enum)
	if !ok && v.CanAddr() {
		e, ok = v.Addr().Interface().(typeinfo.Enum)
	}
	if !ok {
		return fmt.Errorf("%s is not an enumeration", v.Type())
	}
	values := e.EnumValues()

	var ordinal int64
	switch {
	case isSigned(v.Kind()):
		ordinal = v.Int()
	case isUnsigned(v.Kind()):
		ordinal = int64(v.Uint())
	default:
		return fmt.Errorf("enumeration %s has no name for its value", v.Type())
	}
	if ordinal < 0 || ordinal >= int64(len(values)) {
		return fmt.Errorf("ordinal %d out of range for %s", ordinal, v.Type())
	}
	c.bytes = append(c.bytes, parquet.ByteArray(values[ordinal]))
	return nil
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
