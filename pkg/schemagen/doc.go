// Package schemagen derives parquet schemas from data-model types.
//
// A Builder walks the type graph reported by a typeinfo.Introspector and
// produces an arrow-go parquet schema tree. Repeated data is laid out in one
// of three list encodings chosen per Builder; records that reach themselves
// through their fields are rejected.
//
//	type Point struct {
//	    X int32 `parquet:"x"`
//	    Y int32 `parquet:"y"`
//	}
//
//	root, err := schemagen.For[Point]()
//	fmt.Print(schemagen.Text(root))
//	// repeated group field_id=-1 Point {
//	//   required int32 field_id=-1 x;
//	//   required int32 field_id=-1 y;
//	// }
//
// A Builder holds no per-build state and may be shared between goroutines.
//
// # List encodings
//
// OneLevel repeats the field itself and cannot nest collections. TwoLevel
// wraps a repeated "element" in a LIST group. ThreeLevel, the default, adds a
// repeated "list" group around an optional "element" so entries may be null.
//
// # Maps
//
// Maps become a MAP group around a repeated "key_value" group holding a
// required "key" and an optional "value".
package schemagen
