// Package colschema derives parquet schemas from application data models and
// reads and writes parquet files whose layout follows those schemas.
//
// A data model is either a set of Go types, inspected by reflection, or a
// declarative YAML model file. Either way the schema builder walks the type
// graph from a root record, rejects recursive records and unbound generic
// parameters, and emits an arrow-go parquet schema tree. Repeated data is
// laid out in one of three list encodings:
//
//   - one_level: the field itself is repeated, with no wrapper groups
//   - two_level: group (LIST) { repeated element }
//   - three_level: group (LIST) { repeated group list { optional element } }
//
// # Key Packages
//
//   - pkg/typeinfo: type classification for Go reflection and YAML models
//   - pkg/schemagen: field policy and the schema builder, cache and fingerprints
//   - pkg/formats/columnar: typed parquet Writer and a streaming Reader
//   - pkg/config: YAML configuration with environment substitution
//   - pkg/errors: structured errors with a type per failure kind
//   - pkg/logger, pkg/metrics, pkg/observability: zap, Prometheus and OpenTelemetry
//
// # Quick Start
//
// Derive a schema from a Go type:
//
//	type Order struct {
//	    ID    int64             `parquet:"id"`
//	    Lines []Line            `parquet:"lines"`
//	    Attrs map[string]string `parquet:"attrs"`
//	}
//
//	root, err := schemagen.For[Order](schemagen.WithListEncoding(schemagen.TwoLevel))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(schemagen.Text(root))
//
// Write rows of that type:
//
//	f, _ := os.Create("orders.parquet")
//	w, err := columnar.NewWriter[Order](f, columnar.DefaultWriterConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = w.Write(orders...)
//	_ = w.Close()
//
// # Command Line
//
//	colschema derive --model model.yaml --type 'Page<Line>' --encoding two_level
//	colschema inspect orders.parquet --rows 10
//
// Settings come from --config, then COLSCHEMA_* environment variables, then
// flags.
package colschema
