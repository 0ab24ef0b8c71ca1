package schemagen

import (
	"strings"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// ListEncoding selects how repeated data is laid out in the derived schema.
type ListEncoding int

const (
	// OneLevel makes the field itself repeated, with no wrapping group:
	//
	//	repeated int32 values;
	OneLevel ListEncoding = iota + 1
	// TwoLevel wraps a repeated element in a LIST-annotated group:
	//
	//	optional group values (LIST) {
	//	  repeated int32 element;
	//	}
	TwoLevel
	// ThreeLevel is the standard parquet list layout with nullable elements:
	//
	//	optional group values (LIST) {
	//	  repeated group list {
	//	    optional int32 element;
	//	  }
	//	}
	ThreeLevel
)

// DefaultListEncoding is used when no encoding is configured.
const DefaultListEncoding = ThreeLevel

func (e ListEncoding) String() string {
	switch e {
	case OneLevel:
		return "one_level"
	case TwoLevel:
		return "two_level"
	case ThreeLevel:
		return "three_level"
	default:
		return "unknown"
	}
}

// ParseListEncoding accepts one_level/two_level/three_level and the common
// spellings ONE_LEVEL, one-level, one, 1.
func ParseListEncoding(s string) (ListEncoding, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	norm = strings.TrimSuffix(norm, "_level")

	switch norm {
	case "one", "1":
		return OneLevel, nil
	case "two", "2":
		return TwoLevel, nil
	case "three", "3", "":
		return ThreeLevel, nil
	}
	return 0, errors.Newf(errors.ErrorTypeConfig, "unknown list encoding %q", s).
		WithDetail("allowed", "one_level, two_level, three_level")
}
