// Package testutil provides testing utilities for colschema
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/parquet/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Shape renders a schema tree on one line so whole layouts can be compared
// in a single assertion:
//
//	repeated group Point {required int32 x; required int32 y}
//
// Leaves print as "<repetition> <physical> <name>" and groups as
// "<repetition> group <name> {children}"; logical annotations follow the
// name in parentheses. Field ids are omitted.
func Shape(n schema.Node) string {
	var b strings.Builder
	writeShape(&b, n)
	return b.String()
}

func writeShape(b *strings.Builder, n schema.Node) {
	b.WriteString(n.RepetitionType().String())
	b.WriteByte(' ')

	switch t := n.(type) {
	case *schema.PrimitiveNode:
		b.WriteString(strings.ToLower(t.PhysicalType().String()))
		b.WriteByte(' ')
		b.WriteString(t.Name())
		writeLogical(b, n)
	case *schema.GroupNode:
		b.WriteString("group ")
		b.WriteString(t.Name())
		writeLogical(b, n)
		b.WriteString(" {")
		for i := 0; i < t.NumFields(); i++ {
			if i > 0 {
				b.WriteString("; ")
			}
			writeShape(b, t.Field(i))
		}
		b.WriteByte('}')
	}
}

func writeLogical(b *strings.Builder, n schema.Node) {
	lt := n.LogicalType()
	if lt == nil || lt.IsNone() {
		return
	}
	b.WriteString(" (")
	b.WriteString(lt.String())
	b.WriteByte(')')
}
