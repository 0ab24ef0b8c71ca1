package schemagen

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/ajitpratap0/colschema/pkg/json"
)

// NodeInfo is a serializable view of a schema node.
type NodeInfo struct {
	Name       string     `json:"name"`
	Repetition string     `json:"repetition"`
	Physical   string     `json:"physical,omitempty"`
	Logical    string     `json:"logical,omitempty"`
	TypeLength int        `json:"type_length,omitempty"`
	Children   []NodeInfo `json:"children,omitempty"`
}

// Leaf reports whether the node is a primitive column.
func (n NodeInfo) Leaf() bool { return n.Physical != "" }

// Describe converts a schema tree into NodeInfo.
func Describe(n schema.Node) NodeInfo {
	info := NodeInfo{
		Name:       n.Name(),
		Repetition: strings.ToLower(n.RepetitionType().String()),
	}
	if lt := n.LogicalType(); lt != nil && !lt.IsNone() {
		info.Logical = lt.String()
	}

	switch t := n.(type) {
	case *schema.PrimitiveNode:
		info.Physical = strings.ToLower(t.PhysicalType().String())
		if t.TypeLength() > 0 {
			info.TypeLength = t.TypeLength()
		}
	case *schema.GroupNode:
		info.Children = make([]NodeInfo, t.NumFields())
		for i := range info.Children {
			info.Children[i] = Describe(t.Field(i))
		}
	}
	return info
}

// DescribeJSON renders Describe(n) as JSON, indented when pretty is set.
func DescribeJSON(n schema.Node, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(Describe(n), "", "  ")
	}
	return json.Marshal(Describe(n))
}

// Text renders the tree in parquet's message notation.
func Text(n schema.Node) string {
	var b strings.Builder
	schema.PrintSchema(n, &b, 2)
	return b.String()
}
