package schemagen

import (
	"fmt"

	"github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the printed form of a schema tree. Two trees with the
// same names, repetitions, physical and logical types share a fingerprint.
func Fingerprint(n schema.Node) uint64 {
	h := xxhash.New()
	schema.PrintSchema(n, h, 2)
	return h.Sum64()
}

// FingerprintString is Fingerprint formatted as 16 hex digits.
func FingerprintString(n schema.Node) string {
	return fmt.Sprintf("%016x", Fingerprint(n))
}
