package schemagen

import (
	"reflect"
	"sync"

	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/ajitpratap0/colschema/pkg/metrics"
	"github.com/ajitpratap0/colschema/pkg/typeinfo"
)

// Cache memoizes derived schemas of one Builder. Concurrent lookups of the
// same type wait for a single derivation. Failures are cached as well since
// derivation is deterministic for a given type and encoding.
type Cache struct {
	builder *Builder
	entries sync.Map // cacheKey -> *cacheEntry
}

type cacheKey struct {
	typ      any
	encoding ListEncoding
}

type cacheEntry struct {
	once sync.Once
	node *schema.GroupNode
	err  error
}

// NewCache creates a cache in front of b.
func NewCache(b *Builder) *Cache {
	return &Cache{builder: b}
}

// Builder returns the builder the cache derives with.
func (c *Cache) Builder() *Builder { return c.builder }

// Get returns the schema root for t, deriving it on first use. The returned
// node is shared between callers and must not be modified.
func (c *Cache) Get(t typeinfo.Type) (*schema.GroupNode, error) {
	return c.GetWith(c.builder, t)
}

// GetWith is Get with the derivation done by b, so b's logger and encoding
// apply on a miss. b must classify types the same way as the cache's own
// builder; entries are keyed by type and b's encoding.
func (c *Cache) GetWith(b *Builder, t typeinfo.Type) (*schema.GroupNode, error) {
	key := cacheKey{typ: handleKey(t), encoding: b.encoding}

	v, loaded := c.entries.LoadOrStore(key, &cacheEntry{})
	e := v.(*cacheEntry)
	if loaded {
		metrics.SchemaCacheHits.Inc()
	}

	e.once.Do(func() {
		e.node, e.err = b.Build(t)
	})
	return e.node, e.err
}

// Len returns the number of cached types.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// handleKey maps a type handle to a comparable identity. Reflection handles
// are unique per type; other bindings are keyed by their resolved name.
func handleKey(t typeinfo.Type) any {
	if rt, ok := t.(reflect.Type); ok {
		return rt
	}
	if t == nil {
		return nil
	}
	return t.String()
}
