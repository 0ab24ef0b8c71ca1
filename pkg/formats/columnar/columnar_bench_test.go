package columnar

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/ajitpratap0/colschema/pkg/schemagen"
)

// Generate test orders
func generateOrders(count int) []order {
	rows := make([]order, count)
	for i := range rows {
		n := rand.Intn(5)
		items := make([]item, n)
		for j := range items {
			items[j] = item{SKU: fmt.Sprintf("sku-%d", rand.Intn(1000)), Qty: int32(rand.Intn(10))}
		}
		rows[i] = order{
			ID:     int64(i),
			Tags:   []string{"retail", fmt.Sprintf("region-%d", i%8)},
			Items:  items,
			Prices: map[string]float64{"list": rand.Float64() * 100, "net": rand.Float64() * 80},
		}
	}
	return rows
}

// Benchmark write performance
func BenchmarkWriter(b *testing.B) {
	encodings := []schemagen.ListEncoding{schemagen.OneLevel, schemagen.TwoLevel, schemagen.ThreeLevel}
	compressions := []string{"none", "snappy", "zstd"}
	rows := generateOrders(10000)

	for _, enc := range encodings {
		for _, compression := range compressions {
			b.Run(fmt.Sprintf("%s/%s", enc, compression), func(b *testing.B) {
				cfg := DefaultWriterConfig()
				cfg.Compression = compression

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					var buf bytes.Buffer
					w, err := NewWriter[order](&buf, cfg, schemagen.WithListEncoding(enc))
					if err != nil {
						b.Fatal(err)
					}
					if err := w.Write(rows...); err != nil {
						b.Fatal(err)
					}
					if err := w.Close(); err != nil {
						b.Fatal(err)
					}
					b.SetBytes(int64(buf.Len()))
				}
			})
		}
	}
}

// Benchmark read performance
func BenchmarkReader(b *testing.B) {
	var buf bytes.Buffer
	w, err := NewWriter[order](&buf, nil)
	if err != nil {
		b.Fatal(err)
	}
	if err := w.Write(generateOrders(10000)...); err != nil {
		b.Fatal(err)
	}
	if err := w.Close(); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := NewReader(bytes.NewReader(data), nil)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := r.Next(); err == io.EOF {
				break
			} else if err != nil {
				b.Fatal(err)
			}
		}
		r.Close()
	}
}
