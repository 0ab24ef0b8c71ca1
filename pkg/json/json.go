// Package json provides goccy/go-json serialization with pooled buffers
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// maxPooledBuffer keeps very large buffers out of the pool.
const maxPooledBuffer = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Normalize round-trips v through JSON into dst, so any marshalable value
// comes out as plain maps, slices, strings, float64, bool and nil.
func Normalize(v interface{}, dst *map[string]interface{}) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return gojson.NewDecoder(buf).Decode(dst)
}

// LineWriter writes values as line-delimited JSON.
type LineWriter struct {
	encoder *gojson.Encoder
	count   int
}

// NewLineWriter creates a line-delimited JSON writer over w
func NewLineWriter(w io.Writer) *LineWriter {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &LineWriter{encoder: enc}
}

// Write encodes one value followed by a newline
func (lw *LineWriter) Write(v interface{}) error {
	if err := lw.encoder.Encode(v); err != nil {
		return err
	}
	lw.count++
	return nil
}

// Count returns the number of values written
func (lw *LineWriter) Count() int {
	return lw.count
}
