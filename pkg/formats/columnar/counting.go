package columnar

import "io"

// countingWriter tracks the bytes that reach the underlying stream. Close is
// forwarded when the stream is closable so the file writer can release it.
type countingWriter struct {
	w     io.Writer
	count int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}

func (c *countingWriter) Close() error {
	if closer, ok := c.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *countingWriter) Count() int64 {
	return c.count
}
