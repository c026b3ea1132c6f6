package protocol

import (
	"bufio"
	"io"
	"strconv"
)

// Writer buffers response lines until Flush. Write errors are sticky and
// reported by Flush.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Line writes s followed by LineEnd.
func (w *Writer) Line(s string) {
	_, _ = w.w.WriteString(s)
	_, _ = w.w.WriteString(LineEnd)
}

// Uint writes v as a decimal line.
func (w *Writer) Uint(v uint32) {
	w.Line(strconv.FormatUint(uint64(v), 10))
}

// Result writes the result code line that closes every response.
func (w *Writer) Result(r Result) {
	w.Uint(uint32(r))
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}
