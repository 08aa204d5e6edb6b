// Package siser frames blocks of data as human-readable records.
//
// Each record is a header line followed by the data:
//
//	--- ${size} ${timestamp_in_unix_epoch_ms} ${name}\n
//	${data}\n
//
// Timestamp and name are optional. If the data doesn't end with a newline
// one is added after it, for readability.
package siser

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"
)

var hdrPrefix = []byte("--- ")

// Writer writes timestamped records to an io.Writer
type Writer struct {
	w io.Writer

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewWriter creates a writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: w,
	}
}

// Write writes d as a record named name. Zero t means current time.
func (w *Writer) Write(d []byte, t time.Time, name string) (int, error) {
	if t.IsZero() {
		t = time.Now()
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	// don't keep a big buffer around
	if w.buf.Cap() > 100*1024 && len(d) < 50*1024 {
		w.buf = bytes.Buffer{}
	}
	return w.w.Write(MarshalLine(name, t, d, &w.buf))
}

// MarshalLine serializes a record. If t is zero, it's not written.
// If wb is given, the result points into it.
func MarshalLine(name string, t time.Time, d []byte, wb *bytes.Buffer) []byte {
	if wb == nil {
		wb = &bytes.Buffer{}
	}
	wb.Reset()

	var hdr [48]byte
	h := append(hdr[:0], hdrPrefix...)
	h = strconv.AppendInt(h, int64(len(d)), 10)
	if !t.IsZero() {
		h = append(h, ' ')
		h = strconv.AppendInt(h, TimeToUnixMillisecond(t), 10)
	}
	wb.Write(h)
	if name != "" {
		wb.WriteByte(' ')
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	wb.Write(d)
	if n := len(d); n > 0 && d[n-1] != '\n' {
		wb.WriteByte('\n')
	}
	return wb.Bytes()
}
