package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader reads records written by Writer or MarshalLine
type Reader struct {
	r *bufio.Reader

	// valid after ReadNextData returned true, until the next call
	Data      []byte
	Name      string
	Timestamp time.Time

	err  error
	done bool
}

// NewReader creates a new reader
func NewReader(r *bufio.Reader) *Reader {
	return &Reader{
		r: r,
	}
}

// Done returns true if we're finished reading from the reader
func (r *Reader) Done() bool {
	return r.err != nil || r.done
}

// Err returns error from last read. io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}

// parseHeader parses "--- ${size} [${timestamp}] [${name}]\n".
// A name that is all digits can't follow a missing timestamp.
func parseHeader(hdr []byte) (size int, ts time.Time, name string, err error) {
	rest, ok := bytes.CutPrefix(hdr, hdrPrefix)
	if !ok {
		return 0, ts, "", fmt.Errorf("unexpected header '%s'", hdr)
	}
	rest = bytes.TrimSuffix(rest, []byte{'\n'})
	sizeStr, rest, _ := bytes.Cut(rest, []byte{' '})
	size, err = strconv.Atoi(string(sizeStr))
	if err != nil || size < 0 {
		return 0, ts, "", fmt.Errorf("invalid size in header '%s'", hdr)
	}
	first, afterFirst, _ := bytes.Cut(rest, []byte{' '})
	if ms, err := strconv.ParseInt(string(first), 10, 64); err == nil {
		ts = TimeFromUnixMillisecond(ms)
		rest = afterFirst
	}
	return size, ts, string(rest), nil
}

// ReadNextData reads next record, returns false when there are no more
// records. If it returns false, check Err() to see if there was an error.
func (r *Reader) ReadNextData() bool {
	if r.Done() {
		return false
	}
	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		switch {
		case err == io.EOF && len(hdr) == 0:
			r.done = true
		case err == io.EOF:
			r.err = io.ErrUnexpectedEOF
		default:
			r.err = err
		}
		return false
	}
	size, ts, name, err := parseHeader(hdr)
	if err != nil {
		r.err = err
		return false
	}
	r.Name, r.Timestamp = name, ts

	// re-use r.Data unless it grew too much
	if size > cap(r.Data) || cap(r.Data) > 1024*1024 {
		r.Data = make([]byte, size)
	} else {
		r.Data = r.Data[:size]
	}
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	// MarshalLine adds '\n' after data that doesn't end with one
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = err
			return false
		}
	}
	return true
}
