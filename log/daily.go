package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// overridden in tests
var timeNow = time.Now

func dailyPath(dir string, t time.Time) string {
	return filepath.Join(dir, t.UTC().Format("2006-01-02")+".txt")
}

// dailyFile appends to <dir>/YYYY-MM-DD.txt and moves on to a new file
// when the UTC day changes. A nil *dailyFile discards writes.
type dailyFile struct {
	dir string

	mu   sync.Mutex
	path string
	f    *os.File
}

// write calls fn with today's file, under the lock so that records
// from concurrent writers don't interleave
func (d *dailyFile) write(fn func(w io.Writer) error) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	path := dailyPath(d.dir, timeNow())
	if d.f != nil && d.path != path {
		d.f.Close()
		d.f = nil
	}
	if d.f == nil {
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		d.f, d.path = f, path
	}
	return fn(d.f)
}

func (d *dailyFile) writeString(s string) error {
	return d.write(func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func (d *dailyFile) close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return nil
	}
	err := d.f.Sync()
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	d.f = nil
	return err
}
