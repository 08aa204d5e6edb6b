package log

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toon-format/toon-go"

	"github.com/kjk/kvcli/siser"
)

// EventRecord is an event read back from an events file
type EventRecord struct {
	Name string
	Time time.Time
	// key/value pairs, toon encoded
	Payload string
}

// EventsPath returns the events file under logDir for the UTC day of t
func EventsPath(logDir string, t time.Time) string {
	return dailyPath(filepath.Join(logDir, eventsDirName), t)
}

// vals are key, value, key, value... with string keys
func eventPayload(vals []any) []byte {
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("log.Event: odd number of vals: %d", n))
	}
	if n == 0 {
		return nil
	}
	m := make(map[string]any, n/2)
	for i := 0; i < n; i += 2 {
		k, ok := vals[i].(string)
		if !ok {
			panic(fmt.Sprintf("log.Event: key %v is %T, not string", vals[i], vals[i]))
		}
		m[k] = vals[i+1]
	}
	d, err := toon.Marshal(m)
	if err != nil {
		return []byte("error: " + err.Error())
	}
	return d
}

// Event records a named event with key/value pairs in the events file
// as a siser record. A no-op unless Init() was called.
func Event(name string, vals ...any) {
	if eventsFile == nil {
		return
	}
	d := eventPayload(vals)
	eventsFile.write(func(w io.Writer) error {
		_, err := siser.NewWriter(w).Write(d, timeNow().UTC(), name)
		return err
	})
}

func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}

// ReadEvents calls fn for every event logged under logDir on the UTC
// day of t, oldest first. A missing file is reported as an error
// matching fs.ErrNotExist.
func ReadEvents(logDir string, t time.Time, fn func(e *EventRecord) error) error {
	path := EventsPath(logDir, t)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := siser.NewReader(bufio.NewReader(f))
	for r.ReadNextData() {
		e := &EventRecord{
			Name:    r.Name,
			Time:    r.Timestamp.UTC(),
			Payload: strings.TrimSuffix(string(r.Data), "\n"),
		}
		if err = fn(e); err != nil {
			return err
		}
	}
	if err = r.Err(); err != nil {
		return fmt.Errorf("reading '%s': %w", path, err)
	}
	return nil
}
