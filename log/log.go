// Package log prints diagnostics on Output and, after Init, also
// appends them to one file per UTC day under the configured directory:
//
//	<dir>/log/YYYY-MM-DD.txt     everything printed with Logf
//	<dir>/errors/YYYY-MM-DD.txt  Errorf messages with call stack
//	<dir>/events/YYYY-MM-DD.txt  structured events, see Event
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	// Output is where Logf() prints. stdout belongs to command output.
	Output io.Writer = os.Stderr

	// if true, Verbosef() will log messages
	Verbose bool

	logFile    *dailyFile
	errorsFile *dailyFile
	eventsFile *dailyFile
)

const eventsDirName = "events"

type Config struct {
	// root of per-kind log directories
	Dir string
}

// Init enables logging to files in config.Dir. Files are created on
// first write so a run that logs nothing leaves no trace.
func Init(config *Config) {
	dir := config.Dir
	logFile = &dailyFile{dir: filepath.Join(dir, "log")}
	errorsFile = &dailyFile{dir: filepath.Join(dir, "errors")}
	eventsFile = &dailyFile{dir: filepath.Join(dir, eventsDirName)}
}

// Close flushes and closes log files. Logging to files stops until
// the next Init.
func Close() {
	logFile.close()
	errorsFile.close()
	eventsFile.close()
	logFile, errorsFile, eventsFile = nil, nil, nil
}

func Logf(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	fmt.Fprint(Output, s)
	logFile.writeString(s)
}

func Verbosef(format string, args ...any) {
	if Verbose {
		Logf(format, args...)
	}
}

// Errorf is Logf for errors. The errors file also gets the call stack
// of the caller.
func Errorf(format string, args ...any) {
	s := format
	if len(args) > 0 {
		s = fmt.Sprintf(format, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	Logf("%s", s)
	errorsFile.writeString(s + callstack(1))
}

// callstack returns "file:line" of the callers, one per line. skip is
// the number of frames to skip above the caller of callstack.
func callstack(skip int) string {
	pcs := make([]uintptr, 32)
	pcs = pcs[:runtime.Callers(skip+2, pcs)]
	frames := runtime.CallersFrames(pcs)
	var sb strings.Builder
	for {
		fr, more := frames.Next()
		if fr.File != "" {
			fmt.Fprintf(&sb, "%s:%d\n", fr.File, fr.Line)
		}
		if !more {
			return sb.String()
		}
	}
}
