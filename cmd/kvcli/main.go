package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kjk/kvcli/log"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError is a problem with command line arguments. It's reported
// with usage and doesn't touch the store.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// run executes the command line and returns exit code
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	log.Output = stderr
	defer log.Close()

	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	executed, err := cmd.ExecuteC()
	if err == nil {
		return exitOK
	}

	var uerr *usageError
	if errors.As(err, &uerr) && executed != nil {
		fmt.Fprintf(stderr, "error: %s\n\n", uerr.msg)
		fmt.Fprint(stderr, executed.UsageString())
		return exitUsage
	}
	// write failures (the message names the file and the cause)
	// and anything unexpected
	log.Errorf("error: %s", err)
	return exitFailure
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
