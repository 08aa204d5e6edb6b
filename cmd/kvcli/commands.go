package main

import (
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kjk/kvcli/log"
)

func setCmd(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key-value pair",
		Args:  requireArgs("key", "value"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			s := opts.openStore()
			timeStart := time.Now()
			if err := s.Set(key, value); err != nil {
				return errors.Wrapf(err, "set '%s'", key)
			}
			log.EventWithDuration("set", time.Since(timeStart), "key", key, "value", value)
			fmt.Fprintf(stdout, "Set key '%s' to '%s'\n", key, value)
			return nil
		},
	}
}

func appendCmd(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "append <list> <value>",
		Short: "Append a value to a list",
		Args:  requireArgs("list", "value"),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, value := args[0], args[1]
			s := opts.openStore()
			timeStart := time.Now()
			if err := s.Append(list, value); err != nil {
				return errors.Wrapf(err, "append to '%s'", list)
			}
			log.EventWithDuration("append", time.Since(timeStart), "list", list, "value", value)
			fmt.Fprintf(stdout, "Appended '%s' to list '%s'\n", value, list)
			return nil
		},
	}
}

func displayCmd(opts *options, stdout io.Writer) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "display",
		Short: "Display all stored key-value pairs and lists",
		Args:  requireArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, ok := renderers[format]
			if !ok {
				return newUsageError("unknown format '%s', must be one of: %s", format, renderFormats())
			}
			s := opts.openStore()
			return render(stdout, s.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: "+renderFormats())
	return cmd
}

func eventsCmd(opts *options, stdout io.Writer) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show changes logged on a given day",
		Long: `Show set, append and load_anomaly events recorded in the events
log under --log-dir, oldest first.`,
		Args: requireArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.logDir == "" {
				return newUsageError("'events' needs --log-dir or KVCLI_LOG_DIR")
			}
			t := time.Now().UTC()
			if day != "" {
				var err error
				if t, err = time.Parse("2006-01-02", day); err != nil {
					return newUsageError("invalid --day '%s', expected YYYY-MM-DD", day)
				}
			}
			err := log.ReadEvents(opts.logDir, t, func(e *log.EventRecord) error {
				return renderEvent(stdout, e)
			})
			if errors.Is(err, fs.ErrNotExist) {
				log.Logf("no events on %s\n", t.Format("2006-01-02"))
				return nil
			}
			return errors.Wrap(err, "events")
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day to show, YYYY-MM-DD in UTC (default today)")
	return cmd
}
