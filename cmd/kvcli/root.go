package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kjk/kvcli/log"
	"github.com/kjk/kvcli/store"
)

const version = "1.0"

type options struct {
	dir      string
	kvFile   string
	listFile string
	logDir   string
	verbose  bool
}

// flags win over environment, environment over defaults
func (o *options) applyEnv(cmd *cobra.Command) {
	fromEnv := func(flag string, dst *string, env string) {
		if !cmd.Flags().Changed(flag) {
			*dst = getEnv(env, *dst)
		}
	}
	fromEnv("dir", &o.dir, "KVCLI_DIR")
	fromEnv("kv-file", &o.kvFile, "KVCLI_KV_FILE")
	fromEnv("list-file", &o.listFile, "KVCLI_LIST_FILE")
	fromEnv("log-dir", &o.logDir, "KVCLI_LOG_DIR")
	if !cmd.Flags().Changed("verbose") {
		o.verbose = getEnvBool("KVCLI_VERBOSE", o.verbose)
	}
}

func (o *options) openStore() *store.Store {
	s := store.Open(&store.Store{
		Dir:            o.dir,
		ScalarFileName: o.kvFile,
		ListFileName:   o.listFile,
		OnLoadAnomaly: func(a *store.LoadAnomaly) {
			log.Logf("warning: %s\n", a)
			log.Event("load_anomaly", "path", a.Path, "error", a.Err.Error())
		},
	})
	snap := s.Snapshot()
	log.Verbosef("opened '%s' (%d keys) and '%s' (%d lists)\n", s.ScalarPath(), len(snap.Scalars), s.ListPath(), len(snap.Lists))
	return s
}

// requireArgs validates positional arguments: exactly len(names)
// of them, none empty and all valid UTF-8
func requireArgs(names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != len(names) {
			return newUsageError("'%s' requires %d arguments (%s), got %d", cmd.Name(), len(names), strings.Join(names, ", "), len(args))
		}
		for i, arg := range args {
			if arg == "" {
				return newUsageError("<%s> can't be empty", names[i])
			}
			if !utf8.ValidString(arg) {
				return newUsageError("<%s> is not valid UTF-8: %q", names[i], arg)
			}
		}
		return nil
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "kvcli [COMMAND]",
		Short: "Persistent key-value and list store",
		Long: `Store key-value pairs and append-only lists in files.
Every change is written to disk before the command returns.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.applyEnv(cmd)
			log.Verbose = opts.verbose
			if opts.logDir != "" {
				log.Init(&log.Config{Dir: opts.logDir})
			}
			return nil
		},
		// no command or unknown command: show usage, not an error
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, "Invalid command")
			fmt.Fprint(stdout, cmd.UsageString())
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return newUsageError("%s", err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", ".", "directory of the store files (env KVCLI_DIR)")
	flags.StringVar(&opts.kvFile, "kv-file", store.DefaultScalarFileName, "file name of key-value store, extension picks format (env KVCLI_KV_FILE)")
	flags.StringVar(&opts.listFile, "list-file", store.DefaultListFileName, "file name of list store, extension picks format (env KVCLI_LIST_FILE)")
	flags.StringVar(&opts.logDir, "log-dir", "", "if set, write logs and events to this directory (env KVCLI_LOG_DIR)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging (env KVCLI_VERBOSE)")

	cmd.AddCommand(
		setCmd(opts, stdout),
		appendCmd(opts, stdout),
		displayCmd(opts, stdout),
		eventsCmd(opts, stdout),
		versionCmd(stdout),
	)
	return cmd
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  requireArgs(),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "kvcli %s\n", version)
		},
	}
}
