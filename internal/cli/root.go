// Package cli is the ncattr command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/ncattr/internal/config"
	"github.com/robert-malhotra/ncattr/internal/logging"
)

// Commands annotated configOptional run with the defaults when the config
// file named by --config does not exist yet.
const (
	configAnnotation = "ncattr/config"
	configOptional   = "optional"
)

// app carries the global flags and the configuration they resolve to.
type app struct {
	cfgFile    string
	logLevel   string
	logFile    string
	defaultDir string

	cfg       *config.Config
	logCloser io.Closer
}

// NewRootCommand builds the ncattr command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ncattr [FILE]",
		Short: "View and edit the global attributes of netCDF-4 files",
		Long: `ncattr opens a netCDF-4 file and edits its global (file-level) attributes
one at a time. Without a subcommand it starts the interactive editor,
optionally opening FILE.`,
		Args:               cobra.MaximumNArgs(1),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runEditor,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ~/.ncattr/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	pf.StringVar(&a.logFile, "log-file", "", `log file, "-" for stderr (overrides config)`)
	pf.StringVar(&a.defaultDir, "default-dir", "", "directory the file picker starts in (overrides config)")

	root.AddCommand(
		a.listCommand(),
		a.getCommand(),
		a.inspectCommand(),
		a.configCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(a.cfgFile)
	switch {
	case err == nil:
	case cmd.Annotations[configAnnotation] == configOptional && errors.Is(err, os.ErrNotExist):
		c = config.Defaults()
	case a.cfgFile != "":
		return err
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load config: %v\n", err)
		c = config.Defaults()
	}
	a.cfg = c

	f := cmd.Flags()
	if f.Changed("log-level") {
		c.LogLevel = a.logLevel
	}
	if f.Changed("log-file") {
		c.LogFile = a.logFile
	}
	if f.Changed("default-dir") {
		c.DefaultDir = a.defaultDir
	}

	l, closer, err := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile})
	if err != nil {
		return err
	}
	logging.SetLogger(l.With("cmd", cmd.Name()))
	a.logCloser = closer
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	logging.SetLogger(logging.Discard())
	return err
}
