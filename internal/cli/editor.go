package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robert-malhotra/ncattr/internal/session"
	"github.com/robert-malhotra/ncattr/internal/tui"
)

var errNoTerminal = errors.New("the editor needs an interactive terminal; use list or get instead")

func (a *app) runEditor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}
	s := session.New(session.WithExtensions(a.cfg.Extensions))
	opts := tui.Options{StartDir: a.cfg.DefaultDir}
	if len(args) == 1 {
		opts.InitialFile = args[0]
	}
	return tui.Run(tui.New(s, opts))
}
