package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/editor"
	"github.com/teranos/arbor/editor/console"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/snapshot"
)

// ConsoleCmd edits a graph from the terminal
var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Edit a graph from the terminal",
	Long: `Start a local editing session driven by typed commands (tap, dbltap,
cxttap, choose, pointer, ls, export, load, reset). Prompts such as the edge
weight are answered on the next line; '!' cancels.

Every snapshot can be mirrored to a file with --out, which another terminal
can follow with 'arbor watch'.`,
	RunE: runConsole,
}

var (
	consoleSession string
	consoleLoad    string
	consoleOut     string
)

func init() {
	ConsoleCmd.Flags().StringVar(&consoleSession, "session", "console", "Session id")
	ConsoleCmd.Flags().StringVar(&consoleLoad, "load", "", "Start from a snapshot or TOML fixture")
	ConsoleCmd.Flags().StringVar(&consoleOut, "out", "", "Write every snapshot to this file (overrides snapshot.file)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	con := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	s, err := newLocalSession(cfg, consoleSession, consoleOut,
		editor.WithPrompter(con),
		editor.WithView(con),
	)
	if err != nil {
		return err
	}
	con.Attach(s)

	if consoleLoad != "" {
		if _, err := con.Exec(shellquote.Join("load", consoleLoad)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return con.Run(ctx)
}

// newLocalSession builds a session configured like a server session, minus
// the database. out, if set, replaces snapshot.file.
func newLocalSession(cfg *am.Config, id, out string, opts ...editor.Option) (*editor.Session, error) {
	base := []editor.Option{
		editor.WithID(id),
		editor.WithMenuLayout(cfg.MenuLayout()),
		editor.WithSeedNode(cfg.Editor.SeedNode, cfg.SeedPosition()),
	}
	if out == "" {
		out = cfg.Snapshot.File
	}
	if out != "" {
		base = append(base, editor.WithPublishers(snapshot.NewFilePublisher(out)))
	}
	return editor.New(append(base, opts...)...)
}
