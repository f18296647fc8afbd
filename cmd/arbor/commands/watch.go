package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot"
)

// WatchCmd follows a snapshot file
var WatchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Print a snapshot file every time it is rewritten",
	Long: `Follow a snapshot file written by 'arbor server' or 'arbor console --out'.
The current contents are printed first, then every new version, until Ctrl+C.
Unparseable versions are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchNodeLink bool

func init() {
	WatchCmd.Flags().BoolVar(&watchNodeLink, "nodelink", false, "Print node-link JSON instead of the element list")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var last string
	return snapshot.Watch(ctx, args[0], func(data []byte) {
		rev := snapshot.Revision(data)
		if rev == last {
			return
		}
		last = rev

		snap, err := graph.ParseSnapshot(data)
		if err != nil {
			logger.Warnw("Skipping unreadable snapshot", logger.FieldPath, args[0], logger.FieldError, err)
			return
		}
		pterm.Info.WithWriter(out).Printfln("revision %s: %d nodes, %d edges", rev, snap.NodeCount(), snap.EdgeCount())
		if watchNodeLink {
			data, err = json.MarshalIndent(snap.ToNodeLink(), "", "  ")
			if err != nil {
				logger.Warnw("Node-link conversion failed", logger.FieldError, err)
				return
			}
		}
		fmt.Fprintln(out, string(data))
	})
}
