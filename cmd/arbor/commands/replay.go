package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/editor/script"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/graph"
	"github.com/teranos/arbor/snapshot"
)

// ReplayCmd replays a YAML editing script
var ReplayCmd = &cobra.Command{
	Use:   "replay SCRIPT",
	Short: "Replay a recorded YAML script and print the final snapshot",
	Long: `Replay a YAML script of gestures, menu choices and prompt answers against a
fresh session, checking every expect step along the way. The final snapshot
is printed, or written to --out.

Example script:
  name: connect two nodes
  steps:
    - tap: {x: 10, y: 10}
    - tap: {x: 50, y: 50}
    - tap: N1
    - tap: N2
    - answer: "7"
    - expect: {nodes: 2, edges: 1}`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayOut      string
	replayNodeLink bool
)

func init() {
	ReplayCmd.Flags().StringVar(&replayOut, "out", "", "Also write every snapshot to this file")
	ReplayCmd.Flags().BoolVar(&replayNodeLink, "nodelink", false, "Print node-link JSON instead of the element list")
}

func runReplay(cmd *cobra.Command, args []string) error {
	sc, err := script.Load(args[0])
	if err != nil {
		return err
	}
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	s, err := newLocalSession(cfg, "replay", replayOut)
	if err != nil {
		return err
	}
	if err := script.Run(s, sc); err != nil {
		return errors.Wrapf(err, "replay %s", args[0])
	}

	rec, _ := s.Latest()
	return printRecord(cmd, rec, replayNodeLink)
}

// printRecord writes a snapshot record to stdout, optionally converted
func printRecord(cmd *cobra.Command, rec snapshot.Record, nodeLink bool) error {
	if !nodeLink {
		fmt.Fprintln(cmd.OutOrStdout(), string(rec.Data))
		return nil
	}
	snap, err := graph.ParseSnapshot(rec.Data)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap.ToNodeLink(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal node-link")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
