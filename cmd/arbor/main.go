package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/arbor/cmd/arbor/commands"
	"github.com/teranos/arbor/logger"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "arbor - interactive weighted graph editor",
	Long: `arbor - interactive weighted graph editor.

Draw nodes and weighted edges by tapping a canvas, rename and reweight them
through context menus, and follow the graph as live JSON snapshots.

Available commands:
  am      - Manage arbor configuration
  server  - Serve editing sessions over WebSocket and REST
  console - Edit a graph from the terminal
  replay  - Replay a recorded YAML script
  watch   - Follow a snapshot file as it is rewritten
  db      - Manage snapshot history

Examples:
  arbor server -v             # Serve on the configured port
  arbor console --out g.json  # Edit locally, mirror snapshots to g.json
  arbor replay demo.yaml      # Replay a script and print the result`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'am show' prints config to stdout and must stay clean
		if cmd.Name() == "show" {
			return nil
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetVerbosity(verbosity)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs")

	commands.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
