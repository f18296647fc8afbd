// Package commands holds the arbor CLI subcommands
package commands

import "github.com/spf13/cobra"

// Register adds every arbor subcommand to root
func Register(root *cobra.Command) {
	root.AddCommand(AmCmd)
	root.AddCommand(ConsoleCmd)
	root.AddCommand(DbCmd)
	root.AddCommand(ReplayCmd)
	root.AddCommand(ServerCmd)
	root.AddCommand(VersionCmd)
	root.AddCommand(WatchCmd)
}
