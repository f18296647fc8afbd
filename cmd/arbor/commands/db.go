package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/db"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/snapshot/storage"
)

// DbCmd groups snapshot database maintenance
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the snapshot history database",
	Long: `Inspect and maintain the SQLite database that keeps every session's
snapshot history.

Examples:
  arbor db migrate          # Apply pending migrations
  arbor db stats            # Count sessions and snapshots
  arbor db prune --keep 10  # Keep the newest 10 snapshots per session`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show snapshot history statistics",
	RunE:  runDbStats,
}

var dbPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop old snapshots from every session",
	RunE:  runDbPrune,
}

var (
	dbPath      string
	dbPruneKeep int
)

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Custom database path (overrides config)")
	dbPruneCmd.Flags().IntVar(&dbPruneKeep, "keep", 0, "Snapshots to keep per session (default: database.history_limit)")

	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbPruneCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	path := dbPath
	if path == "" {
		path = cfg.GetDatabasePath()
	}

	database, err := db.Open(path, logger.Logger)
	if err != nil {
		return err
	}
	defer database.Close()

	pending, err := db.Pending(database)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%s is up to date", path)
		return nil
	}
	for _, name := range pending {
		pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln("pending: %s", name)
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Applied %d migrations to %s", len(pending), path)
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	database, path, err := openDatabase(cfg, dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := db.CollectStats(cmd.Context(), database)
	if err != nil {
		return err
	}
	newest := stats.Newest
	if newest == "" {
		newest = "-"
	}
	return pterm.DefaultTable.WithWriter(cmd.OutOrStdout()).WithData(pterm.TableData{
		{"Database", path},
		{"Sessions", strconv.Itoa(stats.Sessions)},
		{"Snapshots", strconv.Itoa(stats.Snapshots)},
		{"Newest", newest},
	}).Render()
}

func runDbPrune(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	keep := dbPruneKeep
	if keep == 0 {
		keep = cfg.Database.HistoryLimit
	}
	if keep <= 0 {
		return errors.NewInvalidRequestError("nothing to prune: pass --keep or set database.history_limit")
	}

	database, _, err := openDatabase(cfg, dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	removed, err := pruneAll(cmd.Context(), storage.NewSnapshotStore(database), keep)
	if err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Removed %d snapshots (keeping %d per session)", removed, keep)
	return nil
}

func pruneAll(ctx context.Context, store *storage.SnapshotStore, keep int) (int64, error) {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, id := range sessions {
		n, err := store.Prune(ctx, id, keep)
		if err != nil {
			return total, fmt.Errorf("prune session %s: %w", id, err)
		}
		total += n
	}
	return total, nil
}
