package commands

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
	"github.com/teranos/arbor/server"
)

// ServerCmd serves editing sessions to browsers
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Serve editing sessions over WebSocket and REST",
	Long: `Start the arbor server. Each browser connects to /ws?session=<id>; clients
sharing a session id edit the same graph and see each other's changes.

Snapshots are kept in the database (unless --no-db) so a restarted server
resumes every session where it left off. The config file is watched and
origin, menu and rate-limit settings are applied without a restart.`,
	RunE: runServer,
}

var (
	serverPort       int
	serverDBPath     string
	serverNoDB       bool
	serverConfigPath string
)

func init() {
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Listen port (overrides config)")
	ServerCmd.Flags().StringVar(&serverDBPath, "db-path", "", "Custom database path (overrides config)")
	ServerCmd.Flags().BoolVar(&serverNoDB, "no-db", false, "Run without snapshot history")
	ServerCmd.Flags().StringVar(&serverConfigPath, "config", "", "Read only this config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
		logger.SetVerbosity(verbosity)
	}

	cfg, err := loadConfig(serverConfigPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	applyServerFlags(cfg)

	opts := []server.Option{server.WithVerbosity(verbosity)}
	var dbPath string
	if !serverNoDB {
		var database *sql.DB
		database, dbPath, err = openDatabase(cfg, serverDBPath)
		if err != nil {
			return err
		}
		defer database.Close()
		opts = append(opts, server.WithDatabase(database))
	}

	printStartupBanner(cfg, verbosity, dbPath)

	srv := server.New(cfg, opts...)
	if watcher := watchConfig(srv); watcher != nil {
		defer watcher.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// applyServerFlags copies explicit flags over the loaded config
func applyServerFlags(cfg *am.Config) {
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if serverDBPath != "" {
		cfg.Database.Path = serverDBPath
	}
}

// watchConfig reloads the effective config file into srv when it changes.
// Without a config file there is nothing to watch.
func watchConfig(srv *server.Server) *am.ConfigWatcher {
	path := serverConfigPath
	if path == "" {
		path = am.FindProjectConfig()
	}
	if path == "" {
		if _, err := os.Stat(am.UserConfigPath()); err == nil {
			path = am.UserConfigPath()
		}
	}
	if path == "" {
		return nil
	}

	watcher, err := am.NewConfigWatcher(path)
	if err != nil {
		logger.Warnw("Config watcher unavailable", logger.FieldPath, path, logger.FieldError, err)
		return nil
	}
	watcher.OnReload(func(cfg *am.Config) error {
		applyServerFlags(cfg)
		srv.Reconfigure(cfg)
		return nil
	})
	watcher.Start()
	am.SetGlobalWatcher(watcher)
	return watcher
}
