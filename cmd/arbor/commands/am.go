package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/errors"
)

// AmCmd groups the configuration commands
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage arbor configuration",
	Long: `Display and manage arbor configuration ("arbor manifest").

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/arbor/arbor.toml)
3. User config (~/.arbor/arbor.toml)
4. Project config (./arbor.toml, searched up from the working directory)
5. Environment variables (ARBOR_* prefix, e.g. ARBOR_SERVER_PORT)

Examples:
  arbor am show                  # Show the effective configuration
  arbor am show --format json    # ... as JSON
  arbor am show --sources        # Show where each value came from
  arbor am init                  # Write the defaults to ./arbor.toml
  arbor am validate              # Validate the effective configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Long:  "Write the built-in defaults as TOML, to ./arbor.toml unless a path is given. An existing file is backed up first.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var (
	configFormat  string
	configSources bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&configSources, "sources", false, "List each setting with its source")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if configSources {
		return printSources(cmd.OutOrStdout(), am.Introspect())
	}
	return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
}

// writeConfig renders cfg in one of the supported formats
func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(w, "# arbor configuration\n%s", data)
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Fprintf(w, "# arbor configuration\n%s", data)
	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func printSources(w io.Writer, settings []am.SettingInfo) error {
	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		rows = append(rows, []string{s.Key, value, string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(rows).Render()
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ProjectConfigName
	if len(args) == 1 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	if err := am.Save(am.Defaults(), abs); err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Wrote default configuration to %s", abs)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load rejects invalid configs
	if _, err := am.Load(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Println("Configuration is valid")
	return nil
}
