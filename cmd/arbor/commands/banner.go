package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/version"
)

// printStartupBanner prints the user-facing startup box
func printStartupBanner(cfg *am.Config, verbosity int, dbPath string) {
	info := version.Get()

	pterm.DefaultHeader.WithFullWidth(false).Println("arbor")

	rows := pterm.TableData{
		{"Version", fmt.Sprintf("%s (commit %s)", info.Version, info.Short())},
		{"Built", info.BuildTime},
		{"Verbosity", levelName(verbosity)},
		{"Listen", fmt.Sprintf("http://localhost:%d", cfg.GetServerPort())},
	}
	if dbPath != "" {
		rows = append(rows, []string{"Database", dbPath})
	} else {
		rows = append(rows, []string{"Database", "none (history disabled)"})
	}
	if cfg.Snapshot.File != "" {
		rows = append(rows, []string{"Snapshot file", cfg.Snapshot.File})
	}
	_ = pterm.DefaultTable.WithData(rows).Render()

	pterm.Info.Printfln("Connect a canvas to ws://localhost:%d/ws?session=<id>", cfg.GetServerPort())
	pterm.Info.Println("Press Ctrl+C to stop")
}

func levelName(verbosity int) string {
	switch {
	case verbosity <= 0:
		return "warn"
	case verbosity == 1:
		return "info"
	case verbosity == 2:
		return "debug"
	default:
		return "trace"
	}
}
