// Package am ("arbor manifest") holds arbor's configuration: TOML files
// merged by precedence, overridden by ARBOR_* environment variables.
package am

// Config represents the arbor configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Editor   EditorConfig   `mapstructure:"editor" toml:"editor" json:"editor" yaml:"editor"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" toml:"snapshot" json:"snapshot" yaml:"snapshot"`
	Menu     MenuConfig     `mapstructure:"menu" toml:"menu" json:"menu" yaml:"menu"`
}

// DatabaseConfig configures the SQLite snapshot history
type DatabaseConfig struct {
	Path         string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	HistoryLimit int    `mapstructure:"history_limit" toml:"history_limit" json:"history_limit" yaml:"history_limit"` // snapshots kept per session, 0 = unlimited
}

// ServerConfig configures the HTTP/WebSocket server
type ServerConfig struct {
	Port              int      `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	GesturesPerSecond float64  `mapstructure:"gestures_per_second" toml:"gestures_per_second" json:"gestures_per_second" yaml:"gestures_per_second"` // per client, 0 = unlimited
	GestureBurst      int      `mapstructure:"gesture_burst" toml:"gesture_burst" json:"gesture_burst" yaml:"gesture_burst"`
	IdleSessionSecs   int      `mapstructure:"idle_session_secs" toml:"idle_session_secs" json:"idle_session_secs" yaml:"idle_session_secs"` // drop sessions without clients after this long, 0 = never
}

// EditorConfig configures new editing sessions
type EditorConfig struct {
	SeedNode string  `mapstructure:"seed_node" toml:"seed_node" json:"seed_node" yaml:"seed_node"` // empty = start with an empty graph
	SeedX    float64 `mapstructure:"seed_x" toml:"seed_x" json:"seed_x" yaml:"seed_x"`
	SeedY    float64 `mapstructure:"seed_y" toml:"seed_y" json:"seed_y" yaml:"seed_y"`
	Restore  bool    `mapstructure:"restore" toml:"restore" json:"restore" yaml:"restore"` // resume sessions from the snapshot history
}

// SnapshotConfig configures where snapshots are published
type SnapshotConfig struct {
	File string `mapstructure:"file" toml:"file" json:"file" yaml:"file"` // may contain {session}; empty = no file
}

// MenuConfig configures context menu geometry, in screen pixels
type MenuConfig struct {
	Width      float64 `mapstructure:"width" toml:"width" json:"width" yaml:"width"`
	ItemHeight float64 `mapstructure:"item_height" toml:"item_height" json:"item_height" yaml:"item_height"`
	Padding    float64 `mapstructure:"padding" toml:"padding" json:"padding" yaml:"padding"`
}

// Server port constants
const (
	DefaultServerPort = 8787
)

// DefaultDirPermissions is used for ~/.arbor
const DefaultDirPermissions = 0o750
