package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/teranos/arbor/editor/menu"
	"github.com/teranos/arbor/graph"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "arbor.db")
	v.SetDefault("database.history_limit", 200)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.gestures_per_second", 20.0)
	v.SetDefault("server.gesture_burst", 40)
	v.SetDefault("server.idle_session_secs", 0)

	// New graphs start with node A, like the classic editor page
	v.SetDefault("editor.seed_node", "A")
	v.SetDefault("editor.seed_x", 100.0)
	v.SetDefault("editor.seed_y", 100.0)
	v.SetDefault("editor.restore", true)

	v.SetDefault("snapshot.file", "")

	v.SetDefault("menu.width", menu.DefaultLayout.Width)
	v.SetDefault("menu.item_height", menu.DefaultLayout.ItemHeight)
	v.SetDefault("menu.padding", menu.DefaultLayout.Padding)
}

// BindEnvVars explicitly binds settings commonly overridden per deployment
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "ARBOR_DATABASE_PATH")
	v.BindEnv("server.port", "ARBOR_SERVER_PORT")
	v.BindEnv("snapshot.file", "ARBOR_SNAPSHOT_FILE")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "arbor.db"
	}
	return c.Database.Path
}

// GetServerPort returns the configured port or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == 0 {
		return DefaultServerPort
	}
	return c.Server.Port
}

// GetServerAllowedOrigins returns the allowed WebSocket origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"}
	}
	return c.Server.AllowedOrigins
}

// MenuLayout returns the menu geometry with defaults for unset values
func (c *Config) MenuLayout() menu.Layout {
	l := menu.Layout{Width: c.Menu.Width, ItemHeight: c.Menu.ItemHeight, Padding: c.Menu.Padding}
	if l.Width <= 0 {
		l.Width = menu.DefaultLayout.Width
	}
	if l.ItemHeight <= 0 {
		l.ItemHeight = menu.DefaultLayout.ItemHeight
	}
	return l
}

// SeedPosition returns where the seed node goes
func (c *Config) SeedPosition() graph.Position {
	return graph.Position{X: c.Editor.SeedX, Y: c.Editor.SeedY}
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Server: {Port: %d}, Editor: {Seed: %q}, Snapshot: {File: %q}}",
		c.Database.Path, c.Server.Port, c.Editor.SeedNode, c.Snapshot.File)
}
