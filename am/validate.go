package am

import "github.com/teranos/arbor/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 falls back to the default, negative or too large is invalid
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.GesturesPerSecond < 0 {
		return errors.Newf("server.gestures_per_second must be >= 0, got %f", c.Server.GesturesPerSecond)
	}
	if c.Server.GestureBurst < 0 {
		return errors.Newf("server.gesture_burst must be >= 0, got %d", c.Server.GestureBurst)
	}
	if c.Server.IdleSessionSecs < 0 {
		return errors.Newf("server.idle_session_secs must be >= 0, got %d", c.Server.IdleSessionSecs)
	}

	// 0 keeps every snapshot
	if c.Database.HistoryLimit < 0 {
		return errors.Newf("database.history_limit must be >= 0, got %d", c.Database.HistoryLimit)
	}

	if c.Menu.Width < 0 || c.Menu.ItemHeight < 0 || c.Menu.Padding < 0 {
		return errors.New("menu dimensions must be >= 0")
	}

	return nil
}
