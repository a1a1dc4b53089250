package ledger

import "time"

// Config holds ledger tuning parameters.
type Config struct {
	// Path is the SQLite database file. ":memory:" gives a private
	// in-process ledger.
	Path string

	// BusyTimeout bounds how long a write waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode is the SQLite journal mode, WAL by default.
	JournalMode string
}

// DefaultConfig returns a Config with production defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	}
}

func (c *Config) validate() {
	if c.Path == "" {
		c.Path = ":memory:"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.BusyTimeout > time.Minute {
		c.BusyTimeout = time.Minute
	}
	switch c.JournalMode {
	case "WAL", "DELETE", "TRUNCATE", "MEMORY":
	default:
		c.JournalMode = "WAL"
	}
}
