package config

import "slices"

// ConfigDiff describes what changed between two configs. Only the log level
// can be applied without a restart; everything else is reported so the
// operator knows a reload was ignored.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired is true when a changed field cannot be hot-applied.
	RestartRequired bool

	// RestartReasons names the fields that require a restart to take effect.
	RestartReasons []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	restart := func(reason string) {
		d.RestartRequired = true
		d.RestartReasons = append(d.RestartReasons, reason)
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		restart("server.listen_addr")
	}
	if !tlsEqual(old.Server.TLS, new.Server.TLS) {
		restart("server.tls")
	}
	if old.Calendar.PostgresDSN != new.Calendar.PostgresDSN {
		restart("calendar.postgres_dsn")
	}
	if old.Directory.DemoData != new.Directory.DemoData {
		restart("directory.demo_data")
	}
	if old.Tools.ExposeMCP != new.Tools.ExposeMCP {
		restart("tools.expose_mcp")
	}
	if !slices.Equal(old.Tools.Enabled, new.Tools.Enabled) {
		restart("tools.enabled")
	}

	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
