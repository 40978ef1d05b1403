package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// BuiltinToolNames lists the tools the server can register. Used by
// [Validate] to reject typos in tools.enabled.
var BuiltinToolNames = []string{
	"schedule",
	"check_availability",
	"list_appointments",
	"cancel_appointment",
	"reschedule_appointment",
	"lookup",
	"customer_info",
	"check_inventory",
	"update_records",
	"detect_voicemail",
	"analyze_greeting",
	"compose_voicemail",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Calendar persistence warning
	if cfg.Calendar.PostgresDSN == "" {
		slog.Warn("calendar.postgres_dsn is empty; appointments are kept in memory and lost on restart")
	}

	// Tools
	seen := make(map[string]int, len(cfg.Tools.Enabled))
	for i, name := range cfg.Tools.Enabled {
		prefix := fmt.Sprintf("tools.enabled[%d]", i)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", prefix))
			continue
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q is a duplicate of tools.enabled[%d]", prefix, name, prev))
		}
		seen[name] = i
		if !slices.Contains(BuiltinToolNames, name) {
			errs = append(errs, fmt.Errorf("%s %q is not a known tool; valid values: %v", prefix, name, BuiltinToolNames))
		}
	}

	return errors.Join(errs...)
}

// ToolEnabled reports whether the named tool should be registered under cfg.
// An empty tools.enabled list enables everything.
func (c *Config) ToolEnabled(name string) bool {
	if len(c.Tools.Enabled) == 0 {
		return true
	}
	return slices.Contains(c.Tools.Enabled, name)
}
