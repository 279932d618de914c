// Package config locates the per-repo config directory and loads/saves the
// small operator-tunable settings the supervisor honors (spec §10.3): the
// debounce interval and the registry file name, both of which otherwise
// default per spec §4.A/§4.D.
//
// This mirrors the teacher's internal/config/global.go: a JSON file under a
// dotdir, loaded with sane defaults filled in on read, round-tripped with
// json.MarshalIndent on write. Unlike the teacher's user-home global
// config, this one is per-repo (it walks up from the CWD looking for the
// marker directory, exactly like a child workspace's registry lookup would)
// rather than user-home, since debounce/registry tuning is a property of
// the repo being orchestrated, not of the operator's machine.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ConfigDirName is the marker/config directory name (spec §4.A
// "<repoRoot>/<config-dir>/<product-dir>/").
const ConfigDirName = ".orchsup"

// DefaultRegistryFileName is spec §4.A's default registry file name.
const DefaultRegistryFileName = "session-registry.json"

// DefaultDebounceIntervalMS is spec §4.D's default idle-debounce interval.
const DefaultDebounceIntervalMS = 5000

// GlobalConfig holds the operator-tunable settings for one repo's
// supervisor instance.
type GlobalConfig struct {
	DebounceIntervalMS int    `json:"debounce_interval_ms,omitempty"`
	RegistryFileName   string `json:"registry_file_name,omitempty"`
	// StaleWorkspaceMaxAge is a maxAge value for workspace CleanupStale
	// (spec §12 "Workspace crash-recovery sweep"), which removes any
	// worktree directory older than it whatever its child's state. Zero
	// disables the age check.
	StaleWorkspaceMaxAge time.Duration `json:"stale_workspace_max_age,omitempty"`
}

// fillDefaults sets every zero-valued tunable to its spec default.
func (c *GlobalConfig) fillDefaults() {
	if c.DebounceIntervalMS <= 0 {
		c.DebounceIntervalMS = DefaultDebounceIntervalMS
	}
	if c.RegistryFileName == "" {
		c.RegistryFileName = DefaultRegistryFileName
	}
}

// DebounceInterval returns the configured debounce interval as a
// time.Duration, ready to pass to supervisor.WithDebounceInterval.
func (c *GlobalConfig) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceIntervalMS) * time.Millisecond
}

// Dir walks upward from start (a directory) looking for a ConfigDirName
// marker directory, the way a repo-scoped config is conventionally
// located. If none is found by the filesystem root, it falls back to
// filepath.Join(start, ConfigDirName), creating it.
func Dir(start string) string {
	dir := start
	for {
		candidate := filepath.Join(dir, ConfigDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	fallback := filepath.Join(start, ConfigDirName)
	os.MkdirAll(fallback, 0755)
	return fallback
}

func configPath(configDir string) string {
	return filepath.Join(configDir, "config.json")
}

// Load reads <configDir>/config.json, returning a default-filled config if
// the file is absent.
func Load(configDir string) (*GlobalConfig, error) {
	data, err := os.ReadFile(configPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &GlobalConfig{}
			cfg.fillDefaults()
			return cfg, nil
		}
		return nil, err
	}

	var cfg GlobalConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// Save writes cfg to <configDir>/config.json, filling defaults first.
func Save(configDir string, cfg *GlobalConfig) error {
	if cfg == nil {
		cfg = &GlobalConfig{}
	}
	cfg.fillDefaults()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(configPath(configDir), data, 0644)
}
