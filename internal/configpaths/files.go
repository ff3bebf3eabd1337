// Package configpaths resolves filesystem paths for steamctl's PID files
// and optional CLI-default config files.
package configpaths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigDir returns the configuration directory for steamctl.
func DefaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "steamctl"), nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", "steamctl"), nil
	}
	return "", errors.New("HOME not set")
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return os.MkdirAll(dir, 0o755)
}

// PidFile returns the PID file path for controller index idx (0..3), per §6:
// /tmp/steamcontroller<INDEX>.pid.
func PidFile(idx int) string {
	return fmt.Sprintf("/tmp/steamcontroller%d.pid", idx)
}

// ConfigCandidatePaths builds candidate CLI-defaults paths per format.
// If userPath is provided, it is prioritized and routed to the matching
// loader by extension. These files set default flag values only; the
// controller binding profile itself is never one of these formats.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	wd, _ := os.Getwd()
	for _, base := range []string{"steamctl"} {
		add(&jsonPaths, filepath.Join(wd, base+".json"))
		add(&yamlPaths, filepath.Join(wd, base+".yaml"))
		add(&yamlPaths, filepath.Join(wd, base+".yml"))
		add(&tomlPaths, filepath.Join(wd, base+".toml"))
	}

	if dir, err := DefaultConfigDir(); err == nil {
		add(&jsonPaths, filepath.Join(dir, "config.json"))
		add(&yamlPaths, filepath.Join(dir, "config.yaml"))
		add(&yamlPaths, filepath.Join(dir, "config.yml"))
		add(&tomlPaths, filepath.Join(dir, "config.toml"))
	}

	add(&jsonPaths, "/etc/steamctl/config.json")
	add(&yamlPaths, "/etc/steamctl/config.yaml")
	add(&tomlPaths, "/etc/steamctl/config.toml")

	return
}
