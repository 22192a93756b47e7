package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the scanner service.
type API struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	HealthTimeout  int    `toml:"health_timeout"`
}

// Server contains settings for the locally supervised server process.
type Server struct {
	Command      string   `toml:"command"`
	Args         []string `toml:"args"`
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	StartupGrace int      `toml:"startup_grace"`
	StopTimeout  int      `toml:"stop_timeout"`
	RestartDelay int      `toml:"restart_delay"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Scan contains defaults for starting and following scans.
type Scan struct {
	PollInterval int      `toml:"poll_interval"`
	MaxPages     int      `toml:"max_pages"`
	MaxDepth     int      `toml:"max_depth"`
	Scanners     []string `toml:"scanners"`
}

// Dashboard contains settings for the auto-refreshing TUI.
type Dashboard struct {
	RefreshInterval int `toml:"refresh_interval"`
	ScanLimit       int `toml:"scan_limit"`
	ProjectLimit    int `toml:"project_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the wcagscan CLI.
//
// Configuration sections by subsystem:
//   - API: scanner service base URL and request timeouts
//   - Server: supervised server process command and lifecycle timings
//   - Paths: data directory (pid file, lock, history db) and log directory
//   - Scan: polling interval and scan creation defaults
//   - Dashboard: TUI refresh interval and fetch limits
//   - Logging: log format and level
type Config struct {
	API       API       `toml:"api"`
	Server    Server    `toml:"server"`
	Paths     Paths     `toml:"paths"`
	Scan      Scan      `toml:"scan"`
	Dashboard Dashboard `toml:"dashboard"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wcagscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wcagscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PidFilePath returns the location of the supervised server's pid record.
func (c *Config) PidFilePath() string {
	return filepath.Join(c.Paths.DataDir, "server.pid")
}

// LockFilePath returns the advisory lock taken around supervisor mutations.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "server.lock")
}

// ServerLogPath returns the file the supervised server's output is redirected to.
func (c *Config) ServerLogPath() string {
	return filepath.Join(c.Paths.DataDir, "server.log")
}

// HistoryDBPath returns the local scan history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// ServerAddr returns the host:port the supervised server binds to.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
