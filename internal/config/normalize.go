package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeServer()
	c.normalizeScan()
	c.normalizeDashboard()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.HealthTimeout <= 0 {
		c.API.HealthTimeout = defaultHealthTimeout
	}
}

func (c *Config) normalizeServer() {
	c.Server.Command = strings.TrimSpace(c.Server.Command)
	if c.Server.Command == "" {
		c.Server.Command = defaultServerCommand
	}
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	if c.Server.StartupGrace <= 0 {
		c.Server.StartupGrace = defaultStartupGrace
	}
	if c.Server.StopTimeout <= 0 {
		c.Server.StopTimeout = defaultStopTimeout
	}
	if c.Server.RestartDelay <= 0 {
		c.Server.RestartDelay = defaultRestartDelay
	}
}

func (c *Config) normalizeScan() {
	if c.Scan.PollInterval <= 0 {
		c.Scan.PollInterval = defaultPollInterval
	}
	if c.Scan.MaxPages <= 0 {
		c.Scan.MaxPages = defaultMaxPages
	}
	if c.Scan.MaxDepth <= 0 {
		c.Scan.MaxDepth = defaultMaxDepth
	}
	if len(c.Scan.Scanners) == 0 {
		c.Scan.Scanners = []string{"axe"}
	}
}

func (c *Config) normalizeDashboard() {
	if c.Dashboard.RefreshInterval <= 0 {
		c.Dashboard.RefreshInterval = defaultRefreshInterval
	}
	if c.Dashboard.ScanLimit <= 0 {
		c.Dashboard.ScanLimit = defaultScanLimit
	}
	if c.Dashboard.ProjectLimit <= 0 {
		c.Dashboard.ProjectLimit = defaultProjectLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
