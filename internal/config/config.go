package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS               = 20
	DefaultMovieFPS          = 5
	DefaultCaptureIntervalMs = 500
	DefaultStatusIntervalMs  = 500
	DefaultCPUIntervalMs     = 1000
	DefaultExpandIntervalMs  = 300
	DefaultColumns           = 5
	DefaultBoardWidth        = 1920

	MinColumns = 3
	MaxColumns = 5

	MinThumbnailWidth = 180
	MaxThumbnailWidth = 600

	// Horizontal space consumed per card beyond the thumbnail itself.
	thumbnailMargin = 16
)

// Config holds the application configuration.
type Config struct {
	// FPS is the capture rate ceiling in normal mode; MovieFPS applies
	// while movie mode is on.
	FPS      int `yaml:"fps"`
	MovieFPS int `yaml:"movie_fps"`

	// CaptureIntervalMs is the minimum gap between two captures of the
	// same window, independent of FPS.
	CaptureIntervalMs int `yaml:"capture_interval_ms"`
	StatusIntervalMs  int `yaml:"status_interval_ms"`
	CPUIntervalMs     int `yaml:"cpu_interval_ms"`
	ExpandIntervalMs  int `yaml:"expand_interval_ms"`

	Columns    int `yaml:"columns"`
	BoardWidth int `yaml:"board_width"`

	AutoMinimize *bool `yaml:"auto_minimize"`
	MovieMode    bool  `yaml:"movie_mode"`

	// SuspendCaptureTitles lists title substrings whose windows are
	// expanded with capture suspended.
	SuspendCaptureTitles []string `yaml:"suspend_capture_titles,omitempty"`

	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		FPS:               DefaultFPS,
		MovieFPS:          DefaultMovieFPS,
		CaptureIntervalMs: DefaultCaptureIntervalMs,
		StatusIntervalMs:  DefaultStatusIntervalMs,
		CPUIntervalMs:     DefaultCPUIntervalMs,
		ExpandIntervalMs:  DefaultExpandIntervalMs,
		Columns:           DefaultColumns,
		BoardWidth:        DefaultBoardWidth,
		// AutoMinimize defaults to true via GetAutoMinimize.
		LogLevel: "info",
	}
}

// GetAutoMinimize returns the effective value, defaulting to true.
func (c *Config) GetAutoMinimize() bool {
	if c == nil || c.AutoMinimize == nil {
		return true
	}
	return *c.AutoMinimize
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "pipboard", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing
// file yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills zero values with defaults so partial config files
// only override what they mention.
func (c *Config) normalize() {
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.MovieFPS == 0 {
		c.MovieFPS = DefaultMovieFPS
	}
	if c.CaptureIntervalMs == 0 {
		c.CaptureIntervalMs = DefaultCaptureIntervalMs
	}
	if c.StatusIntervalMs == 0 {
		c.StatusIntervalMs = DefaultStatusIntervalMs
	}
	if c.CPUIntervalMs == 0 {
		c.CPUIntervalMs = DefaultCPUIntervalMs
	}
	if c.ExpandIntervalMs == 0 {
		c.ExpandIntervalMs = DefaultExpandIntervalMs
	}
	if c.Columns == 0 {
		c.Columns = DefaultColumns
	}
	if c.BoardWidth == 0 {
		c.BoardWidth = DefaultBoardWidth
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if c.FPS < 1 || c.FPS > 60 {
		return fmt.Errorf("fps must be between 1 and 60, got %d", c.FPS)
	}
	if c.MovieFPS < 1 || c.MovieFPS > 60 {
		return fmt.Errorf("movie_fps must be between 1 and 60, got %d", c.MovieFPS)
	}
	if c.Columns < MinColumns || c.Columns > MaxColumns {
		return fmt.Errorf("columns must be between %d and %d, got %d", MinColumns, MaxColumns, c.Columns)
	}
	if c.BoardWidth < MinThumbnailWidth {
		return fmt.Errorf("board_width must be >= %d, got %d", MinThumbnailWidth, c.BoardWidth)
	}
	if c.CaptureIntervalMs < 0 || c.StatusIntervalMs < 0 || c.CPUIntervalMs < 0 || c.ExpandIntervalMs < 0 {
		return fmt.Errorf("interval values must be >= 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of: debug, info, warning, error")
	}
	return nil
}
