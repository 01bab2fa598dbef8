package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server         string        `toml:"server"`
	SaveDirectory  string        `toml:"save_directory"`
	TimeoutSeconds int           `toml:"timeout_seconds"`
	MaxFontSize    float64       `toml:"max_font_size"`
	ZoomFactor     float64       `toml:"zoom_factor"`
	PanStep        float64       `toml:"pan_step"`
	DebounceMillis int           `toml:"debounce_ms"`
	ExactTextLimit int           `toml:"exact_text_limit"`
	Layouts        []string      `toml:"layouts"`
	Minimap        MinimapConfig `toml:"minimap"`
	Cell           CellConfig    `toml:"cell"`
	Colors         ColorConfig   `toml:"colors"`
}

type MinimapConfig struct {
	Show    bool    `toml:"show"`
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	MinRect float64 `toml:"min_rect"`
}

// CellConfig is the pixel size of one terminal cell.
type CellConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type ColorConfig struct {
	Tag    string `toml:"tag"`
	Select string `toml:"select"`
	Line   string `toml:"line"`
	Text   string `toml:"text"`
}

func defaultConfig() *Config {
	return &Config{
		Server:         "http://localhost:5000",
		TimeoutSeconds: 30,
		MaxFontSize:    25,
		ZoomFactor:     1.25,
		PanStep:        40,
		DebounceMillis: 200,
		ExactTextLimit: 500,
		Minimap: MinimapConfig{
			Show:    true,
			Width:   160,
			Height:  160,
			MinRect: 5,
		},
		Cell: CellConfig{Width: 8, Height: 16},
		Colors: ColorConfig{
			Tag:    "#FF4040",
			Select: "#40A0FF",
			Line:   "#A0A0A0",
			Text:   "#FFFFFF",
		},
	}
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".smartviewrc")
}

// loadConfig reads the TOML file at path over the defaults. A missing file
// is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	if strings.HasPrefix(config.SaveDirectory, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			config.SaveDirectory = filepath.Join(homeDir, strings.TrimPrefix(config.SaveDirectory, "~"))
		}
	}
	return config, config.validate()
}

func (c *Config) validate() error {
	switch {
	case c.ZoomFactor <= 1:
		return fmt.Errorf("zoom_factor must be greater than 1, got %g", c.ZoomFactor)
	case c.Cell.Width <= 0 || c.Cell.Height <= 0:
		return fmt.Errorf("cell size must be positive, got %gx%g", c.Cell.Width, c.Cell.Height)
	case c.TimeoutSeconds <= 0:
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	case c.Minimap.Width <= 0 || c.Minimap.Height <= 0:
		return fmt.Errorf("minimap size must be positive, got %gx%g", c.Minimap.Width, c.Minimap.Height)
	case c.Minimap.MinRect < 0:
		return fmt.Errorf("minimap min_rect must not be negative")
	case c.DebounceMillis < 0:
		return fmt.Errorf("debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) sceneOptions(exact measurer) sceneOptions {
	return sceneOptions{
		MaxFontSize:    c.MaxFontSize,
		ExactTextLimit: c.ExactTextLimit,
		Exact:          exact,
		Colors:         c.Colors,
	}
}

func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
