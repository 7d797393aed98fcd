// Package config loads the wheyout daemon configuration from JSON or YAML.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bituwy/wheyout/internal/glyph"
	"github.com/bituwy/wheyout/internal/matrix"
	"github.com/bituwy/wheyout/internal/nutrition"
)

// DefaultConfigPath is where the CLI looks for a config file when -config
// is not given. A missing file there is not an error.
const DefaultConfigPath = "config/wheyout.defaults.json"

// Sink types.
const (
	SinkTerminal = "terminal"
	SinkSerial   = "serial"
	SinkOLED     = "oled"
)

// Defaults for settings that are not glyph.Config fields.
const (
	DefaultDBPath          = "wheyout.db"
	DefaultSerialPath      = "/dev/ttyACM0"
	DefaultRefreshInterval = 5 * time.Minute
)

// maxFileSize bounds config files.
const maxFileSize = 1 * 1024 * 1024

// Config is the daemon configuration. Every field is optional; the Get*
// methods supply defaults for unset ones, so partial files are safe.
type Config struct {
	// Display
	ScreenSize   *int     `json:"screen_size,omitempty" yaml:"screen_size,omitempty"`
	TickInterval *string  `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"` // duration string like "30ms"
	StepSize     *float64 `json:"step_size,omitempty" yaml:"step_size,omitempty"`
	Intensity    *int     `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	MarqueeDelay *string  `json:"marquee_delay,omitempty" yaml:"marquee_delay,omitempty"`
	ShowMacros   *bool    `json:"show_macros,omitempty" yaml:"show_macros,omitempty"`

	// Budget
	CalorieTarget     *float64 `json:"calorie_target,omitempty" yaml:"calorie_target,omitempty"`
	DayStartHour      *int     `json:"day_start_hour,omitempty" yaml:"day_start_hour,omitempty"`
	DisplayHourOffset *int     `json:"display_hour_offset,omitempty" yaml:"display_hour_offset,omitempty"`
	// WindowHours switches from the calendar day to a rolling window of
	// that many hours when positive.
	WindowHours     *int    `json:"window_hours,omitempty" yaml:"window_hours,omitempty"`
	RefreshInterval *string `json:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"` // "0" disables

	// Storage
	DBPath *string `json:"db_path,omitempty" yaml:"db_path,omitempty"`

	// Output
	Sink       *string             `json:"sink,omitempty" yaml:"sink,omitempty"`
	SerialPath *string             `json:"serial_path,omitempty" yaml:"serial_path,omitempty"`
	Serial     *matrix.PortOptions `json:"serial,omitempty" yaml:"serial,omitempty"`
	OLEDBus    *string             `json:"oled_bus,omitempty" yaml:"oled_bus,omitempty"`
}

// Load reads a config file. The extension picks the format: .json, .yaml
// or .yml.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns an empty config when path is the
// default location and no file exists there.
func LoadOrDefault(path string) (*Config, error) {
	if path == DefaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return &Config{}, nil
		}
	}
	return Load(path)
}

// Validate checks the set fields for values the daemon cannot use.
func (c *Config) Validate() error {
	for name, d := range map[string]*string{
		"tick_interval":    c.TickInterval,
		"marquee_delay":    c.MarqueeDelay,
		"refresh_interval": c.RefreshInterval,
	} {
		if d != nil && *d != "" {
			if _, err := time.ParseDuration(*d); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *d, err)
			}
		}
	}

	if err := c.GlyphConfig().Validate(); err != nil {
		return err
	}

	if c.CalorieTarget != nil && !(*c.CalorieTarget > 0) {
		return &nutrition.ConfigurationError{
			Field:  "calorie_target",
			Reason: fmt.Sprintf("must be positive, got %v", *c.CalorieTarget),
		}
	}
	if h := c.GetDayStartHour(); h < 0 || h > 23 {
		return fmt.Errorf("day_start_hour must be between 0 and 23, got %d", h)
	}
	if h := c.GetDisplayHourOffset(); h < 0 || h > 23 {
		return fmt.Errorf("display_hour_offset must be between 0 and 23, got %d", h)
	}
	if c.GetWindowHours() < 0 {
		return fmt.Errorf("window_hours must be non-negative, got %d", c.GetWindowHours())
	}
	if c.GetRefreshInterval() < 0 {
		return fmt.Errorf("refresh_interval must not be negative, got %s", c.GetRefreshInterval())
	}

	switch c.GetSink() {
	case SinkTerminal, SinkSerial, SinkOLED:
	default:
		return fmt.Errorf("unknown sink %q: expected %s, %s or %s", c.GetSink(), SinkTerminal, SinkSerial, SinkOLED)
	}
	if _, err := c.GetSerial().Normalise(); err != nil {
		return fmt.Errorf("invalid serial options: %w", err)
	}
	return nil
}

func getDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GlyphConfig assembles the renderer configuration.
func (c *Config) GlyphConfig() glyph.Config {
	cfg := glyph.DefaultConfig()
	if c.ScreenSize != nil {
		cfg.ScreenSize = *c.ScreenSize
	}
	cfg.TickInterval = getDuration(c.TickInterval, cfg.TickInterval)
	if c.StepSize != nil {
		cfg.StepSize = *c.StepSize
	}
	if c.Intensity != nil {
		cfg.Intensity = *c.Intensity
	}
	cfg.MarqueeDelay = getDuration(c.MarqueeDelay, cfg.MarqueeDelay)
	return cfg
}

// GetShowMacros returns the show_macros value or the default.
func (c *Config) GetShowMacros() bool {
	if c.ShowMacros == nil {
		return false
	}
	return *c.ShowMacros
}

// GetCalorieTarget returns the calorie_target value or the default.
func (c *Config) GetCalorieTarget() float64 {
	if c.CalorieTarget == nil {
		return nutrition.DefaultTarget
	}
	return *c.CalorieTarget
}

// GetDayStartHour returns the day_start_hour value or the default.
func (c *Config) GetDayStartHour() int {
	if c.DayStartHour == nil {
		return 0
	}
	return *c.DayStartHour
}

// GetDisplayHourOffset returns the display_hour_offset value or the default.
func (c *Config) GetDisplayHourOffset() int {
	if c.DisplayHourOffset == nil {
		return nutrition.DefaultDisplayHourOffset
	}
	return *c.DisplayHourOffset
}

// GetWindowHours returns the window_hours value or the default.
func (c *Config) GetWindowHours() int {
	if c.WindowHours == nil {
		return 0
	}
	return *c.WindowHours
}

// GetRefreshInterval parses and returns the RefreshInterval.
func (c *Config) GetRefreshInterval() time.Duration {
	return getDuration(c.RefreshInterval, DefaultRefreshInterval)
}

// Window returns the query window the settings describe.
func (c *Config) Window() nutrition.WindowFunc {
	if n := c.GetWindowHours(); n > 0 {
		return nutrition.LastHoursFunc(n)
	}
	return nutrition.DayWindowFunc(c.GetDayStartHour(), c.GetDisplayHourOffset())
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetSink returns the sink value or the default.
func (c *Config) GetSink() string {
	if c.Sink == nil || *c.Sink == "" {
		return SinkTerminal
	}
	return strings.ToLower(*c.Sink)
}

// GetSerialPath returns the serial_path value or the default.
func (c *Config) GetSerialPath() string {
	if c.SerialPath == nil || *c.SerialPath == "" {
		return DefaultSerialPath
	}
	return *c.SerialPath
}

// GetSerial returns the serial options; unset fields are defaulted by
// PortOptions.Normalise.
func (c *Config) GetSerial() matrix.PortOptions {
	if c.Serial == nil {
		return matrix.PortOptions{}
	}
	return *c.Serial
}

// GetOLEDBus returns the oled_bus value or the default, the first bus.
func (c *Config) GetOLEDBus() string {
	if c.OLEDBus == nil {
		return ""
	}
	return *c.OLEDBus
}
