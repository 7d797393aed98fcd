// Package glyph renders calorie progress onto a square LED matrix: the ring
// path table, intensity frames and their compositing, the progress animator
// and the scrolling text layer.
package glyph

import (
	"fmt"
	"time"
)

const (
	// DefaultScreenSize is the edge length of the glyph matrix.
	DefaultScreenSize = 25
	// DefaultTickInterval matches the 30ms tick of the calories glyph.
	DefaultTickInterval = 30 * time.Millisecond
	// DefaultStepSize is the fraction revealed per tick.
	DefaultStepSize = 0.01
	// DefaultMarqueeDelay holds the text still so it is readable before scrolling.
	DefaultMarqueeDelay = 700 * time.Millisecond
	// MaxIntensity is the brightest value a matrix pixel accepts.
	MaxIntensity = 2047
)

// Config describes the matrix and animation timing. It is passed to every
// component constructor instead of living in package globals.
type Config struct {
	ScreenSize   int
	TickInterval time.Duration
	StepSize     float64
	Intensity    int
	MarqueeDelay time.Duration
}

// DefaultConfig returns the configuration of the 25x25 matrix.
func DefaultConfig() Config {
	return Config{
		ScreenSize:   DefaultScreenSize,
		TickInterval: DefaultTickInterval,
		StepSize:     DefaultStepSize,
		Intensity:    MaxIntensity,
		MarqueeDelay: DefaultMarqueeDelay,
	}
}

// Validate checks the configuration for values the renderer cannot use.
func (c Config) Validate() error {
	if c.ScreenSize < 8 {
		return fmt.Errorf("screen size must be at least 8, got %d", c.ScreenSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.StepSize <= 0 || c.StepSize > 1 {
		return fmt.Errorf("step size must be in (0, 1], got %v", c.StepSize)
	}
	if c.Intensity <= 0 || c.Intensity > MaxIntensity {
		return fmt.Errorf("intensity must be in [1, %d], got %d", MaxIntensity, c.Intensity)
	}
	if c.MarqueeDelay < 0 {
		return fmt.Errorf("marquee delay must not be negative, got %s", c.MarqueeDelay)
	}
	return nil
}

// MarqueeDelayTicks converts the marquee delay into a whole number of ticks.
func (c Config) MarqueeDelayTicks() int {
	if c.TickInterval <= 0 {
		return 0
	}
	return int(c.MarqueeDelay / c.TickInterval)
}
