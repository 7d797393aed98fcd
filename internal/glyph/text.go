package glyph

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// inkThreshold is the grey level at which a rendered text pixel lights up.
const inkThreshold = 128

// RenderText draws s with the 7x13 bitmap face onto a grey strip exactly as
// wide as the text. An empty string yields nil.
func RenderText(s string) *image.Gray {
	if s == "" {
		return nil
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	w := font.MeasureString(face, s).Ceil()
	h := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewGray(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}

// Marquee is a text layer, vertically centred and left aligned. Text wider
// than the matrix scrolls left one column per Step once the start delay has
// elapsed, re-entering from the right edge after a full screen of blank
// columns.
type Marquee struct {
	size       int
	intensity  int
	delayTicks int

	text   string
	strip  *image.Gray
	top    int
	offset int
	waited int
	layer  *Frame
}

// NewMarquee returns an empty marquee for the matrix described by cfg.
func NewMarquee(cfg Config) *Marquee {
	return &Marquee{
		size:       cfg.ScreenSize,
		intensity:  cfg.Intensity,
		delayTicks: cfg.MarqueeDelayTicks(),
		layer:      NewFrame(cfg.ScreenSize),
	}
}

// SetText replaces the text and restarts the scroll, including its delay.
func (m *Marquee) SetText(s string) {
	m.text = s
	m.strip = RenderText(s)
	m.offset = 0
	m.waited = 0
	m.top = 0
	if m.strip != nil {
		m.top = (m.size - 1 - m.strip.Bounds().Dy()) / 2
	}
	m.paint()
}

// Text returns the text currently shown.
func (m *Marquee) Text() string { return m.text }

// Offset returns the scroll position in columns.
func (m *Marquee) Offset() int { return m.offset }

// Scrolls reports whether the text is too wide to show at once.
func (m *Marquee) Scrolls() bool {
	return m.strip != nil && m.strip.Bounds().Dx() > m.size
}

// Step advances the scroll by one column. It reports whether the layer
// changed.
func (m *Marquee) Step() bool {
	if !m.Scrolls() {
		return false
	}
	if m.waited < m.delayTicks {
		m.waited++
		return false
	}
	m.offset = (m.offset + 1) % m.period()
	m.paint()
	return true
}

func (m *Marquee) period() int {
	return m.strip.Bounds().Dx() + m.size
}

func (m *Marquee) paint() {
	m.layer.Clear()
	if m.strip == nil {
		return
	}
	width := m.strip.Bounds().Dx()
	height := m.strip.Bounds().Dy()
	for col := 0; col < m.size; col++ {
		sx := m.offset + col
		if m.Scrolls() {
			sx %= m.period()
		}
		if sx >= width {
			continue
		}
		for y := 0; y < height; y++ {
			row := m.top + y
			if row < 0 || row >= m.size {
				continue
			}
			if m.strip.GrayAt(sx, y).Y >= inkThreshold {
				_ = m.layer.Set(col, row, m.intensity)
			}
		}
	}
}

// Layer returns the text layer. The caller must not modify it.
func (m *Marquee) Layer() *Frame { return m.layer }
