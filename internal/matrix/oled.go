package matrix

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/bituwy/wheyout/internal/glyph"
)

// Display is the part of an SSD1306 the OLED sink draws on.
type Display interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// OLEDSink mirrors the LED matrix on a monochrome OLED. Each matrix pixel
// becomes a square block, centred on the panel, lit when its intensity is
// at least half of full brightness.
type OLEDSink struct {
	dev   Display
	bus   i2c.BusCloser
	img   *image1bit.VerticalLSB
	scale int
}

// NewOLEDSink draws frames of the given matrix size on dev.
func NewOLEDSink(dev Display, size int) (*OLEDSink, error) {
	b := dev.Bounds()
	scale := min(b.Dx(), b.Dy()) / size
	if scale < 1 {
		return nil, fmt.Errorf("display %dx%d too small for a %dx%d matrix", b.Dx(), b.Dy(), size, size)
	}
	return &OLEDSink{
		dev:   dev,
		img:   image1bit.NewVerticalLSB(b),
		scale: scale,
	}, nil
}

// OpenOLED initialises the host drivers, opens the named I2C bus ("" picks
// the first one) and returns a sink on the SSD1306 attached to it.
func OpenOLED(busName string, size int) (*OLEDSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open ssd1306: %w", err)
	}
	s, err := NewOLEDSink(dev, size)
	if err != nil {
		bus.Close()
		return nil, err
	}
	s.bus = bus
	return s, nil
}

// Present renders f and pushes the whole panel.
func (s *OLEDSink) Present(f *glyph.Frame) error {
	s.render(f)
	return s.dev.Draw(s.dev.Bounds(), s.img, image.Point{})
}

func (s *OLEDSink) render(f *glyph.Frame) {
	clear(s.img.Pix)
	b := s.img.Bounds()
	size := f.Size()
	x0 := b.Min.X + (b.Dx()-size*s.scale)/2
	y0 := b.Min.Y + (b.Dy()-size*s.scale)/2
	values := f.Values()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if values[row*size+col] < (glyph.MaxIntensity+1)/2 {
				continue
			}
			for dy := 0; dy < s.scale; dy++ {
				for dx := 0; dx < s.scale; dx++ {
					s.img.SetBit(x0+col*s.scale+dx, y0+row*s.scale+dy, image1bit.On)
				}
			}
		}
	}
}

// Close blanks the panel and releases the bus.
func (s *OLEDSink) Close() error {
	err := s.dev.Halt()
	if s.bus != nil {
		if cerr := s.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
