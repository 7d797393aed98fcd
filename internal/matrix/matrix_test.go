package matrix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/bituwy/wheyout/internal/glyph"
)

func testFrame(t *testing.T, size int, lit map[[2]int]int) *glyph.Frame {
	t.Helper()
	f := glyph.NewFrame(size)
	for pt, v := range lit {
		require.NoError(t, f.Set(pt[0], pt[1], v))
	}
	return f
}

func TestPortOptions_Normalise(t *testing.T) {
	got, err := PortOptions{}.Normalise()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}, got)

	got, err = PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: " even "}.Normalise()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}, got)

	for _, bad := range []PortOptions{
		{DataBits: 9},
		{DataBits: 4},
		{StopBits: 3},
		{Parity: "mark"},
	} {
		_, err := bad.Normalise()
		assert.Error(t, err, "%+v", bad)
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "O"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		StopBits: serial.TwoStopBits,
		Parity:   serial.OddParity,
	}, mode)

	mode, err = PortOptions{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
	assert.Equal(t, serial.NoParity, mode.Parity)

	_, err = PortOptions{Parity: "x"}.SerialMode()
	assert.Error(t, err)
}

func TestEncodeFrame(t *testing.T) {
	f := testFrame(t, glyph.DefaultScreenSize, map[[2]int]int{
		{0, 0}:  glyph.MaxIntensity,
		{24, 0}: 0x0102,
		{3, 2}:  7,
	})
	packet := EncodeFrame(f)

	require.Len(t, packet, 3+2*25*25+1)
	assert.Equal(t, []byte{'G', 'M', 25}, packet[:3])
	assert.Equal(t, byte('\n'), packet[len(packet)-1])

	body := packet[3 : len(packet)-1]
	at := func(col, row int) uint16 {
		i := 2 * (row*25 + col)
		return binary.BigEndian.Uint16(body[i:])
	}
	assert.Equal(t, uint16(glyph.MaxIntensity), at(0, 0))
	assert.Equal(t, []byte{0x01, 0x02}, body[2*24:2*24+2], "big-endian")
	assert.Equal(t, uint16(7), at(3, 2))
	assert.Zero(t, at(1, 1))
}

func TestSerialSink_Present(t *testing.T) {
	port := NewTestablePort()
	sink := NewSerialSink(port)
	f := testFrame(t, 25, map[[2]int]int{{5, 5}: 100})

	require.NoError(t, sink.Present(f))
	require.NoError(t, sink.Present(f))
	written := port.GetWrittenData()
	assert.Len(t, written, 2*len(EncodeFrame(f)))
	assert.True(t, bytes.HasPrefix(written, EncodeFrame(f)))

	port.ShortWrite = true
	assert.ErrorIs(t, sink.Present(f), ErrWriteFailed)

	port.WriteError = errors.New("unplugged")
	assert.EqualError(t, sink.Present(f), "unplugged")

	require.NoError(t, sink.Close())
	assert.True(t, port.Closed)
	assert.Error(t, sink.Present(f), "closed port")
}

func TestOpenSerialSink(t *testing.T) {
	opener := &MockOpener{Port: NewTestablePort()}
	sink, err := OpenSerialSink("/dev/ttyACM0", PortOptions{BaudRate: 57600}, opener.Open)
	require.NoError(t, err)
	require.NotNil(t, sink)
	require.Len(t, opener.OpenCalls, 1)
	assert.Equal(t, "/dev/ttyACM0", opener.OpenCalls[0].Path)
	assert.Equal(t, 57600, opener.OpenCalls[0].Mode.BaudRate)

	opener.Error = errors.New("no such device")
	_, err = OpenSerialSink("/dev/ttyACM1", PortOptions{}, opener.Open)
	assert.ErrorContains(t, err, "no such device")

	_, err = OpenSerialSink("/dev/ttyACM0", PortOptions{DataBits: 12}, opener.Open)
	assert.Error(t, err)
	assert.Len(t, opener.OpenCalls, 2, "invalid options never reach the opener")
}

type fakeDisplay struct {
	bounds image.Rectangle
	drawn  *image1bit.VerticalLSB
	draws  int
	halted bool
}

func (d *fakeDisplay) Bounds() image.Rectangle { return d.bounds }

func (d *fakeDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.draws++
	d.drawn = src.(*image1bit.VerticalLSB)
	return nil
}

func (d *fakeDisplay) Halt() error {
	d.halted = true
	return nil
}

func TestOLEDSink(t *testing.T) {
	dev := &fakeDisplay{bounds: image.Rect(0, 0, 128, 64)}
	sink, err := NewOLEDSink(dev, 25)
	require.NoError(t, err)

	f := testFrame(t, 25, map[[2]int]int{
		{0, 0}:   glyph.MaxIntensity,
		{1, 0}:   1000, // below half brightness
		{24, 24}: 1024,
	})
	require.NoError(t, sink.Present(f))
	require.Equal(t, 1, dev.draws)

	// 64/25 gives 2x2 blocks, centred at (39, 7).
	img := dev.drawn
	for _, p := range []image.Point{{39, 7}, {40, 7}, {39, 8}, {40, 8}, {87, 55}, {88, 56}} {
		assert.Equal(t, image1bit.On, img.BitAt(p.X, p.Y), "%v", p)
	}
	for _, p := range []image.Point{{41, 7}, {38, 7}, {39, 6}, {89, 56}, {0, 0}} {
		assert.Equal(t, image1bit.Off, img.BitAt(p.X, p.Y), "%v", p)
	}

	// The panel is cleared between frames.
	require.NoError(t, sink.Present(glyph.NewFrame(25)))
	assert.Equal(t, image1bit.Off, dev.drawn.BitAt(39, 7))

	require.NoError(t, sink.Close())
	assert.True(t, dev.halted)
}

func TestNewOLEDSink_TooSmall(t *testing.T) {
	_, err := NewOLEDSink(&fakeDisplay{bounds: image.Rect(0, 0, 20, 20)}, 25)
	assert.Error(t, err)
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf, false)
	f := testFrame(t, 8, map[[2]int]int{{0, 0}: glyph.MaxIntensity, {7, 1}: 3})

	require.NoError(t, sink.Present(f))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "#.......", lines[0])
	assert.Equal(t, ".......+", lines[1])
	assert.Equal(t, "........", lines[7])

	buf.Reset()
	require.NoError(t, NewTerminalSink(&buf, true).Present(f))
	assert.True(t, strings.HasPrefix(buf.String(), cursorHome+"#"))
}
