// Package matrix holds the frame sinks that put composed glyph frames on a
// display: a serial LED matrix controller, an SSD1306 OLED and a terminal.
package matrix

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/bituwy/wheyout/internal/glyph"
)

// ErrWriteFailed is returned when the port accepts only part of a frame.
var ErrWriteFailed = errors.New("failed to write to serial port")

// Frame packets start with this magic and end with a newline.
var packetMagic = [2]byte{'G', 'M'}

// Port is the minimal serial port the sink needs.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens a serial port. Tests replace it to avoid real hardware.
type Opener func(path string, mode *serial.Mode) (Port, error)

// OpenSerialPort opens a real port with go.bug.st/serial.
func OpenSerialPort(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// EncodeFrame builds the controller packet for f: the magic, the matrix
// edge length, every pixel row-major as a big-endian uint16, then '\n'.
func EncodeFrame(f *glyph.Frame) []byte {
	size := f.Size()
	buf := make([]byte, 0, 3+2*size*size+1)
	buf = append(buf, packetMagic[0], packetMagic[1], byte(size))
	for _, v := range f.Values() {
		buf = binary.BigEndian.AppendUint16(buf, uint16(v))
	}
	return append(buf, '\n')
}

// SerialSink writes frames to a matrix controller over a serial port.
type SerialSink struct {
	mu   sync.Mutex
	port Port
}

// NewSerialSink wraps an open port.
func NewSerialSink(port Port) *SerialSink {
	return &SerialSink{port: port}
}

// OpenSerialSink opens path with opts through open and returns a sink on it.
// A nil open uses OpenSerialPort.
func OpenSerialSink(path string, opts PortOptions, open Opener) (*SerialSink, error) {
	if open == nil {
		open = OpenSerialPort
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialSink(port), nil
}

// Present sends one frame packet.
func (s *SerialSink) Present(f *glyph.Frame) error {
	if f.Size() > 255 {
		return fmt.Errorf("frame size %d does not fit the packet header", f.Size())
	}
	packet := EncodeFrame(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.port.Write(packet)
	if err != nil {
		return err
	}
	if n != len(packet) {
		return ErrWriteFailed
	}
	return nil
}

// Close closes the port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
