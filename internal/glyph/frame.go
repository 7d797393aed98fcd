package glyph

import (
	"errors"
	"fmt"
)

// ErrSizeMismatch is returned when compositing frames of different sizes.
var ErrSizeMismatch = errors.New("frame sizes differ")

// OutOfRangeError reports a pixel write outside the matrix or with an
// intensity outside [0, MaxIntensity].
type OutOfRangeError struct {
	Col, Row  int
	Size      int
	Intensity int
}

func (e *OutOfRangeError) Error() string {
	if e.Col < 0 || e.Row < 0 || e.Col >= e.Size || e.Row >= e.Size {
		return fmt.Sprintf("pixel (%d,%d) outside %dx%d matrix", e.Col, e.Row, e.Size, e.Size)
	}
	return fmt.Sprintf("intensity %d at (%d,%d) outside [0,%d]", e.Intensity, e.Col, e.Row, MaxIntensity)
}

// Frame is one square intensity plane, stored row-major so that pixel
// (col, row) lives at col + row*size.
type Frame struct {
	size int
	pix  []int
}

// NewFrame returns a zero-filled size x size frame.
func NewFrame(size int) *Frame {
	if size < 0 {
		size = 0
	}
	return &Frame{size: size, pix: make([]int, size*size)}
}

// Size returns the edge length of the frame.
func (f *Frame) Size() int { return f.size }

// Index returns the flat index of (col, row).
func (f *Frame) Index(col, row int) (int, error) {
	if col < 0 || row < 0 || col >= f.size || row >= f.size {
		return 0, &OutOfRangeError{Col: col, Row: row, Size: f.size}
	}
	return col + row*f.size, nil
}

// Set writes one pixel.
func (f *Frame) Set(col, row, intensity int) error {
	i, err := f.Index(col, row)
	if err != nil {
		return err
	}
	if intensity < 0 || intensity > MaxIntensity {
		return &OutOfRangeError{Col: col, Row: row, Size: f.size, Intensity: intensity}
	}
	f.pix[i] = intensity
	return nil
}

// At reads one pixel.
func (f *Frame) At(col, row int) (int, error) {
	i, err := f.Index(col, row)
	if err != nil {
		return 0, err
	}
	return f.pix[i], nil
}

// Lit counts the non-zero pixels.
func (f *Frame) Lit() int {
	n := 0
	for _, v := range f.pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Values returns a copy of the pixels in index order, the layout the
// hardware expects.
func (f *Frame) Values() []int {
	out := make([]int, len(f.pix))
	copy(out, f.pix)
	return out
}

// Clear zeroes every pixel.
func (f *Frame) Clear() {
	for i := range f.pix {
		f.pix[i] = 0
	}
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	return &Frame{size: f.size, pix: f.Values()}
}

// Composite overlays layers in order into a new frame. A non-zero pixel in a
// later layer replaces whatever earlier layers put at the same index; zero
// pixels are transparent. Nil layers are skipped.
func Composite(layers ...*Frame) (*Frame, error) {
	size := -1
	for _, l := range layers {
		if l == nil {
			continue
		}
		if size == -1 {
			size = l.size
			continue
		}
		if l.size != size {
			return nil, fmt.Errorf("%w: %d and %d", ErrSizeMismatch, size, l.size)
		}
	}
	if size == -1 {
		return nil, errors.New("composite needs at least one layer")
	}

	out := NewFrame(size)
	for _, l := range layers {
		if l == nil {
			continue
		}
		for i, v := range l.pix {
			if v != 0 {
				out.pix[i] = v
			}
		}
	}
	return out, nil
}
