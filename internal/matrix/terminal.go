package matrix

import (
	"bufio"
	"io"
	"sync"

	"github.com/bituwy/wheyout/internal/glyph"
)

// cursorHome moves the cursor to the top-left corner so each frame
// overwrites the previous one.
const cursorHome = "\x1b[H"

// TerminalSink draws frames as text: '#' for bright pixels, '+' for dim
// ones and '.' for dark ones. Dev mode uses it in place of hardware.
type TerminalSink struct {
	mu     sync.Mutex
	w      io.Writer
	redraw bool
}

// NewTerminalSink writes frames to w. With redraw set every frame starts
// with a cursor-home escape.
func NewTerminalSink(w io.Writer, redraw bool) *TerminalSink {
	return &TerminalSink{w: w, redraw: redraw}
}

// Present writes one frame.
func (t *TerminalSink) Present(f *glyph.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bw := bufio.NewWriter(t.w)
	if t.redraw {
		bw.WriteString(cursorHome)
	}
	size := f.Size()
	values := f.Values()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			bw.WriteByte(pixelRune(values[row*size+col]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func pixelRune(v int) byte {
	switch {
	case v == 0:
		return '.'
	case v < (glyph.MaxIntensity+1)/2:
		return '+'
	default:
		return '#'
	}
}
