package render

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bituwy/wheyout/internal/glyph"
	"github.com/bituwy/wheyout/internal/timeutil"
)

type fakeAnimation struct {
	mu          sync.Mutex
	advances    int
	composeErrs int // number of upcoming Compose calls that fail
}

func (a *fakeAnimation) Advance() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advances++
}

func (a *fakeAnimation) Compose() (*glyph.Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.composeErrs > 0 {
		a.composeErrs--
		return nil, errors.New("compose exploded")
	}
	f := glyph.NewFrame(glyph.DefaultScreenSize)
	_ = f.Set(0, 0, a.advances)
	return f, nil
}

func (a *fakeAnimation) Advances() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.advances
}

func chanSink(ch chan *glyph.Frame) Sink {
	return SinkFunc(func(f *glyph.Frame) error {
		ch <- f
		return nil
	})
}

func waitFrame(t *testing.T, ch <-chan *glyph.Frame) *glyph.Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

func pixel(t *testing.T, f *glyph.Frame) int {
	t.Helper()
	v, err := f.At(0, 0)
	require.NoError(t, err)
	return v
}

func TestDriver_TicksOnClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	anim := &fakeAnimation{}
	frames := make(chan *glyph.Frame, 1)

	d := NewDriver(anim, chanSink(frames), clock, 30*time.Millisecond)
	d.Start()
	defer d.Stop()
	require.True(t, d.Running())
	require.Equal(t, 1, clock.Tickers())

	for i := 1; i <= 3; i++ {
		clock.Advance(30 * time.Millisecond)
		f := waitFrame(t, frames)
		assert.Equal(t, i, pixel(t, f), "frame %d carries the advance count", i)
	}
	assert.Equal(t, 3, anim.Advances())
}

func TestDriver_NoTickBeforeInterval(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	frames := make(chan *glyph.Frame, 1)
	d := NewDriver(&fakeAnimation{}, chanSink(frames), clock, 30*time.Millisecond)
	d.Start()
	defer d.Stop()

	clock.Advance(10 * time.Millisecond)
	select {
	case <-frames:
		t.Fatal("unexpected frame before the first interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDriver_ErrorsDoNotStopLoop(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	anim := &fakeAnimation{composeErrs: 1}
	frames := make(chan *glyph.Frame, 1)
	var presents atomic.Int32
	sink := SinkFunc(func(f *glyph.Frame) error {
		n := presents.Add(1)
		select {
		case frames <- f:
		default:
		}
		if n == 1 {
			return errors.New("sink offline")
		}
		return nil
	})

	d := NewDriver(anim, sink, clock, time.Millisecond)
	d.Start()
	defer d.Stop()

	// First tick fails in Compose and presents nothing; keep ticking until a
	// frame arrives.
	deadline := time.After(2 * time.Second)
	var got *glyph.Frame
	for got == nil {
		clock.Advance(time.Millisecond)
		select {
		case got = <-frames:
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatal("no frame after compose error")
		}
	}
	// The failing present is logged and the next tick still arrives.
	for got = nil; got == nil; {
		clock.Advance(time.Millisecond)
		select {
		case got = <-frames:
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatal("no frame after present error")
		}
	}
	assert.True(t, d.Running())
	assert.GreaterOrEqual(t, int(presents.Load()), 2)
}

func TestDriver_StopIsIdempotent(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	frames := make(chan *glyph.Frame, 1)
	anim := &fakeAnimation{}
	d := NewDriver(anim, chanSink(frames), clock, 30*time.Millisecond)

	d.Stop() // never started
	d.Start()
	d.Start()
	assert.Equal(t, 1, clock.Tickers(), "second Start is a no-op")

	d.Stop()
	d.Stop()
	assert.False(t, d.Running())

	clock.Advance(time.Second)
	select {
	case <-frames:
		t.Fatal("frame delivered after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, anim.Advances())
}

func TestDriver_RestartAfterStop(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	frames := make(chan *glyph.Frame, 1)
	d := NewDriver(&fakeAnimation{}, chanSink(frames), clock, 30*time.Millisecond)

	d.Start()
	d.Stop()
	d.Start()
	defer d.Stop()
	require.Equal(t, 2, clock.Tickers())

	clock.Advance(30 * time.Millisecond)
	waitFrame(t, frames)
}

func TestDriver_ManualTick(t *testing.T) {
	anim := &fakeAnimation{}
	var got *glyph.Frame
	d := NewDriver(anim, SinkFunc(func(f *glyph.Frame) error {
		got = f
		return nil
	}), nil, 0)

	d.Tick()
	require.NotNil(t, got)
	assert.Equal(t, 1, pixel(t, got))
	assert.Equal(t, uint64(1), d.Ticks())
}
