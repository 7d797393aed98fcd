// Package render drives a glyph animation at a fixed tick rate and pushes
// each composed frame to a sink.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/bituwy/wheyout/internal/glyph"
	"github.com/bituwy/wheyout/internal/monitoring"
	"github.com/bituwy/wheyout/internal/timeutil"
)

var logf = monitoring.Logger("render")

// Animation is what the driver ticks: anything that can step its state and
// produce a frame.
type Animation interface {
	// Advance moves the animation one tick forward.
	Advance()
	// Compose returns the frame to display for the current state.
	Compose() (*glyph.Frame, error)
}

// Sink accepts composed frames. Present is called once per tick from the
// driver's goroutine and should return quickly.
type Sink interface {
	Present(frame *glyph.Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame *glyph.Frame) error

func (f SinkFunc) Present(frame *glyph.Frame) error { return f(frame) }

// Lifecycle is the two-phase attach/detach contract of a glyph hosted by
// the daemon.
type Lifecycle interface {
	// Attach starts rendering to sink.
	Attach(sink Sink) error
	// Detach stops rendering and releases background work. It is idempotent.
	Detach()
}

// Driver ticks an Animation on its own goroutine. All calls into the
// animation happen on that goroutine, so the animation needs no locking of
// its render state.
type Driver struct {
	anim     Animation
	sink     Sink
	clock    timeutil.Clock
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	ticks   uint64
}

// NewDriver returns a stopped driver.
func NewDriver(anim Animation, sink Sink, clock timeutil.Clock, interval time.Duration) *Driver {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = glyph.DefaultTickInterval
	}
	return &Driver{
		anim:     anim,
		sink:     sink,
		clock:    clock,
		interval: interval,
	}
}

// Start begins ticking. Calling Start on a running driver does nothing.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticker := d.clock.NewTicker(d.interval)
	done := make(chan struct{})
	d.running = true
	d.cancel = cancel
	d.done = done

	go d.loop(ctx, ticker, done)
	logf("started, tick interval %s", d.interval)
}

func (d *Driver) loop(ctx context.Context, ticker timeutil.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			// A stop may race with a pending tick; prefer stopping.
			if ctx.Err() != nil {
				return
			}
			d.Tick()
		}
	}
}

// Tick runs one advance, compose and present cycle. Errors are logged and
// never stop the loop. It is exported so hosts without a ticker can drive
// frames themselves; it must not be called concurrently with a running loop.
func (d *Driver) Tick() {
	d.anim.Advance()

	frame, err := d.anim.Compose()
	if err != nil {
		logf("compose failed: %v", err)
		return
	}
	if err := d.sink.Present(frame); err != nil {
		logf("present failed: %v", err)
	}

	d.mu.Lock()
	d.ticks++
	d.mu.Unlock()
}

// Stop cancels pending ticks and waits for an in-progress tick to finish.
// It is safe to call more than once.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	cancel()
	<-done
	logf("stopped")
}

// Running reports whether the driver is ticking.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Ticks returns the number of completed ticks, including failed ones that
// reached the sink.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}
