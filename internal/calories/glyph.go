// Package calories is the glyph that shows the remaining daily calorie
// budget: a progress ring around the matrix edge plus a scrolling text line.
package calories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bituwy/wheyout/internal/glyph"
	"github.com/bituwy/wheyout/internal/monitoring"
	"github.com/bituwy/wheyout/internal/nutrition"
	"github.com/bituwy/wheyout/internal/render"
	"github.com/bituwy/wheyout/internal/timeutil"
)

var logf = monitoring.Logger("calories")

// NoHealthDataText is shown when the health-data provider cannot be reached.
const NoHealthDataText = "No Health Data"

// ErrAttached is returned by Attach when the glyph is already rendering.
var ErrAttached = errors.New("calories glyph already attached")

// Options configure a Glyph. Zero values fall back to defaults.
type Options struct {
	Glyph glyph.Config
	// Window picks the time window summarized on each fetch.
	Window nutrition.WindowFunc
	// ShowMacros appends protein, carbs and fat to the text line.
	ShowMacros bool
	Clock      timeutil.Clock
}

// result is a finished fetch on its way to the tick goroutine.
type result struct {
	seq     uint64
	summary nutrition.Summary
	err     error
}

// Glyph fetches nutrition summaries in the background and renders them on
// the tick goroutine. Advance and Compose must only be called from one
// goroutine at a time; when attached that is the driver's.
type Glyph struct {
	tracker    *nutrition.Tracker
	cfg        glyph.Config
	window     nutrition.WindowFunc
	showMacros bool
	clock      timeutil.Clock

	// Render state, owned by the ticking goroutine.
	progress   *glyph.Progress
	marquee    *glyph.Marquee
	applied    uint64
	summary    nutrition.Summary
	hasSummary bool

	// Holds at most the newest undelivered result.
	updates chan result

	mu     sync.Mutex
	seq    uint64
	driver *render.Driver
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var (
	_ render.Animation = (*Glyph)(nil)
	_ render.Lifecycle = (*Glyph)(nil)
)

// New returns a detached glyph reading through tracker.
func New(tracker *nutrition.Tracker, opts Options) (*Glyph, error) {
	if tracker == nil {
		return nil, errors.New("calories glyph needs a tracker")
	}
	cfg := opts.Glyph
	if cfg == (glyph.Config{}) {
		cfg = glyph.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid glyph config: %w", err)
	}
	window := opts.Window
	if window == nil {
		window = nutrition.DayWindowFunc(0, nutrition.DefaultDisplayHourOffset)
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Glyph{
		tracker:    tracker,
		cfg:        cfg,
		window:     window,
		showMacros: opts.ShowMacros,
		clock:      clock,
		progress:   glyph.NewProgress(cfg),
		marquee:    glyph.NewMarquee(cfg),
		updates:    make(chan result, 1),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Attach starts the render loop on sink and launches the first fetch.
func (g *Glyph) Attach(sink render.Sink) error {
	if sink == nil {
		return errors.New("calories glyph needs a sink")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.driver != nil {
		return ErrAttached
	}
	if g.ctx.Err() != nil {
		g.ctx, g.cancel = context.WithCancel(context.Background())
	}

	g.driver = render.NewDriver(g, sink, g.clock, g.cfg.TickInterval)
	g.driver.Start()
	g.refreshLocked()
	logf("attached")
	return nil
}

// Refresh launches a background fetch. The result is picked up on a later
// tick. After Detach it does nothing.
func (g *Glyph) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctx.Err() != nil {
		logf("refresh ignored, glyph detached")
		return
	}
	g.refreshLocked()
}

func (g *Glyph) refreshLocked() {
	g.seq++
	g.wg.Add(1)
	go g.fetch(g.ctx, g.seq)
}

func (g *Glyph) fetch(ctx context.Context, seq uint64) {
	defer g.wg.Done()
	s, err := g.tracker.Fetch(ctx, g.window(g.clock.Now()))
	if ctx.Err() != nil {
		return
	}
	g.deliver(result{seq: seq, summary: s, err: err})
}

// deliver puts r in the single-slot channel, replacing an unconsumed result
// unless that one is newer.
func (g *Glyph) deliver(r result) {
	for {
		select {
		case g.updates <- r:
			return
		default:
		}
		select {
		case old := <-g.updates:
			if old.seq > r.seq {
				r = old
			}
		default:
		}
	}
}

// Detach cancels in-flight fetches, stops the render loop and waits for
// both. It is safe to call repeatedly.
func (g *Glyph) Detach() {
	g.mu.Lock()
	g.cancel()
	d := g.driver
	g.driver = nil
	g.mu.Unlock()

	if d != nil {
		d.Stop()
		logf("detached")
	}
	g.wg.Wait()
}

// Attached reports whether the render loop is running.
func (g *Glyph) Attached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.driver != nil
}

// Advance applies any pending fetch result, then steps the ring and the
// marquee.
func (g *Glyph) Advance() {
	select {
	case r := <-g.updates:
		g.apply(r)
	default:
	}
	g.progress.Advance()
	g.marquee.Step()
}

func (g *Glyph) apply(r result) {
	if r.seq <= g.applied {
		logf("dropping stale fetch result %d, already showing %d", r.seq, g.applied)
		return
	}
	g.applied = r.seq

	var permErr *nutrition.PermissionError
	var unavailable *nutrition.ProviderUnavailableError
	switch {
	case r.err == nil:
		g.summary = r.summary
		g.hasSummary = true
		g.progress.SetTarget(r.summary.Percent)
		g.setText(g.format(r.summary))
	case errors.As(r.err, &permErr):
		g.fallback(permErr.Error())
	case errors.As(r.err, &unavailable):
		logf("health data unavailable: %v", r.err)
		g.fallback(NoHealthDataText)
	default:
		logf("fetch failed, keeping previous summary: %v", r.err)
	}
}

// fallback replaces the text and empties the ring. A later successful
// fetch animates the ring from zero.
func (g *Glyph) fallback(text string) {
	g.hasSummary = false
	g.progress.Reset()
	g.progress.SetTarget(0)
	g.setText(text)
}

func (g *Glyph) setText(s string) {
	if s == g.marquee.Text() {
		return
	}
	g.marquee.SetText(s)
}

func (g *Glyph) format(s nutrition.Summary) string {
	if g.showMacros {
		return nutrition.FormatSummary(s)
	}
	return nutrition.FormatRemaining(s)
}

// Compose layers the ring over the text.
func (g *Glyph) Compose() (*glyph.Frame, error) {
	return glyph.Composite(g.marquee.Layer(), g.progress.Layer())
}

// Text returns the line currently shown. Like Compose it belongs to the
// ticking goroutine.
func (g *Glyph) Text() string { return g.marquee.Text() }

// Summary returns the last applied summary, if any.
func (g *Glyph) Summary() (nutrition.Summary, bool) { return g.summary, g.hasSummary }
