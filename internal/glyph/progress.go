package glyph

import "math"

// ProgressState is the animator's position in its reveal cycle.
type ProgressState int

const (
	// Idle: no target has been set.
	Idle ProgressState = iota
	// Animating: the revealed fraction is still behind the target.
	Animating
	// Settled: the next step would reach or pass the target.
	Settled
)

func (s ProgressState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// Progress reveals the ring path one step per Advance until it catches up
// with the target fraction. It is not safe for concurrent use; the render
// loop owns it.
type Progress struct {
	path      []Point
	size      int
	step      float64
	intensity int

	revealed  float64
	target    float64
	hasTarget bool
	layer     *Frame
}

// NewProgress builds an animator for the matrix described by cfg.
func NewProgress(cfg Config) *Progress {
	return &Progress{
		path:      PathFor(cfg.ScreenSize),
		size:      cfg.ScreenSize,
		step:      cfg.StepSize,
		intensity: cfg.Intensity,
		layer:     NewFrame(cfg.ScreenSize),
	}
}

// SetTarget points the animator at a new fraction. The revealed fraction is
// kept, so the ring moves on from wherever it was. Negative or NaN targets
// count as zero.
func (p *Progress) SetTarget(fraction float64) {
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}
	p.target = fraction
	p.hasTarget = true
}

// Reset clears the target, the revealed fraction and the ring layer.
func (p *Progress) Reset() {
	p.revealed = 0
	p.target = 0
	p.hasTarget = false
	p.layer.Clear()
}

// Advance moves the revealed fraction one step toward the target and
// repaints the ring. It reports whether anything changed; once settled it
// is a no-op.
func (p *Progress) Advance() bool {
	if p.revealed+p.step >= p.target {
		return false
	}
	p.revealed += p.step
	p.paint()
	return true
}

// paint rebuilds the ring layer with the lit prefix of the path.
func (p *Progress) paint() {
	p.layer.Clear()
	count := RingCount(p.revealed, len(p.path))
	for _, pt := range p.path[:count] {
		// Path points are inside the matrix by construction.
		_ = p.layer.Set(pt.Col, pt.Row, p.intensity)
	}
}

// State reports the animator state.
func (p *Progress) State() ProgressState {
	if !p.hasTarget || p.target <= 0 {
		if p.revealed == 0 {
			return Idle
		}
		return Settled
	}
	if p.revealed+p.step >= p.target {
		return Settled
	}
	return Animating
}

// Revealed returns the fraction currently shown.
func (p *Progress) Revealed() float64 { return p.revealed }

// Target returns the fraction being animated toward.
func (p *Progress) Target() float64 { return p.target }

// Layer returns the ring layer. The caller must not modify it.
func (p *Progress) Layer() *Frame { return p.layer }
