package glyph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathPoints_Table(t *testing.T) {
	pts := PathPoints()
	require.Len(t, pts, RingSteps)

	assert.Equal(t, Point{12, 0}, pts[0], "ring starts at 12 o'clock")
	assert.Equal(t, Point{24, 12}, pts[16])
	assert.Equal(t, Point{12, 24}, pts[32])
	assert.Equal(t, Point{0, 12}, pts[48])
	assert.Equal(t, Point{11, 0}, pts[63])

	seen := make(map[Point]bool)
	for i, p := range pts {
		assert.False(t, seen[p], "point %d %v visited twice", i, p)
		seen[p] = true
		assert.True(t, p.Col >= 0 && p.Col < DefaultScreenSize && p.Row >= 0 && p.Row < DefaultScreenSize,
			"point %d %v outside matrix", i, p)
	}
}

func TestPathPoints_QuarterTurnSymmetry(t *testing.T) {
	pts := PathPoints()
	quarter := RingSteps / 4
	centre := DefaultScreenSize / 2
	for i, p := range pts {
		// Rotating a point 90 degrees clockwise about the centre gives the
		// point a quarter of the ring further on.
		rotated := Point{Col: centre - (p.Row - centre), Row: centre + (p.Col - centre)}
		assert.Equal(t, rotated, pts[(i+quarter)%RingSteps], "point %d %v", i, p)

		next := pts[(i+1)%RingSteps]
		step := max(abs(next.Col-p.Col), abs(next.Row-p.Row))
		assert.True(t, step >= 1 && step <= 2, "gap of %d between point %d %v and %v", step, i, p, next)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestPathPoints_ReturnsCopy(t *testing.T) {
	a := PathPoints()
	a[0] = Point{99, 99}
	b := PathPoints()
	assert.Equal(t, Point{12, 0}, b[0])
}

func TestPathFor(t *testing.T) {
	if diff := cmp.Diff(PathPoints(), PathFor(DefaultScreenSize)); diff != "" {
		t.Errorf("PathFor(25) differs from the fixed table (-want +got):\n%s", diff)
	}

	for _, size := range []int{13, 31} {
		pts := PathFor(size)
		require.Len(t, pts, RingSteps)
		assert.Equal(t, (size-1)/2, pts[0].Col, "generated ring starts at the top centre")
		assert.Equal(t, 0, pts[0].Row)
		for _, p := range pts {
			assert.True(t, p.Col >= 0 && p.Col < size && p.Row >= 0 && p.Row < size, "%v outside %dx%d", p, size, size)
		}
		// Quarter turn lands on the right edge.
		assert.Equal(t, size-1, pts[RingSteps/4].Col)
	}
}

func TestRingCount(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int
	}{
		{0, 0},
		{-0.2, 0},
		{0.5, 32},
		{0.25, 16},
		{0.01, 1},
		{0.007, 0},
		{1, 64},
		{1.25, 64},
		{3, 64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RingCount(tt.fraction, RingSteps), "fraction %v", tt.fraction)
	}
}
