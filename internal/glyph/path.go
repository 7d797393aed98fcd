package glyph

import "math"

// RingSteps is the number of positions on the progress ring.
const RingSteps = 64

// Point is a matrix coordinate.
type Point struct {
	Col int
	Row int
}

// ringPath25 traces the ring inscribed in the 25x25 matrix, clockwise from
// 12 o'clock, sixteen points per quadrant. The traced circle has 68 pixels;
// the one at the middle of each quadrant's diagonal run is skipped so the
// ring keeps RingSteps points and its quarter-turn symmetry.
var ringPath25 = [RingSteps]Point{
	{12, 0}, {13, 0}, {14, 0}, {15, 0},
	{16, 1}, {17, 1}, {18, 2}, {19, 2},
	{20, 3}, {22, 5}, {22, 6}, {23, 7},
	{23, 8}, {24, 9}, {24, 10}, {24, 11},
	{24, 12}, {24, 13}, {24, 14}, {24, 15},
	{23, 16}, {23, 17}, {22, 18}, {22, 19},
	{21, 20}, {19, 22}, {18, 22}, {17, 23},
	{16, 23}, {15, 24}, {14, 24}, {13, 24},
	{12, 24}, {11, 24}, {10, 24}, {9, 24},
	{8, 23}, {7, 23}, {6, 22}, {5, 22},
	{4, 21}, {2, 19}, {2, 18}, {1, 17},
	{1, 16}, {0, 15}, {0, 14}, {0, 13},
	{0, 12}, {0, 11}, {0, 10}, {0, 9},
	{1, 8}, {1, 7}, {2, 6}, {2, 5},
	{3, 4}, {5, 2}, {6, 2}, {7, 1},
	{8, 1}, {9, 0}, {10, 0}, {11, 0},
}

// PathPoints returns a copy of the 64-point ring for the 25x25 matrix.
func PathPoints() []Point {
	out := make([]Point, RingSteps)
	copy(out, ringPath25[:])
	return out
}

// PathFor returns the ring path for a matrix of the given size. The 25x25
// matrix uses the exact table; any other size gets a generated ring of the
// same length, so the reveal arithmetic is unchanged.
func PathFor(size int) []Point {
	if size == DefaultScreenSize {
		return PathPoints()
	}
	return generateRing(size, RingSteps)
}

// generateRing samples n points clockwise from 12 o'clock on the largest
// circle that fits the matrix. Neighbouring samples may round to the same
// pixel on small matrices.
func generateRing(size, n int) []Point {
	r := float64(size-1) / 2
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		col := int(math.Round(r + r*math.Sin(theta)))
		row := int(math.Round(r - r*math.Cos(theta)))
		out[i] = Point{Col: clampInt(col, 0, size-1), Row: clampInt(row, 0, size-1)}
	}
	return out
}

// RingCount is the number of path points lit for a revealed fraction:
// round(n * min(fraction, 1)), never negative.
func RingCount(fraction float64, n int) int {
	if fraction <= 0 || math.IsNaN(fraction) {
		return 0
	}
	count := int(math.Round(math.Min(float64(n)*fraction, float64(n))))
	return clampInt(count, 0, n)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
