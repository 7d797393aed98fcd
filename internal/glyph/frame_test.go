package glyph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f := NewFrame(DefaultScreenSize)
	assert.Equal(t, DefaultScreenSize, f.Size())
	assert.Len(t, f.Values(), 625)
	assert.Zero(t, f.Lit())
}

func TestFrame_SetAt(t *testing.T) {
	f := NewFrame(DefaultScreenSize)
	require.NoError(t, f.Set(3, 2, 900))

	v, err := f.At(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 900, v)
	assert.Equal(t, 900, f.Values()[3+2*25], "pixels are stored at col + row*size")
	assert.Equal(t, 1, f.Lit())
}

func TestFrame_OutOfRange(t *testing.T) {
	f := NewFrame(DefaultScreenSize)
	cases := []struct {
		name      string
		col, row  int
		intensity int
	}{
		{"negative column", -1, 0, 1},
		{"column past edge", 25, 0, 1},
		{"row past edge", 0, 25, 1},
		{"negative row", 4, -3, 1},
		{"intensity too high", 1, 1, MaxIntensity + 1},
		{"negative intensity", 1, 1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.Set(tc.col, tc.row, tc.intensity)
			var rangeErr *OutOfRangeError
			require.True(t, errors.As(err, &rangeErr), "expected OutOfRangeError, got %v", err)
			assert.NotEmpty(t, rangeErr.Error())
		})
	}
	assert.Zero(t, f.Lit(), "failed writes must not change the frame")

	_, err := f.At(25, 25)
	var rangeErr *OutOfRangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestFrame_ValuesAndCloneAreCopies(t *testing.T) {
	f := NewFrame(5)
	require.NoError(t, f.Set(0, 0, 10))

	vals := f.Values()
	vals[0] = 0
	clone := f.Clone()
	f.Clear()

	v, _ := clone.At(0, 0)
	assert.Equal(t, 10, v)
	assert.Zero(t, f.Lit())
}

func TestComposite_LastWriterWins(t *testing.T) {
	a := NewFrame(DefaultScreenSize)
	b := NewFrame(DefaultScreenSize)
	require.NoError(t, a.Set(0, 0, 100))
	require.NoError(t, a.Set(1, 0, 200))
	require.NoError(t, b.Set(1, 0, 300))
	require.NoError(t, b.Set(2, 0, 400))

	ab, err := Composite(a, b)
	require.NoError(t, err)
	ba, err := Composite(b, a)
	require.NoError(t, err)

	at := func(f *Frame, col int) int {
		v, err := f.At(col, 0)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, 100, at(ab, 0), "zero pixels in b are transparent")
	assert.Equal(t, 300, at(ab, 1), "b overwrites a")
	assert.Equal(t, 400, at(ab, 2))

	assert.Equal(t, 200, at(ba, 1), "order matters")
	assert.NotEqual(t, ab.Values(), ba.Values())

	// Inputs are untouched.
	assert.Equal(t, 200, at(a, 1))
}

func TestComposite_Errors(t *testing.T) {
	_, err := Composite(NewFrame(25), NewFrame(13))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = Composite()
	assert.Error(t, err)

	out, err := Composite(nil, NewFrame(4))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Size())
}
