package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "valid position at origin", x: 0, y: 0},
		{name: "valid positive position", x: 100.5, y: 200.75},
		{name: "valid negative position", x: -100.5, y: -200.75},
		{name: "NaN x coordinate", x: math.NaN(), y: 0, wantErr: true},
		{name: "NaN y coordinate", x: 0, y: math.NaN(), wantErr: true},
		{name: "Infinity x coordinate", x: math.Inf(1), y: 0, wantErr: true},
		{name: "Negative infinity y coordinate", x: 0, y: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X)
			assert.Equal(t, tt.y, pos.Y)
		})
	}
}

func TestVectorArithmetic(t *testing.T) {
	a := Vector{X: 3, Y: 4}
	b := Vector{X: 1, Y: -2}

	assert.Equal(t, Vector{X: 4, Y: 2}, a.Add(b))
	assert.Equal(t, Vector{X: 2, Y: 6}, a.Sub(b))
	assert.Equal(t, Vector{X: 6, Y: 8}, a.Scale(2))
	assert.InDelta(t, 5.0, a.Len(), 1e-12)
	assert.InDelta(t, 5.0, a.DistanceTo(Vector{}), 1e-12)
	assert.True(t, a.Equals(Vector{X: 3, Y: 4 + 1e-12}))
	assert.False(t, Vector{X: math.NaN()}.IsFinite())
}

func TestNewSafeArea(t *testing.T) {
	margins := Margins{Top: 50, Bottom: 80, Left: 30, Right: 30}

	t.Run("inset by half extents and margins", func(t *testing.T) {
		area, ok := NewSafeArea(1280, 800, 150, 100, margins)
		require.True(t, ok)
		assert.Equal(t, 180.0, area.MinX)
		assert.Equal(t, 1100.0, area.MaxX)
		assert.Equal(t, 150.0, area.MinY)
		assert.Equal(t, 620.0, area.MaxY)
		assert.Equal(t, Vector{X: 640, Y: 385}, area.Center())
	})

	t.Run("small viewport keeps a minimum extent", func(t *testing.T) {
		area, ok := NewSafeArea(300, 200, 150, 100, margins)
		require.True(t, ok)
		assert.Equal(t, 100.0, area.Width())
		assert.Equal(t, 100.0, area.Height())
	})

	degenerate := []struct {
		name          string
		width, height float64
	}{
		{"zero width", 0, 800},
		{"zero height", 1280, 0},
		{"negative", -1, 800},
		{"NaN", math.NaN(), 800},
		{"infinite", math.Inf(1), 800},
	}
	for _, tt := range degenerate {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewSafeArea(tt.width, tt.height, 150, 100, margins)
			assert.False(t, ok)
		})
	}
}

type fixedSource []float64

func (f *fixedSource) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestSafeAreaClampAndRandomPoint(t *testing.T) {
	area := SafeArea{MinX: 10, MaxX: 110, MinY: 20, MaxY: 220}

	assert.Equal(t, Vector{X: 10, Y: 220}, area.Clamp(Vector{X: -5, Y: 999}))
	assert.Equal(t, Vector{X: 50, Y: 50}, area.Clamp(Vector{X: 50, Y: 50}))

	src := fixedSource{0, 1}
	assert.Equal(t, Vector{X: 10, Y: 220}, area.RandomPoint(&src))
	src = fixedSource{0.5, 0.25}
	p := area.RandomPoint(&src)
	assert.Equal(t, Vector{X: 60, Y: 70}, p)
	assert.True(t, area.Contains(p))
}

func TestCategoryAndKeywords(t *testing.T) {
	c, err := ParseCategory(" proposal ")
	require.NoError(t, err)
	assert.Equal(t, CategoryProposal, c)

	_, err = ParseCategory("TODO")
	assert.Error(t, err)
	assert.Equal(t, CategoryInfo, CategoryOrDefault("TODO"))
	assert.Len(t, Categories(), 4)

	set := NewKeywordSet("budget", "q3", "budget")
	assert.Equal(t, []string{"budget", "q3"}, set.Slice())
	other := NewKeywordSet("budget", "q4")
	assert.Equal(t, 1, set.IntersectionSize(other))
	assert.Equal(t, 3, set.UnionSize(other))

	cased := NewKeywordSet("Budget", " budget")
	assert.Equal(t, 2, cased.Len(), "tags are kept as given")
	assert.Equal(t, 0, cased.IntersectionSize(NewKeywordSet("budget")))
}
