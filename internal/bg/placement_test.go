package bg

import (
	"math/rand/v2"
	"testing"

	"deedles.dev/kawabg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

func randomSizes(t *testing.T, n int, f func(target, img geom.Point[float64])) {
	t.Helper()

	r := rand.New(rand.NewPCG(1, 2))
	dim := func() float64 { return float64(r.IntN(4096) + 1) }
	for range n {
		f(geom.Pt(dim(), dim()), geom.Pt(dim(), dim()))
	}
}

func TestComputeStretch(t *testing.T) {
	randomSizes(t, 1000, func(target, img geom.Point[float64]) {
		p, err := Compute(target, img, ModeStretch)
		require.NoError(t, err)
		assert.InDelta(t, target.X, p.Scale.X*img.X, epsilon)
		assert.InDelta(t, target.Y, p.Scale.Y*img.Y, epsilon)
		assert.True(t, p.Offset.IsZero())
		assert.False(t, p.Repeat)
	})
}

func TestComputeFillCovers(t *testing.T) {
	randomSizes(t, 1000, func(target, img geom.Point[float64]) {
		p, err := Compute(target, img, ModeFill)
		require.NoError(t, err)
		require.Equal(t, p.Scale.X, p.Scale.Y, "fill must preserve aspect ratio")

		s := p.Scale.X
		w, h := s*img.X, s*img.Y
		assert.GreaterOrEqual(t, w, target.X-epsilon)
		assert.GreaterOrEqual(t, h, target.Y-epsilon)
		assert.True(t, near(w, target.X) || near(h, target.Y), "target %v, image %v, scaled %vx%v", target, img, w, h)

		b := p.Bounds(img)
		assert.LessOrEqual(t, b.Min.X, epsilon)
		assert.LessOrEqual(t, b.Min.Y, epsilon)
		assert.GreaterOrEqual(t, b.Max.X, target.X-epsilon)
		assert.GreaterOrEqual(t, b.Max.Y, target.Y-epsilon)
	})
}

func TestComputeFitContains(t *testing.T) {
	randomSizes(t, 1000, func(target, img geom.Point[float64]) {
		p, err := Compute(target, img, ModeFit)
		require.NoError(t, err)
		require.Equal(t, p.Scale.X, p.Scale.Y, "fit must preserve aspect ratio")

		s := p.Scale.X
		w, h := s*img.X, s*img.Y
		assert.LessOrEqual(t, w, target.X+epsilon)
		assert.LessOrEqual(t, h, target.Y+epsilon)
		assert.True(t, near(w, target.X) || near(h, target.Y), "target %v, image %v, scaled %vx%v", target, img, w, h)

		b := p.Bounds(img)
		assert.GreaterOrEqual(t, b.Min.X, -epsilon)
		assert.GreaterOrEqual(t, b.Min.Y, -epsilon)
		assert.LessOrEqual(t, b.Max.X, target.X+epsilon)
		assert.LessOrEqual(t, b.Max.Y, target.Y+epsilon)
	})
}

func TestComputeUnscaled(t *testing.T) {
	randomSizes(t, 200, func(target, img geom.Point[float64]) {
		for _, mode := range []Mode{ModeCenter, ModeTile} {
			p, err := Compute(target, img, mode)
			require.NoError(t, err)
			assert.Equal(t, geom.Pt(1.0, 1.0), p.Scale, "mode %v", mode)
		}
	})
}

func TestComputeExamples(t *testing.T) {
	tests := []struct {
		name   string
		target geom.Point[float64]
		img    geom.Point[float64]
		mode   Mode
		want   Placement
	}{
		{
			name:   "FillSameRatio",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(1280.0, 720.0),
			mode:   ModeFill,
			want:   Placement{Scale: geom.Pt(1.5, 1.5)},
		},
		{
			name:   "FitPillarbox",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(800.0, 600.0),
			mode:   ModeFit,
			want:   Placement{Scale: geom.Pt(1.8, 1.8), Offset: geom.Pt(1920.0/2/1.8-400, 0)},
		},
		{
			name:   "FillCropsHeight",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(800.0, 600.0),
			mode:   ModeFill,
			want:   Placement{Scale: geom.Pt(2.4, 2.4), Offset: geom.Pt(0, 1080/2/2.4-300)},
		},
		{
			name:   "FitLetterbox",
			target: geom.Pt(1000.0, 1000.0),
			img:    geom.Pt(2000.0, 1000.0),
			mode:   ModeFit,
			want:   Placement{Scale: geom.Pt(0.5, 0.5), Offset: geom.Pt(0.0, 500.0)},
		},
		{
			name:   "Center",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(100.0, 50.0),
			mode:   ModeCenter,
			want:   Placement{Scale: geom.Pt(1.0, 1.0), Offset: geom.Pt(910.0, 515.0)},
		},
		{
			name:   "CenterLarger",
			target: geom.Pt(100.0, 100.0),
			img:    geom.Pt(300.0, 200.0),
			mode:   ModeCenter,
			want:   Placement{Scale: geom.Pt(1.0, 1.0), Offset: geom.Pt(-100.0, -50.0)},
		},
		{
			name:   "Tile",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(64.0, 64.0),
			mode:   ModeTile,
			want:   Placement{Scale: geom.Pt(1.0, 1.0), Repeat: true},
		},
		{
			name:   "Stretch",
			target: geom.Pt(1920.0, 1080.0),
			img:    geom.Pt(960.0, 270.0),
			mode:   ModeStretch,
			want:   Placement{Scale: geom.Pt(2.0, 4.0)},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := Compute(test.target, test.img, test.mode)
			require.NoError(t, err)
			assert.InDelta(t, test.want.Scale.X, p.Scale.X, epsilon)
			assert.InDelta(t, test.want.Scale.Y, p.Scale.Y, epsilon)
			assert.InDelta(t, test.want.Offset.X, p.Offset.X, epsilon)
			assert.InDelta(t, test.want.Offset.Y, p.Offset.Y, epsilon)
			assert.Equal(t, test.want.Repeat, p.Repeat)
		})
	}
}

func TestComputeFitExampleOffset(t *testing.T) {
	p, err := Compute(geom.Pt(1920.0, 1080.0), geom.Pt(800.0, 600.0), ModeFit)
	require.NoError(t, err)
	assert.InDelta(t, 133.33, p.Offset.X, 0.01)
	assert.Zero(t, p.Offset.Y)
}

func TestComputeEqualRatio(t *testing.T) {
	target := geom.Pt(300.0, 200.0)
	img := geom.Pt(3.0, 2.0)

	p, err := Compute(target, img, ModeFill)
	require.NoError(t, err)
	assert.Equal(t, target.Y/img.Y, p.Scale.X)
	assert.True(t, p.Offset.IsZero())

	p, err = Compute(target, img, ModeFit)
	require.NoError(t, err)
	assert.Equal(t, target.X/img.X, p.Scale.X)
	assert.True(t, p.Offset.IsZero())
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute(geom.Pt(0.0, 10.0), geom.Pt(10.0, 10.0), ModeFill)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Compute(geom.Pt(10.0, 10.0), geom.Pt(10.0, -1.0), ModeStretch)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Compute(geom.Pt(10.0, 10.0), geom.Pt(10.0, 10.0), Mode(42))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestTransform(t *testing.T) {
	p := Placement{Scale: geom.Pt(2.0, 3.0), Offset: geom.Pt(5.0, -1.0)}
	m := p.Transform()

	// (u, v) = (1, 1) -> (2*(1+5), 3*(1-1))
	x := m[0]*1 + m[1]*1 + m[2]
	y := m[3]*1 + m[4]*1 + m[5]
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 0.0, y)
}

func near(a, b float64) bool {
	d := a - b
	return (d < epsilon) && (d > -epsilon)
}
