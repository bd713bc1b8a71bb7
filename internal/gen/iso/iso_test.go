package iso

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
)

func requirePoint(t *testing.T, want, got geom.Point) {
	t.Helper()
	require.InDelta(t, want.X, got.X, 1e-12)
	require.InDelta(t, want.Y, got.Y, 1e-12)
}

func TestProject_Origin(t *testing.T) {
	require.Equal(t, geom.Point{}, Project(0, 0, 0))
}

func TestProject_Linear(t *testing.T) {
	pts := [][3]float64{{1, 2, 3}, {-0.5, 4, 0.25}, {7, -3, -2}}
	for _, a := range pts {
		for _, b := range pts {
			sum := Project(a[0]+b[0], a[1]+b[1], a[2]+b[2])
			pa := Project(a[0], a[1], a[2])
			pb := Project(b[0], b[1], b[2])
			requirePoint(t, geom.Point{X: pa.X + pb.X, Y: pa.Y + pb.Y}, sum)

			scaled := Project(2.5*a[0], 2.5*a[1], 2.5*a[2])
			requirePoint(t, geom.Point{X: 2.5 * pa.X, Y: 2.5 * pa.Y}, scaled)
		}
	}
}

func TestProject_FirstCoordinateDependsOnDifference(t *testing.T) {
	for _, d := range []float64{-2, 0, 0.5, 3} {
		a := Project(1+d, 1, 0)
		b := Project(10+d, 10, 0)
		assert.InDelta(t, a.X, b.X, 1e-12)
		assert.InDelta(t, d/math.Sqrt2, a.X, 1e-12)
	}
}

func TestProject_Known(t *testing.T) {
	requirePoint(t, geom.Point{X: 1 / math.Sqrt2, Y: 1 / math.Sqrt(6)}, Project(1, 0, 0))
	requirePoint(t, geom.Point{X: -1 / math.Sqrt2, Y: 1 / math.Sqrt(6)}, Project(0, 1, 0))
	requirePoint(t, geom.Point{X: 0, Y: 2 / math.Sqrt(6)}, Project(0, 0, 1))
}

func TestProjectBlock(t *testing.T) {
	b := region.Block{Rect: geom.R(1, 2, 3, 5), Height: 0.5}
	f := ProjectBlock(b)

	requirePoint(t, Project(1, 2, 0.5), f.Top[0])
	requirePoint(t, Project(1, 5, 0.5), f.Top[1])
	requirePoint(t, Project(3, 5, 0.5), f.Top[2])
	requirePoint(t, Project(3, 2, 0.5), f.Top[3])

	requirePoint(t, Project(1, 2, 0), f.Left[0])
	requirePoint(t, Project(1, 5, 0), f.Left[3])
	requirePoint(t, Project(1, 2, 0), f.Right[0])
	requirePoint(t, Project(3, 2, 0.5), f.Right[2])

	// Flat blocks collapse their walls onto the ground line.
	flat := ProjectBlock(region.Block{Rect: geom.R(0, 0, 1, 1)})
	requirePoint(t, flat.Left[0], flat.Left[1])
	requirePoint(t, flat.Right[2], flat.Right[3])

	assert.Equal(t, f.Left, f.Quad(FaceLeft))
	assert.Equal(t, f.Top, f.Quad(DrawOrder[0]))
}

func TestCameraFor(t *testing.T) {
	c := CameraFor(geom.R(0, 0, 1, 1), 800)
	requirePoint(t, Project(0, 0.5, 0), c.Origin)
	require.InDelta(t, 800/(math.Sqrt2/2), c.Scale, 1e-9)
	require.InDelta(t, 1/c.Scale, c.LineWidth, 1e-15)
	requirePoint(t, geom.Point{}, c.ToPixels(c.Origin))

	zero := CameraFor(geom.R(0, 0, 0, 0), 800)
	require.Zero(t, zero.Scale)
}
