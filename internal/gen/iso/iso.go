// Package iso maps world space onto the isometric screen plane.
package iso

import (
	"math"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
)

var (
	invSqrt2 = 1 / math.Sqrt2
	invSqrt6 = 1 / math.Sqrt(6)
)

// Project returns the screen position of world point (x, y, z).
func Project(x, y, z float64) geom.Point {
	return geom.Point{X: invSqrt2 * (x - y), Y: invSqrt6 * (x + y + 2*z)}
}

type Quad [4]geom.Point

// Faces are the visible faces of an extruded block. Left is the wall on
// x = origin.x, Right the wall on y = origin.y; both run from z=0 to the
// block's height.
type Faces struct {
	Top   Quad `json:"top"`
	Left  Quad `json:"left"`
	Right Quad `json:"right"`
}

// Face names in paint order. Faces are painted, not depth sorted.
const (
	FaceTop   = "top"
	FaceLeft  = "left"
	FaceRight = "right"
)

var DrawOrder = [3]string{FaceTop, FaceLeft, FaceRight}

func ProjectBlock(b region.Block) Faces {
	o, e, h := b.Origin, b.Extent, b.Height
	return Faces{
		Top: Quad{
			Project(o.X, o.Y, h),
			Project(o.X, e.Y, h),
			Project(e.X, e.Y, h),
			Project(e.X, o.Y, h),
		},
		Left: Quad{
			Project(o.X, o.Y, 0),
			Project(o.X, o.Y, h),
			Project(o.X, e.Y, h),
			Project(o.X, e.Y, 0),
		},
		Right: Quad{
			Project(o.X, o.Y, 0),
			Project(o.X, o.Y, h),
			Project(e.X, o.Y, h),
			Project(e.X, o.Y, 0),
		},
	}
}

func (f Faces) Quad(name string) Quad {
	switch name {
	case FaceLeft:
		return f.Left
	case FaceRight:
		return f.Right
	default:
		return f.Top
	}
}

// Camera places a viewport on a canvas of the given pixel width: screen
// origin at the projected left-middle of the viewport, Scale pixels per
// world unit, LineWidth one pixel in world units.
type Camera struct {
	Origin    geom.Point `json:"origin"`
	Scale     float64    `json:"scale"`
	LineWidth float64    `json:"line_width"`
}

func CameraFor(vp geom.Rect, width float64) Camera {
	origin := Project(vp.Origin.X, (vp.Origin.Y+vp.Extent.Y)/2, 0)
	halfDiag := math.Hypot(vp.Width(), vp.Height()) / 2
	if halfDiag <= 0 || width <= 0 {
		return Camera{Origin: origin}
	}
	scale := width / halfDiag
	return Camera{Origin: origin, Scale: scale, LineWidth: 1 / scale}
}

// ToPixels maps a projected point onto canvas pixels (y up).
func (c Camera) ToPixels(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - c.Origin.X) * c.Scale, Y: (p.Y - c.Origin.Y) * c.Scale}
}
