package geom

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle; Extent is the far corner, not a size.
type Rect struct {
	Origin Point `json:"origin"`
	Extent Point `json:"extent"`
}

var UnitSquare = Rect{Origin: Point{0, 0}, Extent: Point{1, 1}}

func R(x0, y0, x1, y1 float64) Rect {
	return Rect{Origin: Point{x0, y0}, Extent: Point{x1, y1}}
}

func (r Rect) Width() float64  { return r.Extent.X - r.Origin.X }
func (r Rect) Height() float64 { return r.Extent.Y - r.Origin.Y }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

func (r Rect) Center() Point {
	return Point{(r.Origin.X + r.Extent.X) / 2, (r.Origin.Y + r.Extent.Y) / 2}
}

// Valid reports whether the rect is finite and its extent is not below its origin.
func (r Rect) Valid() bool {
	for _, v := range [4]float64{r.Origin.X, r.Origin.Y, r.Extent.X, r.Extent.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Extent.X >= r.Origin.X && r.Extent.Y >= r.Origin.Y
}

// Overlaps reports a shared area. Rects touching along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	if r.Origin.X >= o.Extent.X || o.Origin.X >= r.Extent.X {
		return false
	}
	if r.Origin.Y >= o.Extent.Y || o.Origin.Y >= r.Extent.Y {
		return false
	}
	return true
}

// Contains reports whether o lies entirely inside r (boundaries included).
func (r Rect) Contains(o Rect) bool {
	return r.Origin.X <= o.Origin.X &&
		r.Extent.X >= o.Extent.X &&
		r.Origin.Y <= o.Origin.Y &&
		r.Extent.Y >= o.Extent.Y
}

// StrictlyContains is Contains with no shared boundary on any side.
func (r Rect) StrictlyContains(o Rect) bool {
	return r.Origin.X < o.Origin.X &&
		r.Extent.X > o.Extent.X &&
		r.Origin.Y < o.Origin.Y &&
		r.Extent.Y > o.Extent.Y
}

func (r Rect) ContainsPoint(p Point) bool {
	return r.Origin.X <= p.X &&
		r.Extent.X >= p.X &&
		r.Origin.Y <= p.Y &&
		r.Extent.Y >= p.Y
}

// Intersect returns the common part of r and o; ok is false when they do not overlap.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	if !r.Overlaps(o) {
		return Rect{}, false
	}
	return Rect{
		Origin: Point{math.Max(r.Origin.X, o.Origin.X), math.Max(r.Origin.Y, o.Origin.Y)},
		Extent: Point{math.Min(r.Extent.X, o.Extent.X), math.Min(r.Extent.Y, o.Extent.Y)},
	}, true
}

// ApproxEqual compares corners with a tolerance relative to the larger side of r.
func (r Rect) ApproxEqual(o Rect, rel float64) bool {
	tol := rel * math.Max(math.Max(r.Width(), r.Height()), math.SmallestNonzeroFloat64)
	return math.Abs(r.Origin.X-o.Origin.X) <= tol &&
		math.Abs(r.Origin.Y-o.Origin.Y) <= tol &&
		math.Abs(r.Extent.X-o.Extent.X) <= tol &&
		math.Abs(r.Extent.Y-o.Extent.Y) <= tol
}
