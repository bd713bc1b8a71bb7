package geom

import "fmt"

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// Split cuts r along axis at fraction f of its length. The part beyond the
// cut comes first, the part at the origin second.
func Split(r Rect, axis Axis, f float64) [2]Rect {
	w := r.Width()
	h := r.Height()
	if axis == AxisX {
		cut := r.Origin.X + w*f
		return [2]Rect{
			{Origin: Point{cut, r.Origin.Y}, Extent: r.Extent},
			{Origin: r.Origin, Extent: Point{cut, r.Extent.Y}},
		}
	}
	cut := r.Origin.Y + h*f
	return [2]Rect{
		{Origin: Point{r.Origin.X, cut}, Extent: r.Extent},
		{Origin: r.Origin, Extent: Point{r.Extent.X, cut}},
	}
}

// Repeat cuts r into n equal tiles along axis, ordered from the far end back
// to the origin.
func Repeat(r Rect, axis Axis, n int) []Rect {
	if n <= 0 {
		return nil
	}
	w := r.Width()
	h := r.Height()
	fn := float64(n)
	out := make([]Rect, n)
	for i := 0; i < n; i++ {
		lo := float64(n - 1 - i)
		hi := float64(n - i)
		if axis == AxisX {
			out[i] = Rect{
				Origin: Point{r.Origin.X + (w*lo)/fn, r.Origin.Y},
				Extent: Point{r.Origin.X + (w*hi)/fn, r.Extent.Y},
			}
		} else {
			out[i] = Rect{
				Origin: Point{r.Origin.X, r.Origin.Y + (h*lo)/fn},
				Extent: Point{r.Extent.X, r.Origin.Y + (h*hi)/fn},
			}
		}
	}
	// Origin+w can miss Extent by an ulp; pin the far tile to the parent edge.
	out[0].Extent = r.Extent
	return out
}

// Affine is the axis-aligned map (x, y) -> (AX*x+BX, AY*y+BY).
type Affine struct {
	AX, BX float64
	AY, BY float64
}

// MapOnto returns the map sending from onto to. ok is false when from is
// degenerate on either axis.
func MapOnto(from, to Rect) (Affine, bool) {
	fw, fh := from.Width(), from.Height()
	if fw <= 0 || fh <= 0 {
		return Affine{}, false
	}
	ax := to.Width() / fw
	ay := to.Height() / fh
	return Affine{
		AX: ax,
		BX: to.Origin.X - ax*from.Origin.X,
		AY: ay,
		BY: to.Origin.Y - ay*from.Origin.Y,
	}, true
}

func (m Affine) Point(p Point) Point {
	return Point{m.AX*p.X + m.BX, m.AY*p.Y + m.BY}
}

func (m Affine) Rect(r Rect) Rect {
	return Rect{Origin: m.Point(r.Origin), Extent: m.Point(r.Extent)}
}
