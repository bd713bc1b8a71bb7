// Package grammar holds the split/repeat rule that turns one rectangle and
// one stream into child rectangles and seeds.
package grammar

import (
	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/prng"
)

type Kind uint8

const (
	KindSplit Kind = iota + 1
	KindRepeat
)

func (k Kind) String() string {
	switch k {
	case KindSplit:
		return "split"
	case KindRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

const (
	splitProbability = 4.0 / 5.0
	maxRepeat        = 5
)

type Child struct {
	Seed prng.Seed
	Rect geom.Rect
}

type Step struct {
	Kind     Kind
	Axis     geom.Axis
	Fraction float64 // split only
	Count    int     // repeat only
	Children []Child
}

// SplitFraction maps a draw onto one of ten cut positions in [1/3, 19/30].
func SplitFraction(s *prng.Stream) float64 {
	return float64(s.Pick(10)+10) / 30
}

func RepeatCount(s *prng.Stream) int {
	return s.Pick(maxRepeat) + 1
}

// Subdivide applies the rule to r, consuming draws from s in a fixed order:
// kind, axis, fraction or count, then child seeds. Split children each get
// their own seed; all repeat tiles share one.
func Subdivide(s *prng.Stream, r geom.Rect) Step {
	kind := KindRepeat
	if s.Float() < splitProbability {
		kind = KindSplit
	}
	axis := geom.AxisY
	if s.Float() < 0.5 {
		axis = geom.AxisX
	}

	step := Step{Kind: kind, Axis: axis}
	if kind == KindSplit {
		step.Fraction = SplitFraction(s)
		parts := geom.Split(r, axis, step.Fraction)
		step.Children = make([]Child, len(parts))
		for i, p := range parts {
			step.Children[i] = Child{Seed: s.Seed(), Rect: p}
		}
		return step
	}

	step.Count = RepeatCount(s)
	tiles := geom.Repeat(r, axis, step.Count)
	shared := s.Seed()
	step.Children = make([]Child, len(tiles))
	for i, t := range tiles {
		step.Children[i] = Child{Seed: shared, Rect: t}
	}
	return step
}

// ChildAt returns the first child whose rect contains p.
func (st Step) ChildAt(p geom.Point) (Child, bool) {
	for _, c := range st.Children {
		if c.Rect.ContainsPoint(p) {
			return c, true
		}
	}
	return Child{}, false
}
