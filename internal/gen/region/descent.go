package region

import (
	"fmt"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/grammar"
	"blockscape.ai/internal/gen/prng"
)

// Relative tolerance for matching a node against a region folded in by ascent.
const substituteTolerance = 1e-6

// Visit walks r depth-first and emits every leaf overlapping viewport.
// height is the extrusion inherited from the parent; roots start at 0.
func (q *Query) Visit(r Region, viewport geom.Rect, height float64, emit BlockFunc) error {
	return q.visit(r, viewport, height, 0, emit)
}

func (q *Query) visit(r Region, viewport geom.Rect, height float64, depth int, emit BlockFunc) error {
	r = q.resolve(r)
	if !r.Bounds.Overlaps(viewport) {
		return nil
	}
	if depth > q.cfg.MaxDepth {
		return fmt.Errorf("%w: depth %d at seed %d", ErrDepthExceeded, depth, r.Seed)
	}
	q.stats.Nodes++
	if depth > q.stats.MaxDepth {
		q.stats.MaxDepth = depth
	}

	s := prng.New(r.Seed)
	if q.isLeaf(r.Bounds, viewport) {
		q.stats.Blocks++
		return emit(Block{Rect: r.Bounds, Height: height, Color: s.Pick(q.cfg.PaletteSize)})
	}

	step := grammar.Subdivide(s, r.Bounds)
	next := nextHeight(s, height)
	for _, c := range step.Children {
		if err := q.visit(Region{Seed: c.Seed, Bounds: c.Rect}, viewport, next, depth+1, emit); err != nil {
			return err
		}
	}
	return nil
}

// resolve swaps in the region ascent folded into this position, if any.
// Repeat tiles share a seed, so the bounds have to match too.
func (q *Query) resolve(r Region) Region {
	d, ok := q.caches.Descendants[r.Seed]
	if !ok || !r.Bounds.ApproxEqual(d.Bounds, substituteTolerance) {
		return r
	}
	q.stats.Substitutions++
	return d
}

func (q *Query) isLeaf(b, viewport geom.Rect) bool {
	return b.Width() < q.cfg.LeafFraction*viewport.Width() ||
		b.Height() < q.cfg.LeafFraction*viewport.Height()
}

func nextHeight(s *prng.Stream, height float64) float64 {
	if height == 0 {
		return float64(s.Pick(30)) / 200
	}
	return height * (1 + float64(s.Pick(20))/200)
}
