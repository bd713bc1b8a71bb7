package region

import (
	"fmt"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/grammar"
	"blockscape.ai/internal/gen/prng"
)

var unitCenter = geom.Point{X: 0.5, Y: 0.5}

// EnsureEncloses climbs from r until the bounds contain viewport and returns
// the effective root. Parents already synthesized by this query are reused.
func (q *Query) EnsureEncloses(r Region, viewport geom.Rect) (Region, error) {
	if !validBounds(r.Bounds) {
		return r, fmt.Errorf("%w: %+v", ErrBadRegion, r.Bounds)
	}
	steps := 0
	for !r.Bounds.Contains(viewport) {
		if p, ok := q.caches.Ancestors[r.Seed]; ok {
			r = p
			continue
		}
		if steps >= q.cfg.MaxAscentSteps {
			return r, fmt.Errorf("%w: %d steps from seed %d", ErrAscentLimit, steps, r.Seed)
		}
		p, err := q.synthesizeParent(r)
		if err != nil {
			return r, err
		}
		steps++
		q.stats.AscentSteps++
		r = p
	}
	return r, nil
}

// synthesizeParent builds the parent of r so that the parent's middle
// descendant lands exactly on r's bounds.
func (q *Query) synthesizeParent(r Region) (Region, error) {
	parentSeed := prng.ParentSeed(r.Seed)
	mid, err := q.findMiddle(parentSeed)
	if err != nil {
		return Region{}, err
	}

	m, ok := geom.MapOnto(mid.Rect, r.Bounds)
	if !ok {
		return Region{}, fmt.Errorf("%w: degenerate middle %+v under seed %d", ErrAscentStalled, mid.Rect, parentSeed)
	}
	parent := Region{Seed: parentSeed, Bounds: m.Rect(geom.UnitSquare)}
	if !(parent.Bounds.Width() > r.Bounds.Width() && parent.Bounds.Height() > r.Bounds.Height()) {
		return Region{}, fmt.Errorf("%w: seed %d bounds %+v -> %+v", ErrAscentStalled, parentSeed, r.Bounds, parent.Bounds)
	}

	q.caches.Ancestors[r.Seed] = parent
	q.caches.Descendants[mid.Seed] = r
	return parent, nil
}

// findMiddle follows the child covering the unit square's center until the
// rect is below MiddleExtent on both axes.
func (q *Query) findMiddle(seed prng.Seed) (grammar.Child, error) {
	cur := grammar.Child{Seed: seed, Rect: geom.UnitSquare}
	for i := 0; cur.Rect.Width() >= q.cfg.MiddleExtent || cur.Rect.Height() >= q.cfg.MiddleExtent; i++ {
		if i >= q.cfg.MaxMiddleSteps {
			return cur, fmt.Errorf("%w: middle search from seed %d did not converge", ErrAscentStalled, seed)
		}
		step := grammar.Subdivide(prng.New(cur.Seed), cur.Rect)
		next, ok := step.ChildAt(unitCenter)
		if !ok {
			return cur, fmt.Errorf("%w: no child covers the center under seed %d", ErrAscentStalled, cur.Seed)
		}
		cur = next
	}
	return cur, nil
}
