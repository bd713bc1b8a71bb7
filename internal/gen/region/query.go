package region

import (
	"fmt"

	"blockscape.ai/internal/gen/geom"
)

type Stats struct {
	AscentSteps   int `json:"ascent_steps"`
	Nodes         int `json:"nodes"`
	Blocks        int `json:"blocks"`
	Substitutions int `json:"substitutions"`
	MaxDepth      int `json:"max_depth"`
}

type Result struct {
	// Root is the effective root after ascent. Callers keep their own root:
	// the substitutions that make Root render like it are gone with the query.
	Root Region `json:"root"`
	Stats
}

// Query is one ascent+descent pass. It is not safe for concurrent use and
// should not outlive the frame it was built for.
type Query struct {
	cfg    Config
	caches *Caches
	stats  Stats
}

func NewQuery(cfg Config) (*Query, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Query{cfg: cfg, caches: NewCaches()}, nil
}

func (q *Query) Config() Config  { return q.cfg }
func (q *Query) Caches() *Caches { return q.caches }
func (q *Query) Stats() Stats    { return q.stats }

// FindBlocks ascends from root until it encloses viewport, then emits the
// visible blocks of the effective root in depth-first order.
func (q *Query) FindBlocks(root Region, viewport geom.Rect, emit BlockFunc) (Result, error) {
	if !validBounds(viewport) {
		return Result{Root: root}, fmt.Errorf("%w: %+v", ErrEmptyViewport, viewport)
	}
	eff, err := q.EnsureEncloses(root, viewport)
	if err != nil {
		return Result{Root: eff, Stats: q.stats}, err
	}
	err = q.Visit(eff, viewport, 0, emit)
	return Result{Root: eff, Stats: q.stats}, err
}

// FindBlocks runs a single query with fresh caches.
func FindBlocks(cfg Config, root Region, viewport geom.Rect, emit BlockFunc) (Result, error) {
	q, err := NewQuery(cfg)
	if err != nil {
		return Result{Root: root}, err
	}
	return q.FindBlocks(root, viewport, emit)
}

// Collect is FindBlocks gathering the blocks into a slice.
func Collect(cfg Config, root Region, viewport geom.Rect) ([]Block, Result, error) {
	var blocks []Block
	res, err := FindBlocks(cfg, root, viewport, func(b Block) error {
		blocks = append(blocks, b)
		return nil
	})
	return blocks, res, err
}
