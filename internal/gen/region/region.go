// Package region grows and walks the subdivision hierarchy.
//
// A Query first ascends from a caller-held root until the root's bounds
// enclose the viewport, then descends from the effective root emitting leaf
// Blocks. The two caches that keep ascent and descent consistent live on the
// Query and die with it.
package region

import (
	"errors"
	"fmt"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/prng"
)

var (
	ErrDepthExceeded = errors.New("generation limit exceeded")
	ErrAscentStalled = errors.New("ascent step did not enlarge bounds")
	ErrAscentLimit   = errors.New("ascent step limit exceeded")
	ErrEmptyViewport = errors.New("empty viewport")
	ErrBadRegion     = errors.New("invalid region bounds")
	ErrBadConfig     = errors.New("invalid engine config")
)

// Region is a node of the hierarchy: a seed and the world-space bounds of
// its unit square.
type Region struct {
	Seed   prng.Seed `json:"seed,string"`
	Bounds geom.Rect `json:"bounds"`
}

// Block is an emitted leaf. Height is the extrusion; the footprint's
// vertical size is Rect.Height().
type Block struct {
	geom.Rect
	Height float64 `json:"height"`
	Color  int     `json:"color"`
}

// BlockFunc receives each emitted block. A non-nil error stops the walk and
// is returned from the query.
type BlockFunc func(Block) error

// Caches keeps ascent and descent agreeing on geometry within one query.
//
// Ancestors maps a region's seed to the parent synthesized for it.
// Descendants maps the seed found at the middle of a synthesized parent to
// the region that was folded in there.
type Caches struct {
	Ancestors   map[prng.Seed]Region
	Descendants map[prng.Seed]Region
}

func NewCaches() *Caches {
	return &Caches{
		Ancestors:   make(map[prng.Seed]Region),
		Descendants: make(map[prng.Seed]Region),
	}
}

type Config struct {
	// LeafFraction: a node narrower or shorter than this share of the
	// viewport is emitted as a block.
	LeafFraction float64 `json:"leaf_fraction"`
	PaletteSize  int     `json:"palette_size"`
	MaxDepth     int     `json:"max_depth"`
	// MiddleExtent ends the middle search once the rect is smaller on both axes.
	MiddleExtent   float64 `json:"middle_extent"`
	MaxAscentSteps int     `json:"max_ascent_steps"`
	MaxMiddleSteps int     `json:"max_middle_steps"`
}

func DefaultConfig() Config {
	return Config{
		LeafFraction:   1.0 / 50.0,
		PaletteSize:    5,
		MaxDepth:       256,
		MiddleExtent:   0.05,
		MaxAscentSteps: 1024,
		MaxMiddleSteps: 4096,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.LeafFraction > 0 && c.LeafFraction <= 1):
		return fmt.Errorf("%w: leaf_fraction %v not in (0,1]", ErrBadConfig, c.LeafFraction)
	case c.PaletteSize < 1:
		return fmt.Errorf("%w: palette_size %d", ErrBadConfig, c.PaletteSize)
	case c.MaxDepth < 1:
		return fmt.Errorf("%w: max_depth %d", ErrBadConfig, c.MaxDepth)
	case !(c.MiddleExtent > 0 && c.MiddleExtent < 1):
		return fmt.Errorf("%w: middle_extent %v not in (0,1)", ErrBadConfig, c.MiddleExtent)
	case c.MaxAscentSteps < 1:
		return fmt.Errorf("%w: max_ascent_steps %d", ErrBadConfig, c.MaxAscentSteps)
	case c.MaxMiddleSteps < 1:
		return fmt.Errorf("%w: max_middle_steps %d", ErrBadConfig, c.MaxMiddleSteps)
	}
	return nil
}

func validBounds(r geom.Rect) bool {
	return r.Valid() && r.Width() > 0 && r.Height() > 0
}
