// Package scene turns one generation query into a drawable frame: projected
// faces, fill colors per face, a camera, and a digest of the block stream.
package scene

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"time"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/iso"
	"blockscape.ai/internal/gen/prng"
	"blockscape.ai/internal/gen/region"
)

// SideShadow fills side faces whose shading is switched off.
const SideShadow = "black"

type Shading struct {
	SchemeIndex int      `json:"scheme_index"`
	Scheme      []string `json:"scheme"`
	ColorLeft   bool     `json:"color_left"`
	ColorRight  bool     `json:"color_right"`
}

// ShadingFor picks a scheme and side-face flags from the root seed's stream.
func ShadingFor(seed prng.Seed, schemes [][]string) Shading {
	s := prng.New(seed)
	idx := s.Pick(len(schemes))
	sh := Shading{SchemeIndex: idx}
	if idx < len(schemes) {
		sh.Scheme = schemes[idx]
	}
	sh.ColorRight = s.Float() < 0.5
	sh.ColorLeft = s.Float() < 0.5
	return sh
}

type Fill struct {
	Top   string `json:"top"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (s Shading) Fill(color int) Fill {
	c := SideShadow
	if color >= 0 && color < len(s.Scheme) {
		c = s.Scheme[color]
	}
	f := Fill{Top: c, Left: SideShadow, Right: SideShadow}
	if s.ColorLeft {
		f.Left = c
	}
	if s.ColorRight {
		f.Right = c
	}
	return f
}

// PanViewport is the unit viewport slid diagonally by one unit per period.
func PanViewport(elapsed, period time.Duration) geom.Rect {
	if period <= 0 {
		return geom.UnitSquare
	}
	t := float64(elapsed) / float64(period)
	return geom.R(t, t, 1+t, 1+t)
}

type FrameBlock struct {
	region.Block
	Faces iso.Faces `json:"faces"`
	Fill  Fill      `json:"fill"`
}

type Frame struct {
	Viewport geom.Rect     `json:"viewport"`
	Root     region.Region `json:"root"`
	Stats    region.Stats  `json:"stats"`
	Camera   iso.Camera    `json:"camera"`
	Blocks   []FrameBlock  `json:"blocks"`
	Digest   string        `json:"digest"`
}

type Renderer struct {
	Engine region.Config
	Width  float64
}

// Render runs one query from root and assembles the frame. The root passed
// in is the caller's; Frame.Root is the effective root after ascent.
func (r Renderer) Render(root region.Region, vp geom.Rect, sh Shading) (Frame, error) {
	d := NewDigester()
	var blocks []FrameBlock
	res, err := region.FindBlocks(r.Engine, root, vp, func(b region.Block) error {
		d.Add(b)
		blocks = append(blocks, FrameBlock{Block: b, Faces: iso.ProjectBlock(b), Fill: sh.Fill(b.Color)})
		return nil
	})
	f := Frame{
		Viewport: vp,
		Root:     res.Root,
		Stats:    res.Stats,
		Camera:   iso.CameraFor(vp, r.Width),
		Blocks:   blocks,
	}
	if err != nil {
		return f, err
	}
	f.Digest = d.Sum()
	return f, nil
}

// Digester hashes blocks in emission order. Equal digests mean
// byte-identical block sequences.
type Digester struct {
	h   hash.Hash
	buf [48]byte
}

func NewDigester() *Digester {
	return &Digester{h: sha256.New()}
}

func (d *Digester) Add(b region.Block) {
	le := binary.LittleEndian
	le.PutUint64(d.buf[0:], math.Float64bits(b.Origin.X))
	le.PutUint64(d.buf[8:], math.Float64bits(b.Origin.Y))
	le.PutUint64(d.buf[16:], math.Float64bits(b.Extent.X))
	le.PutUint64(d.buf[24:], math.Float64bits(b.Extent.Y))
	le.PutUint64(d.buf[32:], math.Float64bits(b.Height))
	le.PutUint64(d.buf[40:], uint64(int64(b.Color)))
	d.h.Write(d.buf[:])
}

func (d *Digester) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

func Digest(blocks []region.Block) string {
	d := NewDigester()
	for _, b := range blocks {
		d.Add(b)
	}
	return d.Sum()
}
