// Package httpapi serves one-shot generation queries over plain HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/metrics"
	"blockscape.ai/internal/protocol"
	"blockscape.ai/internal/scene"
	"blockscape.ai/internal/seedtext"
	"blockscape.ai/internal/tuning"
)

// BlocksHandler answers GET /v1/blocks?seed=&x0=&y0=&x1=&y1=&width= with a
// single FRAME for the unit-square root of seed. Missing coordinates fall
// back to the unit viewport.
func BlocksHandler(tune tuning.Tuning, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()

		vp, err := parseViewport(q.Get("x0"), q.Get("y0"), q.Get("x1"), q.Get("y1"))
		if err != nil {
			writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		width := tune.CanvasWidth
		if s := strings.TrimSpace(q.Get("width")); s != "" {
			w, err := strconv.ParseFloat(s, 64)
			if err != nil || !(w > 0) {
				writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "width must be a positive number")
				return
			}
			width = w
		}
		seed, _ := seedtext.Resolve(q.Get("seed"), q.Has("seed"), now)

		root := region.Region{Seed: seed, Bounds: geom.UnitSquare}
		rd := scene.Renderer{Engine: tune.EngineConfig(), Width: width}
		began := time.Now()
		f, err := rd.Render(root, vp, scene.ShadingFor(seed, tune.ColorSchemes))
		metrics.ObserveQuery("http", f.Stats, time.Since(began), err)
		if err != nil {
			writeError(rw, http.StatusUnprocessableEntity, protocol.ErrGeneration, err.Error())
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(protocol.NewFrameMsg("", 0, 0, f))
	}
}

func parseViewport(x0, y0, x1, y1 string) (geom.Rect, error) {
	raw := [4]string{x0, y0, x1, y1}
	def := [4]float64{0, 0, 1, 1}
	var v [4]float64
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			v[i] = def[i]
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("bad coordinate %q", s)
		}
		v[i] = f
	}
	vp := geom.R(v[0], v[1], v[2], v[3])
	if !vp.Valid() || vp.Width() <= 0 || vp.Height() <= 0 {
		return geom.Rect{}, fmt.Errorf("viewport must have positive width and height")
	}
	return vp, nil
}

func writeError(rw http.ResponseWriter, status int, code, message string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(protocol.NewError(code, message))
}
