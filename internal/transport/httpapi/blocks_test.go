package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/prng"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/protocol"
	"blockscape.ai/internal/scene"
	"blockscape.ai/internal/seedtext"
	"blockscape.ai/internal/tuning"
)

type frameResp struct {
	Type        string `json:"type"`
	AscentSteps int    `json:"ascent_steps"`
	Root        struct {
		Seed string `json:"seed"`
	} `json:"root"`
	Blocks []json.RawMessage `json:"blocks"`
	Digest string            `json:"digest"`
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func wantDigest(t *testing.T, seed prng.Seed, vp geom.Rect) string {
	t.Helper()
	blocks, _, err := region.Collect(region.DefaultConfig(), region.Region{Seed: seed, Bounds: geom.UnitSquare}, vp)
	require.NoError(t, err)
	return scene.Digest(blocks)
}

func TestBlocksHandler_Frame(t *testing.T) {
	h := BlocksHandler(tuning.Defaults(), nil)
	rec := get(t, h, "/v1/blocks?seed=12345&x0=0.4&y0=0.4&x1=0.6&y1=0.6&width=320")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got frameResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, protocol.TypeFrame, got.Type)
	require.Len(t, got.Blocks, 1507)
	require.Zero(t, got.AscentSteps)
	require.Equal(t, "12345", got.Root.Seed)
	require.Equal(t, wantDigest(t, 12345, geom.R(0.4, 0.4, 0.6, 0.6)), got.Digest)
}

func TestBlocksHandler_DefaultsAndAscent(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	h := BlocksHandler(tuning.Defaults(), func() time.Time { return now })

	var got frameResp
	rec := get(t, h, "/v1/blocks?x0=-1&y0=-1&x1=2&y1=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.GreaterOrEqual(t, got.AscentSteps, 1)
	require.Equal(t, wantDigest(t, seedtext.FromTime(now), geom.R(-1, -1, 2, 2)), got.Digest)

	rec = get(t, h, "/v1/blocks?seed=hello%20world")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, wantDigest(t, seedtext.FromText("hello world"), geom.UnitSquare), got.Digest)
}

func TestBlocksHandler_BadRequests(t *testing.T) {
	h := BlocksHandler(tuning.Defaults(), nil)
	for _, url := range []string{
		"/v1/blocks?seed=1&x0=abc",
		"/v1/blocks?seed=1&x0=1&x1=1",
		"/v1/blocks?seed=1&x0=NaN",
		"/v1/blocks?seed=1&width=-3",
	} {
		rec := get(t, h, url)
		require.Equal(t, http.StatusBadRequest, rec.Code, url)
		var e protocol.ErrorMsg
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		require.Equal(t, protocol.ErrBadRequest, e.Code, url)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/blocks", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBlocksHandler_GenerationError(t *testing.T) {
	tune := tuning.Defaults()
	tune.MaxDepth = 3
	rec := get(t, BlocksHandler(tune, nil), "/v1/blocks?seed=12345&x0=0.4&y0=0.4&x1=0.6&y1=0.6")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var e protocol.ErrorMsg
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	require.Equal(t, protocol.ErrGeneration, e.Code)
}
