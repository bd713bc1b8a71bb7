package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/protocol"
	"blockscape.ai/internal/scene"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	require.NoError(t, err, "compile %s", name)
	return s
}

// validateJSON round-trips v through encoding/json so the validator sees the
// wire shape.
func validateJSON(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	validateRaw(t, s, string(raw))
}

func validateRaw(t *testing.T, s *jsonschema.Schema, raw string) {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.NoError(t, s.Validate(doc))
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validateRaw(t, compile(t, "hello.schema.json"), `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "seed":"0x3039",
	  "width":640,
	  "mode":"manual"
	}`)
	validateRaw(t, compile(t, "viewport.schema.json"), `{
	  "type":"VIEWPORT",
	  "viewport":{"origin":{"x":-1,"y":-1},"extent":{"x":2,"y":2}}
	}`)
	validateRaw(t, compile(t, "error.schema.json"), `{
	  "type":"ERROR",
	  "code":"E_RATE_LIMIT",
	  "message":"slow down"
	}`)
}

func TestSchemas_RejectBadSamples(t *testing.T) {
	hello := compile(t, "hello.schema.json")
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"type":"HELLO","protocol_version":"1.0","mode":"orbit"}`), &doc))
	require.Error(t, hello.Validate(doc))

	errSchema := compile(t, "error.schema.json")
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ERROR","code":"E_NOPE","message":""}`), &doc))
	require.Error(t, errSchema.Validate(doc))
}

func TestSchemas_ValidateEncodedMessages(t *testing.T) {
	seed := "12345"
	validateJSON(t, compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Seed:            &seed,
		Name:            "demo",
		Width:           800,
		Mode:            protocol.ModePan,
	})

	schemes := [][]string{{"#000", "#111", "#222", "#333", "#444"}}
	sh := scene.ShadingFor(12345, schemes)
	validateJSON(t, compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "s1",
		Seed:            "12345",
		SeedHex:         "3039",
		Mode:            protocol.ModeManual,
		Shading:         sh,
		LeafFraction:    0.02,
		PaletteSize:     5,
		FrameRateHz:     30,
	})

	validateJSON(t, compile(t, "viewport.schema.json"), protocol.ViewportMsg{
		Type:     protocol.TypeViewport,
		Viewport: geom.R(0.25, 0.25, 0.75, 0.75),
	})

	r := scene.Renderer{Engine: region.DefaultConfig(), Width: 800}
	f, err := r.Render(region.Region{Seed: 12345, Bounds: geom.UnitSquare}, geom.R(-0.5, -0.5, 1.5, 1.5), sh)
	require.NoError(t, err)
	msg := protocol.NewFrameMsg("s1", 3, 100, f)
	require.Equal(t, f.Stats.AscentSteps, msg.AscentSteps)
	validateJSON(t, compile(t, "frame.schema.json"), msg)

	validateJSON(t, compile(t, "error.schema.json"), protocol.NewError(protocol.ErrGeneration, "generation limit exceeded"))
}

func TestDecodeBase(t *testing.T) {
	m, err := protocol.DecodeBase([]byte(`{"type":"VIEWPORT","viewport":{}}`))
	require.NoError(t, err)
	require.Equal(t, protocol.TypeViewport, m.Type)

	_, err = protocol.DecodeBase([]byte(`{`))
	require.Error(t, err)
}

func TestFrameMsg_Shape(t *testing.T) {
	f := scene.Frame{Viewport: geom.UnitSquare, Digest: "ab"}
	f.Stats.AscentSteps = 2
	raw, err := json.Marshal(protocol.NewFrameMsg("s", 7, 250, f))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "FRAME", got["type"])
	require.Equal(t, 7.0, got["frame"])
	require.Equal(t, 250.0, got["elapsed_ms"])
	require.Equal(t, 2.0, got["ascent_steps"])
	require.Equal(t, "ab", got["digest"])
	require.Contains(t, got, "viewport")
}
