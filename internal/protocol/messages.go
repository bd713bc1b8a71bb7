package protocol

import (
	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/scene"
)

// HELLO (client -> server)
//
// Seed is free text: an integer literal, a hex string, or a phrase that gets
// hashed. A missing seed means seed from the clock.
type HelloMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Seed            *string `json:"seed,omitempty"`
	Name            string  `json:"name,omitempty"`
	Width           float64 `json:"width,omitempty"`
	Mode            string  `json:"mode,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	SessionID       string        `json:"session_id"`
	Seed            string        `json:"seed"`
	SeedHex         string        `json:"seed_hex"`
	Name            string        `json:"name,omitempty"`
	Mode            string        `json:"mode"`
	Shading         scene.Shading `json:"shading"`
	LeafFraction    float64       `json:"leaf_fraction"`
	PaletteSize     int           `json:"palette_size"`
	FrameRateHz     int           `json:"frame_rate_hz"`
}

// VIEWPORT (client -> server), manual mode only.
type ViewportMsg struct {
	Type     string    `json:"type"`
	Viewport geom.Rect `json:"viewport"`
}

// FRAME (server -> client)
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id,omitempty"`
	Index           int64  `json:"frame"`
	ElapsedMS       int64  `json:"elapsed_ms"`
	AscentSteps     int    `json:"ascent_steps"`
	scene.Frame
}

func NewFrameMsg(sessionID string, n int64, elapsedMS int64, f scene.Frame) FrameMsg {
	return FrameMsg{
		Type:            TypeFrame,
		ProtocolVersion: Version,
		SessionID:       sessionID,
		Index:           n,
		ElapsedMS:       elapsedMS,
		AscentSteps:     f.Stats.AscentSteps,
		Frame:           f,
	}
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, Code: code, Message: message}
}
