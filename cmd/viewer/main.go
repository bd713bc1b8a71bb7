package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		seed   = flag.String("seed", "", "seed: integer, hex, or any text (default: server clock)")
		name   = flag.String("name", "", "display name (default: seed text)")
		mode   = flag.String("mode", protocol.ModePan, "pan or manual")
		width  = flag.Float64("width", 0, "canvas width in pixels (default: server tuning)")
		zoom   = flag.Float64("zoom", 1.25, "manual mode: viewport scale per frame around its center")
		frames = flag.Int("frames", 0, "exit after this many frames (0: run until interrupted)")
	)
	flag.Parse()

	seedGiven := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedGiven = true
		}
	})

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            *name,
		Width:           *width,
		Mode:            *mode,
	}
	if seedGiven {
		hello.Seed = seed
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	seen := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s seed=%s (0x%s) name=%q mode=%s scheme=%d color_left=%v color_right=%v",
				w.SessionID, w.Seed, w.SeedHex, w.Name, w.Mode, w.Shading.SchemeIndex, w.Shading.ColorLeft, w.Shading.ColorRight)

		case protocol.TypeFrame:
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			logger.Printf("FRAME %d t=%dms blocks=%d ascent=%d depth=%d viewport=%s digest=%.12s",
				f.Index, f.ElapsedMS, len(f.Blocks), f.AscentSteps, f.Stats.MaxDepth, fmtRect(f.Viewport), f.Digest)
			seen++
			if *frames > 0 && seen >= *frames {
				return
			}
			if *mode == protocol.ModeManual {
				next := protocol.ViewportMsg{Type: protocol.TypeViewport, Viewport: scaleAround(f.Viewport, *zoom)}
				_ = conn.WriteJSON(next)
			}

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

// scaleAround grows (k > 1) or shrinks (k < 1) r about its center.
func scaleAround(r geom.Rect, k float64) geom.Rect {
	c := r.Center()
	hw, hh := r.Width()*k/2, r.Height()*k/2
	return geom.R(c.X-hw, c.Y-hh, c.X+hw, c.Y+hh)
}

func fmtRect(r geom.Rect) string {
	b, _ := json.Marshal([4]float64{r.Origin.X, r.Origin.Y, r.Extent.X, r.Extent.Y})
	return string(b)
}
