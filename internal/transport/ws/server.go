package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"blockscape.ai/internal/anim"
	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/metrics"
	"blockscape.ai/internal/persistence/framelog"
	"blockscape.ai/internal/persistence/indexdb"
	"blockscape.ai/internal/protocol"
	"blockscape.ai/internal/scene"
	"blockscape.ai/internal/seedtext"
	"blockscape.ai/internal/tuning"
)

// FrameRecorder is satisfied by *framelog.Writer.
type FrameRecorder interface {
	Write(framelog.Record) error
}

// SessionIndex is satisfied by *indexdb.SQLiteIndex.
type SessionIndex interface {
	RecordSession(indexdb.Session)
	EndSession(id string, frames int64)
	RecordFrame(framelog.Record)
}

type Options struct {
	Tuning tuning.Tuning
	Frames FrameRecorder
	Index  SessionIndex
	Now    func() time.Time
}

type Server struct {
	opts Options
	log  *log.Logger

	upgrader websocket.Upgrader

	// ctx is cancelled by Close; every session derives from it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

func NewServer(opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:   opts,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 256 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if !s.track() {
			rejectHandshake(conn, "server shutting down")
			return
		}
		defer s.sessions.Done()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		stopClose := context.AfterFunc(s.ctx, func() {
			cancel()
			_ = conn.Close()
		})
		defer stopClose()

		sess := s.handshake(conn, r.RemoteAddr)
		if sess == nil {
			return
		}
		metrics.SessionOpened()
		defer metrics.SessionClosed()
		s.log.Printf("session %s seed=%d mode=%s remote=%s", sess.id, sess.root.Seed, sess.mode, r.RemoteAddr)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		stop := anim.Start(ctx, s.opts.Tuning.FrameInterval(), sess.tick)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sess.handle(ctx, msg)
		}

		// Cleanup.
		cancel()
		stop()
		n := sess.frames()
		if s.opts.Index != nil {
			s.opts.Index.EndSession(sess.id, n)
		}
		s.log.Printf("session %s closed after %d frames", sess.id, n)
	}
}

// Close ends every open session and waits until their handlers have
// returned, so nothing writes to the stores in Options afterwards. New
// connections are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.sessions.Wait()
}

func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions.Add(1)
	return true
}

func (s *Server) handshake(conn *websocket.Conn, remote string) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		rejectHandshake(conn, "expected HELLO")
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		rejectHandshake(conn, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		rejectHandshake(conn, "bad protocol_version")
		return nil
	}
	mode := strings.TrimSpace(hello.Mode)
	if mode == "" {
		mode = protocol.ModePan
	}
	if mode != protocol.ModePan && mode != protocol.ModeManual {
		rejectHandshake(conn, "bad mode")
		return nil
	}

	tune := s.opts.Tuning
	width := hello.Width
	if width <= 0 {
		width = tune.CanvasWidth
	}
	text, given := "", hello.Seed != nil
	if given {
		text = *hello.Seed
	}
	seed, seedName := seedtext.Resolve(text, given, s.opts.Now)
	name := strings.TrimSpace(hello.Name)
	if name == "" {
		name = seedName
	}

	sess := &session{
		srv:     s,
		id:      uuid.NewString(),
		mode:    mode,
		root:    region.Region{Seed: seed, Bounds: geom.UnitSquare},
		shading: scene.ShadingFor(seed, tune.ColorSchemes),
		render:  scene.Renderer{Engine: tune.EngineConfig(), Width: width},
		out:     make(chan []byte, 4),
		limiter: rate.NewLimiter(rate.Limit(tune.RateLimits.ViewportPerSec), tune.RateLimits.ViewportBurst),
		vp:      geom.UnitSquare,
		dirty:   true,
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		Seed:            fmt.Sprint(uint64(seed)),
		SeedHex:         seedtext.Format(seed),
		Name:            name,
		Mode:            mode,
		Shading:         sess.shading,
		LeafFraction:    tune.LeafFraction,
		PaletteSize:     tune.PaletteSize,
		FrameRateHz:     tune.FrameRateHz,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}

	if s.opts.Index != nil {
		s.opts.Index.RecordSession(indexdb.Session{
			ID:        sess.id,
			Seed:      seed,
			Name:      name,
			Mode:      mode,
			Remote:    remote,
			StartedAt: s.opts.Now(),
		})
	}
	return sess
}

// session owns one viewer. The root never changes: every frame starts a
// fresh query from it.
type session struct {
	srv     *Server
	id      string
	mode    string
	root    region.Region
	shading scene.Shading
	render  scene.Renderer
	out     chan []byte
	limiter *rate.Limiter

	mu    sync.Mutex
	vp    geom.Rect
	dirty bool
	n     int64
}

func (s *session) frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// handle processes one client message after the handshake.
func (s *session) handle(ctx context.Context, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(ctx, protocol.ErrBadRequest, "malformed message")
		return
	}
	if base.Type != protocol.TypeViewport {
		s.sendError(ctx, protocol.ErrBadRequest, "unexpected message type "+base.Type)
		return
	}
	if s.mode != protocol.ModeManual {
		s.sendError(ctx, protocol.ErrBadRequest, "VIEWPORT needs manual mode")
		return
	}
	if !s.limiter.Allow() {
		s.sendError(ctx, protocol.ErrRateLimit, "too many VIEWPORT messages")
		return
	}
	var vm protocol.ViewportMsg
	if err := json.Unmarshal(msg, &vm); err != nil {
		s.sendError(ctx, protocol.ErrBadRequest, "bad VIEWPORT")
		return
	}
	vp := vm.Viewport
	if !vp.Valid() || vp.Width() <= 0 || vp.Height() <= 0 {
		s.sendError(ctx, protocol.ErrBadRequest, "viewport must have positive width and height")
		return
	}
	s.mu.Lock()
	s.vp = vp
	s.dirty = true
	s.mu.Unlock()
}

// tick renders one frame. Pan mode renders every tick; manual mode only
// when the viewport changed since the last frame.
func (s *session) tick(elapsed time.Duration) {
	s.mu.Lock()
	vp := s.vp
	if s.mode == protocol.ModePan {
		vp = scene.PanViewport(elapsed, s.srv.opts.Tuning.PanPeriod())
	} else if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	n := s.n
	s.n++
	s.mu.Unlock()

	began := time.Now()
	f, err := s.render.Render(s.root, vp, s.shading)
	metrics.ObserveQuery("ws", f.Stats, time.Since(began), err)
	s.record(n, elapsed, f, err)

	if err != nil {
		s.srv.log.Printf("session %s frame %d: %v", s.id, n, err)
		s.sendError(context.Background(), protocol.ErrGeneration, err.Error())
		return
	}
	b, err := json.Marshal(protocol.NewFrameMsg(s.id, n, elapsed.Milliseconds(), f))
	if err != nil {
		s.sendError(context.Background(), protocol.ErrInternal, "encode frame")
		return
	}
	// A viewer that cannot keep up loses frames, not the session.
	select {
	case s.out <- b:
	default:
	}
}

func (s *session) record(n int64, elapsed time.Duration, f scene.Frame, err error) {
	opts := s.srv.opts
	if opts.Frames == nil && opts.Index == nil {
		return
	}
	rec := framelog.Record{
		Time:        opts.Now(),
		Session:     s.id,
		Frame:       n,
		ElapsedMS:   elapsed.Milliseconds(),
		Root:        s.root,
		Viewport:    f.Viewport,
		Blocks:      f.Stats.Blocks,
		AscentSteps: f.Stats.AscentSteps,
		Digest:      f.Digest,
	}
	rec.SetEngine(s.render.Engine)
	if err != nil {
		rec.Error = err.Error()
	}
	if opts.Frames != nil {
		if werr := opts.Frames.Write(rec); werr != nil {
			s.srv.log.Printf("frame log: %v", werr)
		}
	}
	if opts.Index != nil {
		opts.Index.RecordFrame(rec)
	}
}

// sendError queues an ERROR without dropping it; it gives up only when the
// connection is going away.
func (s *session) sendError(ctx context.Context, code, message string) {
	b, err := json.Marshal(protocol.NewError(code, message))
	if err != nil {
		return
	}
	t := time.NewTimer(time.Second)
	defer t.Stop()
	select {
	case s.out <- b:
	case <-ctx.Done():
	case <-t.C:
	}
}

func rejectHandshake(conn *websocket.Conn, reason string) {
	_ = writeJSON(conn, protocol.NewError(protocol.ErrBadRequest, reason))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	}
	return nil
}
