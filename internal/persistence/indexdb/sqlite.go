package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/prng"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/persistence/framelog"
)

// SQLiteIndex is a queryable secondary index of sessions and frames. Writes
// are queued to a single writer goroutine and dropped when the queue is
// full; the frame log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends on ch against close(ch).
	mu     sync.RWMutex
	closed bool

	dropSession atomic.Uint64
	dropFrame   atomic.Uint64
}

type reqKind int

const (
	reqSessionStart reqKind = iota + 1
	reqSessionEnd
	reqFrame
)

type req struct {
	kind reqKind

	session Session
	frame   framelog.Record
}

type Session struct {
	ID        string    `json:"id"`
	Seed      prng.Seed `json:"seed,string"`
	Name      string    `json:"name,omitempty"`
	Mode      string    `json:"mode"`
	Remote    string    `json:"remote,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Frames    int64     `json:"frames"`
}

type Stats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropSessionTotal uint64 `json:"drop_session_total"`
	DropFrameTotal   uint64 `json:"drop_frame_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			remote TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			frames INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);`,
		`CREATE TABLE IF NOT EXISTS frames (
			session_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			root_seed TEXT NOT NULL,
			root_x0 REAL NOT NULL,
			root_y0 REAL NOT NULL,
			root_x1 REAL NOT NULL,
			root_y1 REAL NOT NULL,
			vp_x0 REAL NOT NULL,
			vp_y0 REAL NOT NULL,
			vp_x1 REAL NOT NULL,
			vp_y1 REAL NOT NULL,
			leaf_fraction REAL NOT NULL,
			palette_size INTEGER NOT NULL,
			max_depth INTEGER NOT NULL,
			middle_extent REAL NOT NULL,
			max_ascent_steps INTEGER NOT NULL,
			blocks INTEGER NOT NULL,
			ascent_steps INTEGER NOT NULL,
			digest TEXT NOT NULL,
			error TEXT NOT NULL,
			PRIMARY KEY (session_id, frame)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_frames_digest ON frames(digest);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

func (s *SQLiteIndex) RecordSession(sess Session) {
	if s == nil {
		return
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	s.enqueue(req{kind: reqSessionStart, session: sess}, &s.dropSession)
}

func (s *SQLiteIndex) EndSession(id string, frames int64) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSessionEnd, session: Session{ID: id, EndedAt: time.Now(), Frames: frames}}, &s.dropSession)
}

func (s *SQLiteIndex) RecordFrame(rec framelog.Record) {
	if s == nil {
		return
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	s.enqueue(req{kind: reqFrame, frame: rec}, &s.dropFrame)
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropSessionTotal: s.dropSession.Load(),
		DropFrameTotal:   s.dropFrame.Load(),
	}
}

// Sessions lists sessions newest first. limit <= 0 means no limit.
func (s *SQLiteIndex) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,seed,name,mode,remote,started_at,COALESCE(ended_at,''),frames
		 FROM sessions ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess           Session
			seed           string
			started, ended string
		)
		if err := rows.Scan(&sess.ID, &seed, &sess.Name, &sess.Mode, &sess.Remote, &started, &ended, &sess.Frames); err != nil {
			return nil, err
		}
		if sess.Seed, err = parseSeed(seed); err != nil {
			return nil, err
		}
		sess.StartedAt = parseTime(started)
		sess.EndedAt = parseTime(ended)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Frames returns the indexed frames of one session in frame order.
func (s *SQLiteIndex) Frames(ctx context.Context, sessionID string) ([]framelog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame,recorded_at,elapsed_ms,root_seed,root_x0,root_y0,root_x1,root_y1,
		        vp_x0,vp_y0,vp_x1,vp_y1,leaf_fraction,palette_size,max_depth,
		        middle_extent,max_ascent_steps,blocks,ascent_steps,digest,error
		 FROM frames WHERE session_id=? ORDER BY frame`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []framelog.Record
	for rows.Next() {
		var (
			rec            framelog.Record
			recorded, seed string
			rb, vb         [4]float64
		)
		if err := rows.Scan(&rec.Frame, &recorded, &rec.ElapsedMS, &seed,
			&rb[0], &rb[1], &rb[2], &rb[3],
			&vb[0], &vb[1], &vb[2], &vb[3],
			&rec.LeafFraction, &rec.PaletteSize, &rec.MaxDepth,
			&rec.MiddleExtent, &rec.MaxAscentSteps, &rec.Blocks, &rec.AscentSteps,
			&rec.Digest, &rec.Error); err != nil {
			return nil, err
		}
		rootSeed, err := parseSeed(seed)
		if err != nil {
			return nil, err
		}
		rec.Session = sessionID
		rec.Time = parseTime(recorded)
		rec.Root = region.Region{Seed: rootSeed, Bounds: geom.R(rb[0], rb[1], rb[2], rb[3])}
		rec.Viewport = geom.R(vb[0], vb[1], vb[2], vb[3])
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(id,seed,name,mode,remote,started_at,ended_at,frames) VALUES(?,?,?,?,?,?,NULL,0)`)
	endSession, _ := s.db.Prepare(`UPDATE sessions SET ended_at=?, frames=? WHERE id=?`)
	insertFrame, _ := s.db.Prepare(`INSERT OR REPLACE INTO frames(session_id,frame,recorded_at,elapsed_ms,root_seed,root_x0,root_y0,root_x1,root_y1,vp_x0,vp_y0,vp_x1,vp_y1,leaf_fraction,palette_size,max_depth,middle_extent,max_ascent_steps,blocks,ascent_steps,digest,error) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertSession, endSession, insertFrame} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	handle := func(r req) {
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqSessionStart:
			se := r.session
			exec(insertSession, se.ID, formatSeed(se.Seed), se.Name, se.Mode, se.Remote, formatTime(se.StartedAt))

		case reqSessionEnd:
			se := r.session
			exec(endSession, formatTime(se.EndedAt), se.Frames, se.ID)

		case reqFrame:
			f := r.frame
			rb, vb := f.Root.Bounds, f.Viewport
			exec(insertFrame,
				f.Session, f.Frame, formatTime(f.Time), f.ElapsedMS,
				formatSeed(f.Root.Seed),
				rb.Origin.X, rb.Origin.Y, rb.Extent.X, rb.Extent.Y,
				vb.Origin.X, vb.Origin.Y, vb.Extent.X, vb.Extent.Y,
				f.LeafFraction, f.PaletteSize, f.MaxDepth, f.MiddleExtent, f.MaxAscentSteps,
				f.Blocks, f.AscentSteps, f.Digest, f.Error,
			)
		}
		if opCount >= commitEvery {
			commit()
		}
	}

	// Idle sessions still get their rows committed for readers in other
	// processes.
	tick := time.NewTicker(commitMaxWait)
	defer tick.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			handle(r)
		case <-tick.C:
			if time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}

// Seeds are stored as decimal text; SQLite integers are signed 64-bit.
func formatSeed(s prng.Seed) string { return strconv.FormatUint(uint64(s), 10) }

func parseSeed(s string) (prng.Seed, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w", s, err)
	}
	return prng.Seed(v), nil
}

// Fixed width so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s)
	return t
}
