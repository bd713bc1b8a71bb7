// Package framelog keeps a compressed, hourly rotated record of every frame
// served, enough to re-run the query and compare digests.
package framelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/region"
)

const (
	Prefix = "frames"
	suffix = ".jsonl.zst"
)

// Record is one served frame. Root is the root the session holds, not the
// effective root after ascent.
type Record struct {
	Time           time.Time     `json:"time"`
	Session        string        `json:"session"`
	Frame          int64         `json:"frame"`
	ElapsedMS      int64         `json:"elapsed_ms"`
	Root           region.Region `json:"root"`
	Viewport       geom.Rect     `json:"viewport"`
	LeafFraction   float64       `json:"leaf_fraction"`
	PaletteSize    int           `json:"palette_size"`
	MaxDepth       int           `json:"max_depth"`
	MiddleExtent   float64       `json:"middle_extent"`
	MaxAscentSteps int           `json:"max_ascent_steps"`
	Blocks         int           `json:"blocks"`
	AscentSteps    int           `json:"ascent_steps"`
	Digest         string        `json:"digest,omitempty"`
	Error          string        `json:"error,omitempty"`
}

func (r *Record) SetEngine(cfg region.Config) {
	r.LeafFraction = cfg.LeafFraction
	r.PaletteSize = cfg.PaletteSize
	r.MaxDepth = cfg.MaxDepth
	r.MiddleExtent = cfg.MiddleExtent
	r.MaxAscentSteps = cfg.MaxAscentSteps
}

// EngineConfig rebuilds the query config the frame was generated with.
func (r Record) EngineConfig() region.Config {
	cfg := region.DefaultConfig()
	cfg.LeafFraction = r.LeafFraction
	cfg.PaletteSize = r.PaletteSize
	cfg.MaxDepth = r.MaxDepth
	if r.MiddleExtent > 0 {
		cfg.MiddleExtent = r.MiddleExtent
	}
	if r.MaxAscentSteps > 0 {
		cfg.MaxAscentSteps = r.MaxAscentSteps
	}
	return cfg
}

type Writer struct {
	baseDir string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	if rec.Time.IsZero() {
		rec.Time = now
	}
	hour := now.Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s%s", Prefix, hour, suffix))
}

// Files lists the frame logs in dir, oldest hour first.
func Files(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, Prefix+"-") && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadDir calls fn for every record under dir in file order. An error from
// fn stops the scan and is returned.
func ReadDir(dir string, fn func(Record) error) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ReadFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func ReadFile(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
