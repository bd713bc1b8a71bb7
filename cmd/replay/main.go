package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/persistence/framelog"
	"blockscape.ai/internal/persistence/indexdb"
	"blockscape.ai/internal/scene"
)

var errMismatch = errors.New("digest mismatch")

func main() {
	var (
		framesDir = flag.String("frames", "./data/frames", "frame log dir containing frames-*.jsonl.zst")
		dbPath    = flag.String("db", "", "read frames from this sqlite index instead of the frame log (needs -session)")
		session   = flag.String("session", "", "only verify this session id (optional)")
		keepGoing = flag.Bool("keep_going", false, "report every mismatch instead of stopping at the first")
	)
	flag.Parse()

	var st stats
	check := func(rec framelog.Record) error {
		if *session != "" && rec.Session != *session {
			return nil
		}
		err := st.verify(rec)
		if err != nil && *keepGoing && errors.Is(err, errMismatch) {
			fmt.Fprintln(os.Stderr, err)
			return nil
		}
		return err
	}

	var err error
	if strings.TrimSpace(*dbPath) != "" {
		err = replayIndex(*dbPath, *session, check)
	} else {
		err = framelog.ReadDir(*framesDir, check)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if st.checked == 0 {
		fmt.Fprintln(os.Stderr, "no frames found")
		os.Exit(1)
	}
	fmt.Printf("replay: checked=%d failed_frames=%d mismatches=%d\n", st.checked, st.failed, st.mismatches)
	if st.mismatches > 0 {
		os.Exit(1)
	}
}

func replayIndex(path, session string, fn func(framelog.Record) error) error {
	if session == "" {
		return fmt.Errorf("-db needs -session")
	}
	// OpenSQLite creates missing files; a mistyped path must not.
	if _, err := os.Stat(path); err != nil {
		return err
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer idx.Close()
	recs, err := idx.Frames(context.Background(), session)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

type stats struct {
	checked    int
	failed     int
	mismatches int
}

// verify re-runs the query behind rec. A frame that failed when served must
// fail the same way again; otherwise the block digests must match.
func (st *stats) verify(rec framelog.Record) error {
	st.checked++
	blocks, _, err := region.Collect(rec.EngineConfig(), rec.Root, rec.Viewport)
	if rec.Error != "" {
		st.failed++
		if err == nil || err.Error() != rec.Error {
			st.mismatches++
			return fmt.Errorf("%w: session %s frame %d: recorded error %q, replay got %v", errMismatch, rec.Session, rec.Frame, rec.Error, err)
		}
		return nil
	}
	if err != nil {
		st.mismatches++
		return fmt.Errorf("%w: session %s frame %d: replay failed: %v", errMismatch, rec.Session, rec.Frame, err)
	}
	if got := scene.Digest(blocks); got != rec.Digest {
		st.mismatches++
		return fmt.Errorf("%w: session %s frame %d: digest %s, recorded %s", errMismatch, rec.Session, rec.Frame, got, rec.Digest)
	}
	return nil
}
