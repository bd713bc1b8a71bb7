package indexdb

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/geom"
	"blockscape.ai/internal/gen/prng"
	"blockscape.ai/internal/gen/region"
	"blockscape.ai/internal/persistence/framelog"
)

func frameRec(session string, n int64) framelog.Record {
	r := framelog.Record{
		Time:        time.Date(2026, 5, 2, 8, 0, 0, int(n)*1000, time.UTC),
		Session:     session,
		Frame:       n,
		ElapsedMS:   n * 33,
		Root:        region.Region{Seed: math.MaxUint64, Bounds: geom.R(-2, -1, 3, 4)},
		Viewport:    geom.R(float64(n)/10, 0, 1+float64(n)/10, 1),
		Blocks:      1000 + int(n),
		AscentSteps: 1,
		Digest:      "abc",
	}
	r.SetEngine(region.DefaultConfig())
	return r
}

func TestSQLiteIndex_SessionsAndFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "blockscape.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)

	t0 := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	idx.RecordSession(Session{ID: "s1", Seed: 12345, Mode: "pan", Remote: "127.0.0.1:1", StartedAt: t0})
	idx.RecordSession(Session{ID: "s2", Seed: prng.SentinelSeed, Name: "hello world", Mode: "manual", StartedAt: t0.Add(time.Second)})
	for i := int64(0); i < 3; i++ {
		idx.RecordFrame(frameRec("s1", i))
	}
	idx.EndSession("s1", 3)
	require.NoError(t, idx.Close())

	idx, err = OpenSQLite(path)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	sessions, err := idx.Sessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "s2", sessions[0].ID)
	require.Equal(t, prng.SentinelSeed, sessions[0].Seed)
	require.Equal(t, "hello world", sessions[0].Name)
	require.True(t, sessions[0].EndedAt.IsZero())

	s1 := sessions[1]
	require.Equal(t, prng.Seed(12345), s1.Seed)
	require.Equal(t, int64(3), s1.Frames)
	require.True(t, s1.StartedAt.Equal(t0))
	require.False(t, s1.EndedAt.IsZero())

	limited, err := idx.Sessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	frames, err := idx.Frames(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		want := frameRec("s1", int64(i))
		require.True(t, want.Time.Equal(f.Time))
		f.Time = want.Time
		require.Equal(t, want, f)
	}

	none, err := idx.Frames(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqFrame}

	s.RecordFrame(frameRec("s", 1))
	s.RecordSession(Session{ID: "s"})
	s.EndSession("s", 1)

	st := s.Stats()
	require.Equal(t, uint64(1), st.DropFrameTotal)
	require.Equal(t, uint64(2), st.DropSessionTotal)
	require.Equal(t, 1, st.QueueDepth)
	require.Equal(t, 1, st.QueueCapacity)
}

func TestSQLiteIndex_RecordDuringClose(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := int64(0); n < 500; n++ {
				idx.RecordFrame(frameRec("s", n))
			}
		}()
	}
	require.NoError(t, idx.Close())
	wg.Wait()

	idx.RecordSession(Session{ID: "late"})
	idx.EndSession("late", 1)
	require.NoError(t, idx.Close())
}

func TestSQLiteIndex_NilIsNoop(t *testing.T) {
	var s *SQLiteIndex
	s.RecordSession(Session{ID: "x"})
	s.RecordFrame(framelog.Record{})
	s.EndSession("x", 0)
	require.Equal(t, Stats{}, s.Stats())
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}
