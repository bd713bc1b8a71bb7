package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"blockscape.ai/internal/gen/region"
)

func TestErrorKind(t *testing.T) {
	require.Equal(t, "", ErrorKind(nil))
	require.Equal(t, "depth_exceeded", ErrorKind(fmt.Errorf("frame 3: %w", region.ErrDepthExceeded)))
	require.Equal(t, "ascent_limit", ErrorKind(region.ErrAscentLimit))
	require.Equal(t, "other", ErrorKind(errors.New("boom")))
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(blocksEmitted.WithLabelValues("test"))
	ObserveQuery("test", region.Stats{Blocks: 12, AscentSteps: 2}, time.Millisecond, nil)
	ObserveQuery("test", region.Stats{Blocks: 3}, time.Millisecond, region.ErrDepthExceeded)

	require.Equal(t, before+15, testutil.ToFloat64(blocksEmitted.WithLabelValues("test")))
	require.Equal(t, 2.0, testutil.ToFloat64(ascentSteps.WithLabelValues("test")))
	require.Equal(t, 1.0, testutil.ToFloat64(generationErrors.WithLabelValues("test", "depth_exceeded")))

	SessionOpened()
	SessionOpened()
	SessionClosed()
	require.Equal(t, 1.0, testutil.ToFloat64(sessions))
	SessionClosed()
}
