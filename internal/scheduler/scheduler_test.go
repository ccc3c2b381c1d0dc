package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/calendar"
)

type countingSyncer struct {
	calls atomic.Int32
	sum   calendar.SyncSummary
}

func (c *countingSyncer) SyncAllSources(ctx context.Context) calendar.SyncSummary {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		panic("sync run without deadline")
	}
	return c.sum
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("", &countingSyncer{})
	assert.Error(t, err)

	_, err = New("every tuesday", &countingSyncer{})
	assert.Error(t, err)
}

func TestRunOnceRecordsSummary(t *testing.T) {
	syncer := &countingSyncer{sum: calendar.SyncSummary{TotalSources: 2, SuccessCount: 1, FailedSources: []string{"Work"}}}
	s, err := New("*/30 * * * *", syncer)
	require.NoError(t, err)

	s.RunOnce()
	last, at := s.lastResult()
	assert.Equal(t, int32(1), syncer.calls.Load())
	assert.Equal(t, []string{"Work"}, last.FailedSources)
	assert.False(t, at.IsZero())
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", &countingSyncer{})
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
