package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshRankings(ctx context.Context) error {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh called without deadline")
	}
	return r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RefreshesPeriodically(t *testing.T) {
	refresher := &countingRefresher{}
	s := New(refresher, 20*time.Millisecond, time.Second, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("store unavailable")}
	s := New(refresher, 20*time.Millisecond, time.Second, testLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_DisabledWithZeroInterval(t *testing.T) {
	refresher := &countingRefresher{}
	s := New(refresher, 0, time.Second, testLogger())

	require.NoError(t, s.Start())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	assert.Zero(t, refresher.calls.Load())
}
