package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-watcher/utils"
)

func quietLogger() *utils.Logger {
	return utils.NewLoggerWithOptions(utils.LoggerOptions{Writer: io.Discard})
}

func TestParseScheduleRejectsGarbage(t *testing.T) {
	_, err := ParseSchedule("every hour")
	assert.Error(t, err)

	_, err = ParseSchedule("0 */2 * * *")
	assert.NoError(t, err)
}

func TestNextFiresOnIntervalBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	s, err := New("0 */3 * * *", loc, func(context.Context) {}, quietLogger())
	require.NoError(t, err)

	from := time.Date(2026, 10, 18, 13, 20, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 18, 15, 0, 0, 0, loc), s.Next(from))
}

func TestRunsDoNotOverlap(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s, err := New("0 * * * *", time.UTC, func(context.Context) {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
	}, quietLogger())
	require.NoError(t, err)

	s.Start(true)
	<-started

	// A run arriving while the first is in progress is dropped.
	s.Trigger()
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestStopCancelsJobContext(t *testing.T) {
	started := make(chan struct{})
	s, err := New("0 * * * *", time.UTC, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, quietLogger())
	require.NoError(t, err)

	s.Start(true)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestRecoverKeepsSchedulerAlive(t *testing.T) {
	var runs atomic.Int32
	s, err := New("0 * * * *", time.UTC, func(context.Context) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	}, quietLogger())
	require.NoError(t, err)

	assert.NotPanics(t, s.Trigger)
	s.Trigger()
	assert.Equal(t, int32(2), runs.Load())
}
