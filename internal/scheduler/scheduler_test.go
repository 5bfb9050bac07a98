package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowinsight/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32
	runs     int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewWriter(io.Discard))
	s.retryDelay = 0
	return s
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "sync", schedule: "0 0 2 * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job))
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron line"}))
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "sync", schedule: "0 0 2 * * *", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(3), atomic.LoadInt32(&job.runs))
	h, err := s.History("sync")
	require.NoError(t, err)
	require.Len(t, h.Results, 1)
	assert.True(t, h.Results[0].Success)
	assert.Empty(t, h.Results[0].Error)
}

func TestRunJobRecordsExhaustedRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "sync", schedule: "0 0 2 * * *", failures: 99}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	// One initial attempt plus maxRetries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&job.runs))
	h, err := s.History("sync")
	require.NoError(t, err)
	require.Len(t, h.Results, 1)
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, "transient failure", h.Results[0].Error)
}

func TestRunNowUnknownJob(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunNow("missing"))
}

func TestStats(t *testing.T) {
	s := newTestScheduler()
	ok := &fakeJob{name: "ok", schedule: "0 0 2 * * *"}
	bad := &fakeJob{name: "bad", schedule: "0 0 3 * * *", failures: 99}
	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))

	s.runJob(ok)
	s.runJob(ok)
	s.runJob(bad)

	stats := s.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, 2, stats["ok"].TotalRuns)
	assert.Equal(t, 0, stats["ok"].FailureCount)
	assert.InDelta(t, 1.0, stats["ok"].SuccessRate, 1e-12)
	assert.NotNil(t, stats["ok"].LastRun)

	assert.Equal(t, 1, stats["bad"].TotalRuns)
	assert.Equal(t, 1, stats["bad"].FailureCount)
	assert.InDelta(t, 0.0, stats["bad"].SuccessRate, 1e-12)
	assert.Equal(t, "0 0 3 * * *", stats["bad"].Schedule)
}

func TestJobHistoryRing(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.Add(JobResult{JobName: "sync", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)

	latest := h.Latest(5)
	assert.Len(t, latest, 5)
}
