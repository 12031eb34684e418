package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

type countingJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countingJob{}, "not a spec"))
	require.NoError(t, s.AddJob(&countingJob{}, "30 3 * * *"))
	require.NoError(t, s.AddJob(&countingJob{}, "@daily"))
	require.Len(t, s.entries, 1)
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{block: make(chan struct{})}
	run := s.wrap(job)

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, timeout, tick)
	run()
	require.EqualValues(t, 1, job.runs.Load())

	close(job.block)
	<-done
	job.block = nil
	run()
	require.EqualValues(t, 2, job.runs.Load())
}
