package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a unit of background maintenance run on a cron spec.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
}

// NewCronScheduler accepts standard five-field specs and descriptors
// such as "@daily".
func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", job.Name()), zap.String("spec", spec))
	if old, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(old)
	}
	id, err := s.cron.AddFunc(spec, s.wrap(job))
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	s.entries[job.Name()] = id
	logger.Info("job scheduled")
	return nil
}

// Start runs jobs until Stop; ctx is handed to every run.
func (s *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		s.ctx = ctx
	}
	s.cron.Start()
}

// Stop waits for running jobs to return.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// wrap skips a tick while the previous run of the same job is still going.
func (s *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		logger := logutil.GetLogger(s.ctx).With(zap.String("job", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: still running")
			return
		}
		defer running.Store(false)
		start := time.Now()
		if err := job.Run(s.ctx); err != nil {
			logger.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
			return
		}
		logger.Debug("job finished", zap.Duration("duration", time.Since(start)))
	}
}
