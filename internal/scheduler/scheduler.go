// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/commerce-jobs/internal/config"
	"github.com/javajoker/commerce-jobs/internal/services"
)

var (
	// ErrAlreadyRunning means another holder has the job's lease; the tick
	// is skipped, not failed.
	ErrAlreadyRunning = errors.New("job is already running")
	ErrUnknownJob     = errors.New("unknown job")
)

// RunFunc executes one job run and returns its summary.
type RunFunc func(ctx context.Context) (interface{}, error)

// Scheduler triggers the registered jobs on their cron schedules. Every run,
// scheduled or manual, goes through the same path: acquire the job's lease,
// bound the run with the configured timeout, release the lease.
type Scheduler struct {
	cron     *cron.Cron
	leases   *services.LeaseService
	timeout  time.Duration
	leaseTTL time.Duration
	jobs     map[string]RunFunc
}

func New(leases *services.LeaseService, cfg config.JobsConfig) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		leases:   leases,
		timeout:  time.Duration(cfg.RunTimeout) * time.Second,
		leaseTTL: time.Duration(cfg.LeaseTTL) * time.Second,
		jobs:     make(map[string]RunFunc),
	}
}

func (s *Scheduler) Register(name, spec string, run RunFunc) error {
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunNow(context.Background(), name); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				logrus.WithField("job", name).Info("Skipping tick, previous run still holds the lease")
				return
			}
			logrus.WithError(err).WithField("job", name).Error("Job run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, name, err)
	}

	s.jobs[name] = run
	logrus.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Job registered")
	return nil
}

// RunNow executes one run of a registered job, serialized by its lease and
// bounded by the run timeout. Returns the job's summary.
func (s *Scheduler) RunNow(ctx context.Context, name string) (interface{}, error) {
	run, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	acquired, err := s.leases.Acquire(ctx, name, s.leaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease for %q: %w", name, err)
	}
	if !acquired {
		return nil, ErrAlreadyRunning
	}

	defer func() {
		// Release with a fresh context so a timed-out run still frees the
		// lease instead of waiting for the TTL.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.leases.Release(releaseCtx, name); err != nil {
			logrus.WithError(err).WithField("job", name).Error("Failed to release job lease")
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := run(runCtx)
	duration := time.Since(start)

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"job":      name,
			"duration": duration.String(),
		}).Error("Job run aborted")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"job":      name,
		"duration": duration.String(),
		"summary":  summary,
	}).Info("Job run completed")
	return summary, nil
}

// Names lists the registered job names, sorted.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.Info("Scheduler started")
}

// Stop halts scheduling; the returned context completes when in-flight runs
// finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
