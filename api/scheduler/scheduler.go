package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

const (
	reconcileJob = "reconcile_sweep"
	requeueJob   = "requeue_verification"

	// DefaultRequeueSpec re-arms lost verifications every five minutes
	DefaultRequeueSpec = "*/5 * * * *"
	// staleAfter is how long a case may wait for its first verification before it is re-armed
	staleAfter = 2 * time.Minute
)

// Sweeper repairs every lawyer-bound case
type Sweeper interface {
	ReconcileAll(ctx context.Context, scope reconciler.Scope) (reconciler.SweepResult, error)
}

// Scheduler runs the periodic background jobs. Each run takes a lock so only one instance
// does the work.
type Scheduler struct {
	cron       *cron.Cron
	Sweeper    Sweeper
	CDB        databases.CaseDatabase
	Queue      jobs.Queue
	LockDB     databases.SchedulerLockDatabase
	instanceID string

	reconcileSpec string
	requeueSpec   string
}

// NewScheduler creates a new scheduler instance. reconcileSpec is a standard five field cron
// expression evaluated in UTC.
func NewScheduler(sweeper Sweeper, cdb databases.CaseDatabase, queue jobs.Queue, lockDB databases.SchedulerLockDatabase, reconcileSpec string) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", ...
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(time.UTC)),
		Sweeper:       sweeper,
		CDB:           cdb,
		Queue:         queue,
		LockDB:        lockDB,
		instanceID:    instanceID,
		reconcileSpec: reconcileSpec,
		requeueSpec:   DefaultRequeueSpec,
	}
}

// Start registers the jobs and starts the cron runner
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.reconcileSpec, s.reconcileSweep); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.requeueSpec, s.requeueVerifications); err != nil {
		return fmt.Errorf("failed to register requeue job: %w", err)
	}
	s.cron.Start()
	zap.S().Infow("case scheduler started", "reconcile", s.reconcileSpec, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("case scheduler stopped")
}

// withLock runs fn when this instance wins the named lock
func (s *Scheduler) withLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context)) {
	acquired, err := s.LockDB.TryAcquireLock(ctx, name, s.instanceID, ttl)
	if err != nil {
		zap.S().Errorw("failed to acquire scheduler lock", "job", name, "error", err)
		return
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", name)
		return
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(ctx, name, s.instanceID); err != nil {
			zap.S().Warnw("failed to release scheduler lock", "job", name, "error", err)
		}
	}()
	fn(ctx)
}

func (s *Scheduler) reconcileSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.withLock(ctx, reconcileJob, 15*time.Minute, func(ctx context.Context) {
		zap.S().Infow("running reconcile sweep", "instance", s.instanceID)
		res, err := s.Sweeper.ReconcileAll(ctx, reconciler.Scope{})
		if err != nil {
			zap.S().Errorw("reconcile sweep failed", "error", err)
			return
		}
		zap.S().Infow("reconcile sweep complete",
			"totalChecked", res.TotalChecked,
			"fixed", res.FixedCount,
			"unfixed", res.UnfixedCount,
			"failed", res.FailedCount)
	})
}

// requeueVerifications schedules verification again for pending cases that never got one,
// which happens when the in-process queue lost its timers on restart
func (s *Scheduler) requeueVerifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.withLock(ctx, requeueJob, 10*time.Minute, func(ctx context.Context) {
		cases, err := s.CDB.Find(ctx, models.CaseFilter{Statuses: []string{models.CaseStatusPending}})
		if err != nil {
			zap.S().Errorw("failed to find pending cases", "error", err)
			return
		}
		cutoff := time.Now().Add(-staleAfter)
		requeued := 0
		for _, c := range cases {
			if c.Details.VerificationStatus != models.VerificationPending || c.Details.CreatedAt.After(cutoff) {
				continue
			}
			job := jobs.Job{Kind: jobs.KindAutoVerify, CaseID: c.ID.Hex()}
			if err := s.Queue.Schedule(ctx, job, 0); err != nil {
				zap.S().Errorw("failed to requeue verification", "caseId", c.ID.Hex(), "error", err)
				continue
			}
			requeued++
		}
		if requeued > 0 {
			zap.S().Infow("requeued stale verifications", "count", requeued)
		}
	})
}
