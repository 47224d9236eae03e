package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Postline/internal/metrics"
)

// Scheduler runs a job on a fixed interval from a single goroutine. A tick
// that fires while the job is still running is dropped, so runs never overlap.
type Scheduler struct {
	name     string
	interval time.Duration
	logger   *zap.Logger
	job      func(ctx context.Context) error

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(name string, interval time.Duration, logger *zap.Logger, job func(ctx context.Context) error) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		logger:   logger,
		job:      job,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("scheduler already started", zap.String("name", s.name))
		return
	}
	s.started = true
	s.mu.Unlock()
	defer close(s.done)

	s.logger.Info("scheduler starting", zap.String("name", s.name), zap.Duration("interval", s.interval))
	defer s.logger.Info("scheduler finished", zap.String("name", s.name))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", zap.String("name", s.name), zap.Any("panic", r))
		}
	}()

	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("name", s.name), zap.Error(err))
	}
}

// Stop ends the loop and waits for an in-flight run. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

func (s *Scheduler) Name() string {
	return s.name
}

// SessionFactory opens a store session for one pass. release must be called
// exactly once.
type SessionFactory func(ctx context.Context) (store Store, release func(), err error)

// OutboxJob runs one delivery pass per invocation on a fresh session. The pass
// ignores shutdown cancellation so a started pass always finishes.
func OutboxJob(sessions SessionFactory, transport Transport, attachments AttachmentResolver, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx = context.WithoutCancel(ctx)

		store, release, err := sessions(ctx)
		if err != nil {
			return fmt.Errorf("open outbox session: %w", err)
		}
		defer release()

		RunOnce(ctx, store, transport, attachments, logger)
		return nil
	}
}

type StaleReleaser interface {
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RecoveryJob returns claims abandoned by a crashed pass to PENDING.
func RecoveryJob(r StaleReleaser, olderThan time.Duration, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := r.ReleaseStale(ctx, olderThan)
		if err != nil {
			return err
		}
		if n > 0 {
			metrics.OutboxStaleReleased.Add(float64(n))
			logger.Warn("released stale email claims", zap.Int64("count", n), zap.Duration("older_than", olderThan))
		}
		return nil
	}
}
