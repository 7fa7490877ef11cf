package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/totegamma/loandesk/internal/domain"
)

// BulkSyncer runs a full catch-up sync.
type BulkSyncer interface {
	SyncAll(ctx context.Context, trigger string) (domain.SyncReport, error)
}

// Scheduler fires SyncAll on a fixed interval. Each tick runs in its own
// goroutine and ticks may overlap.
type Scheduler struct {
	syncer   BulkSyncer
	interval time.Duration

	mu       sync.Mutex
	started  bool
	stopped  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

func NewScheduler(syncer BulkSyncer, interval time.Duration) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking. A non-positive interval disables the scheduler.
// Cancelling ctx has the same effect as Stop except that in-flight runs are
// not waited for.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped || s.interval <= 0 {
		return
	}
	s.started = true

	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(
		ctx, "scheduler started",
		slog.Duration("interval", s.interval),
		slog.String("module", "scheduler"),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		// a run that has started finishes even if the parent is cancelled
		runCtx := context.WithoutCancel(ctx)
		if _, err := s.syncer.SyncAll(runCtx, "schedule"); err != nil {
			slog.ErrorContext(
				runCtx, "scheduled sync failed",
				slog.String("error", err.Error()),
				slog.String("module", "scheduler"),
			)
		}
	}()
}

// Stop prevents further ticks and waits for in-flight runs. It is safe to
// call more than once and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		started := s.started
		s.mu.Unlock()

		close(s.stop)
		if started {
			<-s.done
		}
	})
	s.inflight.Wait()
	slog.Info("scheduler stopped", slog.String("module", "scheduler"))
}
