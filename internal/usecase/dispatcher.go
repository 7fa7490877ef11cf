package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/totegamma/loandesk/internal/domain"
)

// Syncer is the part of the orchestrator the dispatcher drives.
type Syncer interface {
	SyncOne(ctx context.Context, t domain.EntityType, record domain.Record) bool
	SyncMany(ctx context.Context, t domain.EntityType, records []domain.Record) domain.SyncCounts
}

// Dispatcher is the single consumer of local change events. Write paths
// publish into a bounded queue and never wait on the remote store.
type Dispatcher struct {
	syncer  Syncer
	source  SnapshotSource
	queue   chan domain.ChangeEvent
	dropped atomic.Int64
}

var _ ChangePublisher = (*Dispatcher)(nil)

func NewDispatcher(syncer Syncer, source SnapshotSource, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		syncer: syncer,
		source: source,
		queue:  make(chan domain.ChangeEvent, size),
	}
}

// Publish enqueues the event without blocking. It reports false when the
// queue is full and the event was dropped.
func (d *Dispatcher) Publish(event domain.ChangeEvent) bool {
	select {
	case d.queue <- event:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were discarded on a full queue.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run consumes events until ctx is done. Events still queued at that point
// are discarded; the next bulk sync picks them up.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "dispatcher started", slog.String("module", "dispatch"))
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(
				ctx, "dispatcher stopped",
				slog.Int("pending", len(d.queue)),
				slog.Int64("dropped", d.dropped.Load()),
				slog.String("module", "dispatch"),
			)
			return nil
		case event := <-d.queue:
			d.handle(ctx, event)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event domain.ChangeEvent) {
	if event.Record != nil {
		d.syncer.SyncOne(ctx, event.Type, event.Record)
		return
	}

	if d.source == nil {
		return
	}
	records, err := d.source.Snapshot(ctx, event.Type)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to read collection",
			slog.String("type", event.Type.String()),
			slog.String("error", err.Error()),
			slog.String("module", "dispatch"),
		)
		return
	}
	d.syncer.SyncMany(ctx, event.Type, records)
}
