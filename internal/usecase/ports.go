package usecase

import (
	"context"

	"github.com/totegamma/loandesk/internal/domain"
)

// Row is a record in the remote store's column naming.
type Row map[string]any

// LocalStore is the durable per-type collection behind the write paths.
type LocalStore[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Upsert(ctx context.Context, record T) error
	Remove(ctx context.Context, id string) error
}

// SnapshotSource yields copies of a whole local collection.
type SnapshotSource interface {
	Snapshot(ctx context.Context, t domain.EntityType) ([]domain.Record, error)
	Count(ctx context.Context, t domain.EntityType) (int, error)
}

// RemoteStore is the row-oriented remote database.
type RemoteStore interface {
	Upsert(ctx context.Context, table string, row Row, conflictKey string) (Row, error)
	Exists(ctx context.Context, table, field string, value any) (bool, error)
	Count(ctx context.Context, table string) (int64, error)
	Name() string
}

// Gate decides whether synchronization may run in this process.
type Gate interface {
	Enabled() bool
	Environment() string
}

// ReportStore keeps the most recent bulk sync report.
type ReportStore interface {
	Save(ctx context.Context, report domain.SyncReport) error
	Latest(ctx context.Context) (*domain.SyncReport, error)
}

// EventSink receives sync outcomes for operators.
type EventSink interface {
	Publish(ctx context.Context, event domain.SyncEvent) error
}

// ChangePublisher accepts committed local writes for background sync.
type ChangePublisher interface {
	Publish(event domain.ChangeEvent) bool
}
