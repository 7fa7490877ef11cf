package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/loandesk/internal/domain"
)

// Entity is a domain record that can be re-stamped and defaulted by value.
type Entity[T any] interface {
	domain.Record
	RecordMeta() domain.Meta
	WithMeta(m domain.Meta) T
	Normalize() T
}

// RecordUsecase is the write path for one collection. Every committed write
// is handed to the publisher as a value snapshot.
type RecordUsecase[T Entity[T]] struct {
	store     LocalStore[T]
	publisher ChangePublisher
	now       func() time.Time
}

func NewRecordUsecase[T Entity[T]](store LocalStore[T], publisher ChangePublisher) *RecordUsecase[T] {
	return &RecordUsecase[T]{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

func (uc *RecordUsecase[T]) List(ctx context.Context) ([]T, error) {
	return uc.store.List(ctx)
}

func (uc *RecordUsecase[T]) Get(ctx context.Context, id string) (T, error) {
	return uc.store.Get(ctx, id)
}

func (uc *RecordUsecase[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	meta := record.RecordMeta()
	if meta.ID != "" {
		_, err := uc.store.Get(ctx, meta.ID)
		if err == nil {
			return zero, domain.ConflictError{Reason: fmt.Sprintf("%s %s already exists", record.EntityType(), meta.ID)}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return zero, err
		}
	} else {
		meta.ID = NewID()
	}

	now := uc.now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	record = record.WithMeta(meta).Normalize()

	if err := uc.store.Upsert(ctx, record); err != nil {
		return zero, err
	}
	uc.announce(record)
	return record, nil
}

// Update replaces the stored record, keeping its identity and creation time.
func (uc *RecordUsecase[T]) Update(ctx context.Context, id string, record T) (T, error) {
	var zero T

	existing, err := uc.store.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	meta := existing.RecordMeta()
	meta.UpdatedAt = uc.now().UTC()
	record = record.WithMeta(meta).Normalize()

	if err := uc.store.Upsert(ctx, record); err != nil {
		return zero, err
	}
	uc.announce(record)
	return record, nil
}

// Delete removes the local record only. Remote rows are never deleted.
func (uc *RecordUsecase[T]) Delete(ctx context.Context, id string) error {
	if _, err := uc.store.Get(ctx, id); err != nil {
		return err
	}
	return uc.store.Remove(ctx, id)
}

func (uc *RecordUsecase[T]) announce(record T) {
	if uc.publisher == nil {
		return
	}
	if !uc.publisher.Publish(domain.ChangeEvent{Type: record.EntityType(), Record: record}) {
		slog.Warn(
			"sync queue full, change not queued",
			slog.String("type", record.EntityType().String()),
			slog.String("id", record.RecordID()),
			slog.String("module", "dispatch"),
		)
	}
}

// NewID returns a time-ordered identifier for locally created records.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
