package localstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"

	"github.com/totegamma/loandesk/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore[domain.Enquiry](dir, domain.EntityEnquiry)
	ctx := context.Background()

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d", len(items))
	}

	e1 := domain.Enquiry{Meta: domain.Meta{ID: "e1"}, Name: "A", Mobile: "9876543210", LoanAmount: decimal.NewFromInt(100)}
	e2 := domain.Enquiry{Meta: domain.Meta{ID: "e2"}, Name: "B", Mobile: "9000000000"}
	if err := store.Upsert(ctx, e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Upsert(ctx, e2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e1.Name = "A2"
	if err := store.Upsert(ctx, e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err = store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].Name != "A2" || items[1].ID != "e2" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !items[0].LoanAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected loan amount to survive, got %s", items[0].LoanAmount)
	}

	got, err := store.Get(ctx, "e2")
	if err != nil || got.Mobile != "9000000000" {
		t.Fatalf("unexpected get result: %+v (%v)", got, err)
	}

	if err := store.Remove(ctx, "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Remove(ctx, "e1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}

	// a fresh store sees the same file
	reopened := NewFileStore[domain.Enquiry](dir, domain.EntityEnquiry)
	n, err := reopened.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 persisted record, got %d (%v)", n, err)
	}
}

func TestFileStoreListIsCopy(t *testing.T) {
	store := NewFileStore[domain.Staff](t.TempDir(), domain.EntityStaff)
	ctx := context.Background()
	if err := store.Upsert(ctx, domain.Staff{Meta: domain.Meta{ID: "s1"}, Email: "a@b.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, _ := store.List(ctx)
	items[0].Email = "mutated@b.com"

	again, _ := store.Get(ctx, "s1")
	if again.Email != "a@b.com" {
		t.Fatalf("expected store to be unaffected, got %s", again.Email)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore[domain.Staff](dir, domain.EntityStaff)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := store.List(context.Background()); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestFileStoreConcurrentUpserts(t *testing.T) {
	store := NewFileStore[domain.Transaction](t.TempDir(), domain.EntityTransaction)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := store.Upsert(ctx, domain.Transaction{Meta: domain.Meta{ID: id}, TransactionID: id}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	if err != nil || n != 20 {
		t.Fatalf("expected 20 records, got %d (%v)", n, err)
	}
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	ctx := context.Background()

	if err := reg.Staff.Upsert(ctx, domain.Staff{Meta: domain.Meta{ID: "s1"}, Email: "a@b.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := reg.Snapshot(ctx, domain.EntityStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].RecordID() != "s1" || records[0].EntityType() != domain.EntityStaff {
		t.Fatalf("unexpected snapshot: %+v", records)
	}

	n, err := reg.Count(ctx, domain.EntityEnquiry)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 enquiries, got %d (%v)", n, err)
	}

	if _, err := reg.Snapshot(ctx, domain.EntityType("invoice")); !errors.Is(err, domain.ErrUnknownEntityType) {
		t.Fatalf("expected ErrUnknownEntityType, got %v", err)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *recordingPublisher) Publish(event domain.ChangeEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return true
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestWatcherIgnoresSelfWrites(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	pub := &recordingPublisher{}
	w, err := NewWatcher(reg, pub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.watcher.Close()

	ctx := context.Background()
	if err := reg.Staff.Upsert(ctx, domain.Staff{Meta: domain.Meta{ID: "s1"}, Email: "a@b.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w.handle(ctx, fsnotify.Event{Name: reg.Staff.Path(), Op: fsnotify.Create})
	if pub.count() != 0 {
		t.Fatalf("expected self write to be ignored, got %d events", pub.count())
	}
}

func TestWatcherPublishesExternalEdits(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	pub := &recordingPublisher{}
	w, err := NewWatcher(reg, pub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	external := `[{"id":"e9","name":"Imported","mobile":"9111111111","loanAmount":"0"}]`
	if err := os.WriteFile(filepath.Join(reg.Dir(), "enquiry.json"), []byte(external), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for pub.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected a collection change event")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	pub.mu.Lock()
	defer pub.mu.Unlock()
	ev := pub.events[0]
	if ev.Type != domain.EntityEnquiry || ev.Record != nil {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
