package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/totegamma/loandesk/internal/domain"
)

type mockSyncer struct {
	mu    sync.Mutex
	ones  []string
	manys map[domain.EntityType]int
	done  chan struct{}
}

func newMockSyncer() *mockSyncer {
	return &mockSyncer{manys: map[domain.EntityType]int{}, done: make(chan struct{}, 16)}
}

func (m *mockSyncer) SyncOne(ctx context.Context, t domain.EntityType, record domain.Record) bool {
	m.mu.Lock()
	m.ones = append(m.ones, record.RecordID())
	m.mu.Unlock()
	m.done <- struct{}{}
	return true
}

func (m *mockSyncer) SyncMany(ctx context.Context, t domain.EntityType, records []domain.Record) domain.SyncCounts {
	m.mu.Lock()
	m.manys[t] += len(records)
	m.mu.Unlock()
	m.done <- struct{}{}
	return domain.SyncCounts{Success: len(records)}
}

func waitDone(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
}

func TestDispatcherPublishFull(t *testing.T) {
	d := NewDispatcher(newMockSyncer(), nil, 2)

	ev := domain.ChangeEvent{Type: domain.EntityStaff, Record: domain.Staff{Meta: domain.Meta{ID: "s1"}}}
	if !d.Publish(ev) || !d.Publish(ev) {
		t.Fatalf("expected first two events to be queued")
	}
	if d.Publish(ev) {
		t.Fatalf("expected third event to be dropped")
	}
	if d.Dropped() != 1 || d.Pending() != 2 {
		t.Fatalf("expected 1 dropped and 2 pending, got %d and %d", d.Dropped(), d.Pending())
	}
}

func TestDispatcherRun(t *testing.T) {
	syncer := newMockSyncer()
	source := &mockSource{records: map[domain.EntityType][]domain.Record{
		domain.EntityEnquiry: {testEnquiry("e1", "1"), testEnquiry("e2", "2")},
	}}
	d := NewDispatcher(syncer, source, 8)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- d.Run(ctx) }()

	d.Publish(domain.ChangeEvent{Type: domain.EntityStaff, Record: domain.Staff{Meta: domain.Meta{ID: "s1"}}})
	d.Publish(domain.ChangeEvent{Type: domain.EntityEnquiry})
	d.Publish(domain.ChangeEvent{Type: domain.EntityStaff, Record: domain.Staff{Meta: domain.Meta{ID: "s2"}}})
	waitDone(t, syncer.done, 3)

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("dispatcher did not stop")
	}

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if len(syncer.ones) != 2 || syncer.ones[0] != "s1" || syncer.ones[1] != "s2" {
		t.Fatalf("expected s1 then s2, got %v", syncer.ones)
	}
	if syncer.manys[domain.EntityEnquiry] != 2 {
		t.Fatalf("expected collection event to sync 2 enquiries, got %d", syncer.manys[domain.EntityEnquiry])
	}
}

func TestDispatcherAsPublisher(t *testing.T) {
	syncer := newMockSyncer()
	d := NewDispatcher(syncer, nil, 4)
	uc := NewRecordUsecase[domain.Staff](newMemStore[domain.Staff](), d)

	if _, err := uc.Create(context.Background(), domain.Staff{Email: "a@b.com", Name: "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Pending() != 1 {
		t.Fatalf("expected the write to be queued, got %d pending", d.Pending())
	}
}
