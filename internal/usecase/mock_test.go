package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/totegamma/loandesk/internal/domain"
)

// --- mocks ---

type mockGate struct {
	enabled bool
}

func (g mockGate) Enabled() bool { return g.enabled }
func (g mockGate) Environment() string {
	if g.enabled {
		return "production/render"
	}
	return "development/local"
}

type upsertCall struct {
	Table       string
	ConflictKey string
	Row         Row
}

// mockRemote keeps rows per table keyed by the conflict value.
type mockRemote struct {
	mu         sync.Mutex
	tables     map[string]map[string]Row
	failTables map[string]error
	failAll    error
	uniqueIDs  bool // reject an id already stored under another conflict value
	upserts    []upsertCall
	exists     int
	counts     int
}

func newMockRemote() *mockRemote {
	return &mockRemote{
		tables:     map[string]map[string]Row{},
		failTables: map[string]error{},
	}
}

func (m *mockRemote) Name() string { return "mock" }

func (m *mockRemote) Upsert(ctx context.Context, table string, row Row, conflictKey string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, upsertCall{Table: table, ConflictKey: conflictKey, Row: row})
	if m.failAll != nil {
		return nil, m.failAll
	}
	if err, ok := m.failTables[table]; ok {
		return nil, err
	}
	if m.tables[table] == nil {
		m.tables[table] = map[string]Row{}
	}
	key := fmt.Sprint(row[conflictKey])
	if m.uniqueIDs {
		for k, existing := range m.tables[table] {
			if k != key && existing["id"] == row["id"] {
				return nil, fmt.Errorf("duplicate key value violates unique constraint %q", table+"_pkey")
			}
		}
	}
	m.tables[table][key] = row
	return row, nil
}

func (m *mockRemote) Exists(ctx context.Context, table, field string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists++
	if m.failAll != nil {
		return false, m.failAll
	}
	for _, row := range m.tables[table] {
		if fmt.Sprint(row[field]) == fmt.Sprint(value) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRemote) Count(ctx context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts++
	if m.failAll != nil {
		return 0, m.failAll
	}
	if err, ok := m.failTables[table]; ok {
		return 0, err
	}
	return int64(len(m.tables[table])), nil
}

func (m *mockRemote) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts) + m.exists + m.counts
}

func (m *mockRemote) upsertTables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := make([]string, 0, len(m.upserts))
	for _, c := range m.upserts {
		tables = append(tables, c.Table)
	}
	return tables
}

type mockSource struct {
	records map[domain.EntityType][]domain.Record
	err     map[domain.EntityType]error
}

func (m *mockSource) Snapshot(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	if err := m.err[t]; err != nil {
		return nil, err
	}
	out := make([]domain.Record, len(m.records[t]))
	copy(out, m.records[t])
	return out, nil
}

func (m *mockSource) Count(ctx context.Context, t domain.EntityType) (int, error) {
	if err := m.err[t]; err != nil {
		return 0, err
	}
	return len(m.records[t]), nil
}

type mockReports struct {
	mu    sync.Mutex
	saved []domain.SyncReport
}

func (m *mockReports) Save(ctx context.Context, report domain.SyncReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, report)
	return nil
}

func (m *mockReports) Latest(ctx context.Context) (*domain.SyncReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, domain.NotFoundError{Resource: "sync report"}
	}
	r := m.saved[len(m.saved)-1]
	return &r, nil
}

type mockEvents struct {
	mu     sync.Mutex
	events []domain.SyncEvent
}

func (m *mockEvents) Publish(ctx context.Context, event domain.SyncEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEvents) kinds(kind string) []domain.SyncEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SyncEvent
	for _, e := range m.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	full   bool
}

func (m *mockPublisher) Publish(event domain.ChangeEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.events = append(m.events, event)
	return true
}

// memStore is an in-memory LocalStore.
type memStore[T domain.Record] struct {
	mu    sync.Mutex
	order []string
	items map[string]T
}

func newMemStore[T domain.Record]() *memStore[T] {
	return &memStore[T]{items: map[string]T{}}
}

func (s *memStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *memStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, domain.NotFoundError{Resource: id}
	}
	return v, nil
}

func (s *memStore[T]) Upsert(ctx context.Context, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := record.RecordID()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = record
	return nil
}

func (s *memStore[T]) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
