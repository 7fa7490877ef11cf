package report

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

const latestKey = "sync:report:latest"

// MemoryStore keeps the latest report in process memory.
type MemoryStore struct {
	cache *cache.Cache
}

var _ usecase.ReportStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 15*time.Minute),
	}
}

func (s *MemoryStore) Save(ctx context.Context, report domain.SyncReport) error {
	s.cache.Set(latestKey, report, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context) (*domain.SyncReport, error) {
	v, ok := s.cache.Get(latestKey)
	if !ok {
		return nil, domain.NotFoundError{Resource: "sync report"}
	}
	report := v.(domain.SyncReport)
	return &report, nil
}
