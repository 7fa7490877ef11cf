package report

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

// RedisStore shares the latest report between instances.
type RedisStore struct {
	rdb *redis.Client
}

var _ usecase.ReportStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, report domain.SyncReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, latestKey, b, 0).Err()
}

func (s *RedisStore) Latest(ctx context.Context) (*domain.SyncReport, error) {
	b, err := s.rdb.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.NotFoundError{Resource: "sync report"}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sync report")
	}

	var report domain.SyncReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, errors.Wrap(err, "failed to decode sync report")
	}
	return &report, nil
}
