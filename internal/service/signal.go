package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/usecase"
)

// SyncChannel is the redis pub/sub channel carrying sync events.
const SyncChannel = "loandesk:sync"

type SignalService struct {
	rdb *redis.Client
}

var _ usecase.EventSink = (*SignalService)(nil)

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.SyncEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, SyncChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime forwards sync events to output until ctx is done.
func (s *SignalService) Realtime(ctx context.Context, output chan<- domain.SyncEvent) {
	pubsub := s.rdb.Subscribe(ctx, SyncChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.SyncEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "malformed sync event",
					slog.String("error", err.Error()),
					slog.String("module", "stream"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
