package redisstore

import (
	"context"
	"fmt"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
)

// LivePubSub fans live messages out over redis pub/sub so every API instance
// can serve websocket followers.
type LivePubSub struct {
	client *redis.Client
	buffer int
}

func NewLivePubSub(client *redis.Client, buffer int) *LivePubSub {
	if buffer < 1 {
		buffer = 16
	}
	return &LivePubSub{client: client, buffer: buffer}
}

func (p *LivePubSub) Publish(ctx context.Context, gameID string, msg live.Message) error {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode live message game_id=%s: %w", gameID, err)
	}
	if err := p.client.Publish(ctx, liveChannel(gameID), payload).Err(); err != nil {
		return fmt.Errorf("publish live message game_id=%s: %w", gameID, err)
	}
	return nil
}

func (p *LivePubSub) Subscribe(ctx context.Context, gameID string) (live.Subscription, error) {
	ps := p.client.Subscribe(ctx, liveChannel(gameID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe live channel game_id=%s: %w", gameID, err)
	}

	sub := &pubsubSubscription{ps: ps, ch: make(chan []byte, p.buffer), done: make(chan struct{})}
	go sub.pump()
	return sub, nil
}

type pubsubSubscription struct {
	ps   *redis.PubSub
	ch   chan []byte
	done chan struct{}
	once sync.Once
	err  error
}

func (s *pubsubSubscription) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		select {
		case s.ch <- []byte(msg.Payload):
		case <-s.done:
			return
		default:
		}
	}
}

func (s *pubsubSubscription) Messages() <-chan []byte { return s.ch }

func (s *pubsubSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
	})
	return s.err
}
