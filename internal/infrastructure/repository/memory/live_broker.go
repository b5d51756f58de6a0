package memory

import (
	"context"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
)

// LiveBroker is an in-process channel fan-out. Slow subscribers drop messages.
type LiveBroker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

func NewLiveBroker(buffer int) *LiveBroker {
	if buffer < 1 {
		buffer = 16
	}
	return &LiveBroker{subs: make(map[string]map[*subscription]struct{}), buffer: buffer}
}

func (b *LiveBroker) Publish(_ context.Context, gameID string, msg live.Message) error {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	return b.PublishRaw(gameID, payload)
}

// PublishRaw delivers payload as-is.
func (b *LiveBroker) PublishRaw(gameID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[gameID] {
		select {
		case sub.ch <- payload:
		default:
		}
	}
	return nil
}

func (b *LiveBroker) Subscribe(_ context.Context, gameID string) (live.Subscription, error) {
	sub := &subscription{ch: make(chan []byte, b.buffer)}
	sub.close = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[gameID]; ok {
			if _, ok := set[sub]; ok {
				delete(set, sub)
				close(sub.ch)
			}
		}
	}

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[*subscription]struct{})
	}
	b.subs[gameID][sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

// Subscribers reports how many subscriptions are open for a game.
func (b *LiveBroker) Subscribers(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[gameID])
}

type subscription struct {
	ch    chan []byte
	once  sync.Once
	close func()
}

func (s *subscription) Messages() <-chan []byte { return s.ch }

func (s *subscription) Close() error {
	s.once.Do(s.close)
	return nil
}
