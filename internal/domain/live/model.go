package live

import (
	"context"

	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
)

// Message is pushed on a game's live channel.
type Message struct {
	Game           game.Info               `json:"game"`
	PlayByPlayData []playbyplay.HalfInning `json:"playByPlayData"`
}

type Publisher interface {
	Publish(ctx context.Context, gameID string, msg Message) error
}

// Subscription yields raw channel payloads until Close or ctx cancellation.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, gameID string) (Subscription, error)
}
