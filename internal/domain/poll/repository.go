package poll

import "context"

type Repository interface {
	// RecordVote counts one vote per username per game; false means the user already voted.
	RecordVote(ctx context.Context, gameID, username string, side Side) (bool, error)
	Tally(ctx context.Context, gameID string) (Tally, error)
}
