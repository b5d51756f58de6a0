package rawdata

import "time"

// Payload is one provider response kept for audit and replay.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	GameID      string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
