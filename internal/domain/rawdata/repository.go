package rawdata

import "context"

// Repository upserts payloads keyed by (Source, EntityType, EntityKey).
type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
	// Latest returns the last archived payload for the key, if any.
	Latest(ctx context.Context, source, entityType, entityKey string) (Payload, bool, error)
}
