package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/rawdata"
	qb "github.com/riskibarqy/mlb-scorecard/internal/platform/querybuilder"
)

const (
	payloadTable    = "game_payloads"
	upsertBatchSize = 100
)

const payloadOnConflict = `ON CONFLICT (source, entity_type, entity_key)
DO UPDATE SET
    game_id = EXCLUDED.game_id,
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    fetched_at = EXCLUDED.fetched_at,
    ingested_at = NOW()
WHERE game_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash
   OR game_payloads.fetched_at < EXCLUDED.fetched_at`

type PayloadRepository struct {
	db *sqlx.DB
}

func NewPayloadRepository(db *sqlx.DB) *PayloadRepository {
	return &PayloadRepository{db: db}
}

func (r *PayloadRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	rows := dedupePayloads(items)
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert game payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(rows); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(rows))
		query, args, err := qb.InsertModels(payloadTable, rows[start:end], payloadOnConflict)
		if err != nil {
			return fmt.Errorf("build upsert game payloads query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert game payloads batch=%d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert game payloads tx: %w", err)
	}
	return nil
}

func (r *PayloadRepository) Latest(ctx context.Context, source, entityType, entityKey string) (rawdata.Payload, bool, error) {
	cols, err := qb.Columns(payloadModel{})
	if err != nil {
		return rawdata.Payload{}, false, err
	}
	query, args, err := qb.Select(cols...).
		From(payloadTable).
		Where(qb.Eq("source", source), qb.Eq("entity_type", entityType), qb.Eq("entity_key", entityKey)).
		Limit(1).
		ToSQL()
	if err != nil {
		return rawdata.Payload{}, false, fmt.Errorf("build latest game payload query: %w", err)
	}

	var row payloadModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rawdata.Payload{}, false, nil
		}
		return rawdata.Payload{}, false, fmt.Errorf("get game payload entity=%s key=%s: %w", entityType, entityKey, err)
	}
	return row.toDomain(), true, nil
}

type payloadModel struct {
	Source      string         `db:"source"`
	EntityType  string         `db:"entity_type"`
	EntityKey   string         `db:"entity_key"`
	GameID      sql.NullString `db:"game_id"`
	Payload     string         `db:"payload"`
	PayloadHash string         `db:"payload_hash"`
	FetchedAt   time.Time      `db:"fetched_at"`
}

func (m payloadModel) toDomain() rawdata.Payload {
	return rawdata.Payload{
		Source:      m.Source,
		EntityType:  m.EntityType,
		EntityKey:   m.EntityKey,
		GameID:      m.GameID.String,
		PayloadJSON: m.Payload,
		PayloadHash: m.PayloadHash,
		FetchedAt:   m.FetchedAt,
	}
}

// dedupePayloads keeps the last item per conflict key, since one statement
// cannot update the same row twice.
func dedupePayloads(items []rawdata.Payload) []any {
	type key struct{ source, entityType, entityKey string }
	index := make(map[key]int, len(items))
	rows := make([]any, 0, len(items))
	for _, item := range items {
		if item.Source == "" || item.EntityType == "" || item.EntityKey == "" {
			continue
		}
		model := payloadModel{
			Source:      item.Source,
			EntityType:  item.EntityType,
			EntityKey:   item.EntityKey,
			GameID:      nullableString(item.GameID),
			Payload:     item.PayloadJSON,
			PayloadHash: item.PayloadHash,
			FetchedAt:   item.FetchedAt.UTC(),
		}
		k := key{item.Source, item.EntityType, item.EntityKey}
		if i, ok := index[k]; ok {
			rows[i] = model
			continue
		}
		index[k] = len(rows)
		rows = append(rows, model)
	}
	return rows
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
