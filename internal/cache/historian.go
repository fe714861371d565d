// internal/cache/historian.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultHistoryLimit caps the number of actions kept per table.
const DefaultHistoryLimit = 5000

// ActionRecord is one accepted table action in publish order.
type ActionRecord struct {
	TableID     uuid.UUID              `json:"tableId"`
	RoundID     uuid.UUID              `json:"roundId"`
	ActionIndex int                    `json:"actionIndex"`
	ActorID     uuid.UUID              `json:"actorId"` // uuid.Nil for table-driven events
	ActionType  string                 `json:"actionType"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"` // unix millis
}

// Historian appends action records to a Redis list per table.
type Historian struct {
	rdb   *redis.Client
	limit int64
}

// NewHistorian connects to addr lazily; the first publish dials.
func NewHistorian(addr string) *Historian {
	return NewHistorianFromClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewHistorianFromClient wraps an existing client.
func NewHistorianFromClient(rdb *redis.Client) *Historian {
	return &Historian{rdb: rdb, limit: DefaultHistoryLimit}
}

// HistoryKey returns the Redis list key for a table's actions.
func HistoryKey(tableID uuid.UUID) string {
	return fmt.Sprintf("sluff:table:%s:actions", tableID)
}

// Ping checks the connection.
func (h *Historian) Ping(ctx context.Context) error {
	return h.rdb.Ping(ctx).Err()
}

// PublishAction appends rec to its table's history and trims the list.
func (h *Historian) PublishAction(ctx context.Context, rec ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action %d: %w", rec.ActionIndex, err)
	}
	key := HistoryKey(rec.TableID)
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -h.limit, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish action %d: %w", rec.ActionIndex, err)
	}
	return nil
}

// Recent returns up to n of the table's latest actions, oldest first.
func (h *Historian) Recent(ctx context.Context, tableID uuid.UUID, n int64) ([]ActionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := h.rdb.LRange(ctx, HistoryKey(tableID), -n, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ActionRecord, 0, len(raw))
	for _, s := range raw {
		var rec ActionRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode action: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the client.
func (h *Historian) Close() error {
	return h.rdb.Close()
}
