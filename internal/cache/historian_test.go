package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b8e-0d3a-4b7e-9a55-2f3e4d5c6b7a")
	assert.Equal(t, "sluff:table:6f1c2b8e-0d3a-4b7e-9a55-2f3e4d5c6b7a:actions", HistoryKey(id))
}

func TestPublishActionUnreachable(t *testing.T) {
	h := NewHistorianFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.PublishAction(ctx, ActionRecord{TableID: uuid.New(), ActionIndex: 1, ActionType: "bid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish action 1")
}

func TestRecentNonPositive(t *testing.T) {
	h := NewHistorian("127.0.0.1:1")
	defer h.Close()
	recs, err := h.Recent(context.Background(), uuid.New(), 0)
	assert.NoError(t, err)
	assert.Nil(t, recs)
}

func newTestHistorian(t *testing.T) *Historian {
	t.Helper()
	mr := miniredis.RunT(t)
	h := NewHistorian(mr.Addr())
	t.Cleanup(func() { h.Close() })
	require.NoError(t, h.Ping(context.Background()))
	return h
}

func TestPublishThenRecent(t *testing.T) {
	h := newTestHistorian(t)
	ctx := context.Background()
	table, other := uuid.New(), uuid.New()

	for i := 1; i <= 4; i++ {
		require.NoError(t, h.PublishAction(ctx, ActionRecord{
			TableID:     table,
			ActionIndex: i,
			ActionType:  "bid",
			Payload:     map[string]interface{}{"bid": "pass"},
		}))
	}
	require.NoError(t, h.PublishAction(ctx, ActionRecord{TableID: other, ActionIndex: 1, ActionType: "round_started"}))

	recs, err := h.Recent(ctx, table, 10)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.ActionIndex, "oldest first")
		assert.Equal(t, table, rec.TableID)
	}
	assert.Equal(t, "pass", recs[0].Payload["bid"])

	recs, err = h.Recent(ctx, table, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 3, recs[0].ActionIndex)
	assert.Equal(t, 4, recs[1].ActionIndex)

	recs, err = h.Recent(ctx, uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPublishTrimsHistory(t *testing.T) {
	h := newTestHistorian(t)
	h.limit = 3
	ctx := context.Background()
	table := uuid.New()

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.PublishAction(ctx, ActionRecord{TableID: table, ActionIndex: i, ActionType: "card_played"}))
	}
	n, err := h.rdb.LLen(ctx, HistoryKey(table)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recs, err := h.Recent(ctx, table, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 3, recs[0].ActionIndex)
	assert.Equal(t, 5, recs[2].ActionIndex)
}

func TestDefaultLimit(t *testing.T) {
	h := NewHistorian("127.0.0.1:1")
	defer h.Close()
	assert.Equal(t, int64(DefaultHistoryLimit), h.limit)
}
