package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNormalizeDriver(t *testing.T) {
	for in, want := range map[string]string{
		"pgx": DriverPostgres, "postgres": DriverPostgres, "PostgreSQL": DriverPostgres,
		"sqlite": DriverSQLite, "sqlite3": DriverSQLite,
	} {
		got, err := NormalizeDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeDriver("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT $1, $2 WHERE x = $3", pg.rebind("SELECT ?, ? WHERE x = ?"))
	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestInsertAndQueryRound(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	table := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	for i := 1; i <= 2; i++ {
		rec := RoundRecord{
			TableID:      table,
			RoundID:      uuid.New(),
			RoundNumber:  i,
			Outcome:      "settled",
			Bidder:       a,
			Bid:          "solo",
			Trump:        "S",
			BidderPoints: 50,
			Target:       41,
			Success:      true,
			Deltas:       map[uuid.UUID]int{a: 20, b: -10, c: -10},
			CreatedAt:    time.UnixMilli(int64(1000 * i)),
		}
		require.NoError(t, s.InsertRound(ctx, rec))
	}
	require.NoError(t, s.InsertRound(ctx, RoundRecord{TableID: uuid.New(), RoundID: uuid.New(), Outcome: "thrown_in"}))

	rounds, err := s.RoundsForTable(ctx, table)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].RoundNumber)
	assert.Equal(t, 2, rounds[1].RoundNumber)
	assert.Equal(t, a, rounds[0].Bidder)
	assert.True(t, rounds[0].Success)
	assert.False(t, rounds[0].InsuranceExecuted)
	assert.Equal(t, map[uuid.UUID]int{a: 20, b: -10, c: -10}, rounds[0].Deltas)
	assert.Equal(t, int64(1000), rounds[0].CreatedAt.UnixMilli())
}

func TestRecordInsuranceDecisionsAsync(t *testing.T) {
	s := openMemory(t)
	round := uuid.New()
	player := uuid.New()

	recs := []InsuranceDecision{
		{TableID: uuid.New(), RoundID: round, PlayerID: player, Role: "bidder", Setting: "requirement",
			Value: 180, BidMultiplier: 2, TrickNumber: 0, DealExecuted: true, ExecutedTrick: 1,
			Outcome: 180, Alternative: 240, SavedOrWasted: -60, BestInHindsight: 240},
		{TableID: uuid.New(), RoundID: round, PlayerID: player, Role: "bidder", Setting: "requirement",
			Value: 120, BidMultiplier: 2, TrickNumber: 1, Rationale: "late"},
	}
	s.RecordInsuranceDecisions(recs)
	s.RecordInsuranceDecisions(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Sync(ctx))

	got, err := s.InsuranceDecisionsForRound(ctx, round)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 180, got[0].Value)
	assert.True(t, got[0].DealExecuted)
	assert.Equal(t, -60, got[0].SavedOrWasted)
	assert.Equal(t, 240, got[0].BestInHindsight)
	assert.Equal(t, 120, got[1].Value)
	assert.Equal(t, "late", got[1].Rationale)
	assert.Equal(t, player, got[1].PlayerID)
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	s, err := Open(context.Background(), "sqlite3", ":memory:", quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.NotPanics(t, func() {
		s.RecordRound(RoundRecord{RoundID: uuid.New()})
	})
	assert.NoError(t, s.Sync(context.Background()))
}
