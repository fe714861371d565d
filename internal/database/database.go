// internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// queueSize bounds the number of pending asynchronous writes.
const queueSize = 256

// writeTimeout bounds a single asynchronous write.
const writeTimeout = 5 * time.Second

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sluff_rounds (
		round_id           TEXT PRIMARY KEY,
		table_id           TEXT NOT NULL,
		round_number       INTEGER NOT NULL,
		outcome            TEXT NOT NULL,
		bidder             TEXT NOT NULL,
		bid                TEXT NOT NULL,
		trump              TEXT NOT NULL,
		bidder_points      INTEGER NOT NULL,
		target             INTEGER NOT NULL,
		success            BOOLEAN NOT NULL,
		insurance_executed BOOLEAN NOT NULL,
		executed_trick     INTEGER NOT NULL,
		deltas             TEXT NOT NULL,
		created_at         BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sluff_rounds_table ON sluff_rounds (table_id)`,
	`CREATE TABLE IF NOT EXISTS sluff_insurance_decisions (
		table_id          TEXT NOT NULL,
		seq               INTEGER NOT NULL,
		round_id          TEXT NOT NULL,
		player_id         TEXT NOT NULL,
		role              TEXT NOT NULL,
		setting           TEXT NOT NULL,
		value             INTEGER NOT NULL,
		bid_multiplier    INTEGER NOT NULL,
		trick_number      INTEGER NOT NULL,
		rationale         TEXT NOT NULL,
		deal_executed     BOOLEAN NOT NULL,
		executed_trick    INTEGER NOT NULL,
		outcome           INTEGER NOT NULL,
		alternative       INTEGER NOT NULL,
		saved_or_wasted   INTEGER NOT NULL,
		best_in_hindsight INTEGER NOT NULL,
		created_at        BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sluff_insurance_round ON sluff_insurance_decisions (round_id)`,
}

// Store persists round results and insurance decisions. Record* methods are
// fire-and-forget: they enqueue the write and return immediately.
type Store struct {
	db     *sql.DB
	driver string
	log    logrus.FieldLogger

	queue     chan func(ctx context.Context) error
	wg        sync.WaitGroup
	mu        sync.RWMutex // guards closed against concurrent enqueues
	closed    bool
	closeOnce sync.Once
}

// NormalizeDriver maps accepted driver aliases onto a registered driver name.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite3", "sqlite":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Open connects, creates the schema and starts the write worker.
func Open(ctx context.Context, driver, dsn string, log logrus.FieldLogger) (*Store, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if name == DriverSQLite {
		// A single connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Store{
		db:     db,
		driver: name,
		log:    log.WithField("component", "database"),
		queue:  make(chan func(ctx context.Context) error, queueSize),
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.wg.Add(1)
	go s.worker()
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := job(ctx); err != nil {
			s.log.WithError(err).Warn("analytics write failed")
		}
		cancel()
	}
}

// enqueue hands job to the worker without blocking. A full queue drops the job.
func (s *Store) enqueue(what string, job func(ctx context.Context) error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.WithField("write", what).Warn("analytics store closed, write dropped")
		return
	}
	select {
	case s.queue <- job:
	default:
		s.log.WithField("write", what).Warn("analytics queue full, write dropped")
	}
}

// Sync blocks until every write enqueued before the call has been attempted.
func (s *Store) Sync(ctx context.Context) error {
	done := make(chan struct{})
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.queue <- func(context.Context) error { close(done); return nil }:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordRound stores rec asynchronously.
func (s *Store) RecordRound(rec RoundRecord) {
	s.enqueue("round", func(ctx context.Context) error {
		return s.InsertRound(ctx, rec)
	})
}

// RecordInsuranceDecisions stores recs asynchronously in one transaction.
func (s *Store) RecordInsuranceDecisions(recs []InsuranceDecision) {
	if len(recs) == 0 {
		return
	}
	cp := make([]InsuranceDecision, len(recs))
	copy(cp, recs)
	s.enqueue("insurance", func(ctx context.Context) error {
		return s.InsertInsuranceDecisions(ctx, cp)
	})
}

// rebind rewrites '?' placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertRound writes rec synchronously.
func (s *Store) InsertRound(ctx context.Context, rec RoundRecord) error {
	deltas := make(map[string]int, len(rec.Deltas))
	for id, d := range rec.Deltas {
		deltas[id.String()] = d
	}
	raw, err := json.Marshal(deltas)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO sluff_rounds
		(round_id, table_id, round_number, outcome, bidder, bid, trump, bidder_points, target,
		 success, insurance_executed, executed_trick, deltas, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.RoundID.String(), rec.TableID.String(), rec.RoundNumber, rec.Outcome,
		rec.Bidder.String(), rec.Bid, rec.Trump, rec.BidderPoints, rec.Target,
		rec.Success, rec.InsuranceExecuted, rec.ExecutedTrick, string(raw), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert round %s: %w", rec.RoundID, err)
	}
	return nil
}

// InsertInsuranceDecisions writes recs synchronously in one transaction.
func (s *Store) InsertInsuranceDecisions(ctx context.Context, recs []InsuranceDecision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO sluff_insurance_decisions
		(table_id, seq, round_id, player_id, role, setting, value, bid_multiplier, trick_number, rationale,
		 deal_executed, executed_trick, outcome, alternative, saved_or_wasted, best_in_hindsight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range recs {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			r.TableID.String(), i, r.RoundID.String(), r.PlayerID.String(), r.Role, r.Setting, r.Value,
			r.BidMultiplier, r.TrickNumber, r.Rationale, r.DealExecuted, r.ExecutedTrick,
			r.Outcome, r.Alternative, r.SavedOrWasted, r.BestInHindsight, r.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert insurance decision: %w", err)
		}
	}
	return tx.Commit()
}

// RoundsForTable returns the stored rounds of a table, oldest first.
func (s *Store) RoundsForTable(ctx context.Context, tableID uuid.UUID) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT round_id, table_id, round_number, outcome, bidder,
		bid, trump, bidder_points, target, success, insurance_executed, executed_trick, deltas, created_at
		FROM sluff_rounds WHERE table_id = ? ORDER BY round_number`), tableID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var (
			rec                         RoundRecord
			roundID, tID, bidder, delta string
			created                     int64
		)
		if err := rows.Scan(&roundID, &tID, &rec.RoundNumber, &rec.Outcome, &bidder, &rec.Bid, &rec.Trump,
			&rec.BidderPoints, &rec.Target, &rec.Success, &rec.InsuranceExecuted, &rec.ExecutedTrick,
			&delta, &created); err != nil {
			return nil, err
		}
		if rec.RoundID, err = uuid.Parse(roundID); err != nil {
			return nil, err
		}
		if rec.TableID, err = uuid.Parse(tID); err != nil {
			return nil, err
		}
		if rec.Bidder, err = uuid.Parse(bidder); err != nil {
			return nil, err
		}
		var raw map[string]int
		if err := json.Unmarshal([]byte(delta), &raw); err != nil {
			return nil, err
		}
		rec.Deltas = make(map[uuid.UUID]int, len(raw))
		for k, v := range raw {
			id, err := uuid.Parse(k)
			if err != nil {
				return nil, err
			}
			rec.Deltas[id] = v
		}
		rec.CreatedAt = time.UnixMilli(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsuranceDecisionsForRound returns the stored insurance decisions of a round
// in insertion order.
func (s *Store) InsuranceDecisionsForRound(ctx context.Context, roundID uuid.UUID) ([]InsuranceDecision, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT table_id, round_id, player_id, role, setting, value,
		bid_multiplier, trick_number, rationale, deal_executed, executed_trick, outcome, alternative,
		saved_or_wasted, best_in_hindsight, created_at
		FROM sluff_insurance_decisions WHERE round_id = ? ORDER BY created_at, seq`), roundID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InsuranceDecision
	for rows.Next() {
		var (
			r             InsuranceDecision
			tID, rID, pID string
			created       int64
		)
		if err := rows.Scan(&tID, &rID, &pID, &r.Role, &r.Setting, &r.Value, &r.BidMultiplier, &r.TrickNumber,
			&r.Rationale, &r.DealExecuted, &r.ExecutedTrick, &r.Outcome, &r.Alternative, &r.SavedOrWasted,
			&r.BestInHindsight, &created); err != nil {
			return nil, err
		}
		if r.TableID, err = uuid.Parse(tID); err != nil {
			return nil, err
		}
		if r.RoundID, err = uuid.Parse(rID); err != nil {
			return nil, err
		}
		if r.PlayerID, err = uuid.Parse(pID); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
