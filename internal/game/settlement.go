// internal/game/settlement.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
)

// HindsightValue scores one decision against the regime that was not applied.
// savedOrWasted is positive when the applied settlement paid the player more
// than the alternative would have.
func HindsightValue(actual, alternative int) (savedOrWasted, best int) {
	best = actual
	if alternative > best {
		best = alternative
	}
	return actual - alternative, best
}

// recordInsuranceOutcomes completes the round's insurance decisions with the
// realized outcome and hands them to analytics. Assumes lock is held by caller.
func (t *Table) recordInsuranceOutcomes(res engine.RoundResult) {
	if len(t.insuranceLog) == 0 || t.Analytics == nil {
		return
	}
	alt := res.Alternative()
	recs := make([]database.InsuranceDecision, 0, len(t.insuranceLog))
	for _, rec := range t.insuranceLog {
		idx, ok := t.PlayerToEngine[rec.PlayerID]
		if !ok {
			continue
		}
		rec.DealExecuted = res.InsuranceExecuted
		rec.ExecutedTrick = int(res.ExecutedTrick)
		rec.Outcome = res.Deltas[idx]
		rec.Alternative = alt[idx]
		rec.SavedOrWasted, rec.BestInHindsight = HindsightValue(rec.Outcome, rec.Alternative)
		recs = append(recs, rec)
	}
	t.Analytics.RecordInsuranceDecisions(recs)
}

// recordRound hands the round outcome to analytics. Assumes lock is held by caller.
func (t *Table) recordRound(outcome string, deltas map[uuid.UUID]int) {
	if t.Analytics == nil {
		return
	}
	g := &t.Engine
	rec := database.RoundRecord{
		TableID:     t.ID,
		RoundID:     t.RoundID,
		RoundNumber: t.RoundNumber,
		Outcome:     outcome,
		Deltas:      deltas,
		CreatedAt:   time.Now(),
	}
	if b := g.Bidder(); b != engine.NoPlayer {
		rec.Bidder = t.EngineToPlayer[b]
		rec.Bid = g.Winner.Bid.String()
		if g.Winner.TrumpChosen {
			rec.Trump = engine.SuitString(g.Winner.Trump)
		}
	}
	if outcome == OutcomeSettled {
		res := g.Result
		rec.BidderPoints = res.BidderPoints
		rec.Target = res.Target
		rec.Success = res.Success
		rec.InsuranceExecuted = res.InsuranceExecuted
		rec.ExecutedTrick = int(res.ExecutedTrick)
	}
	t.Analytics.RecordRound(rec)
}
