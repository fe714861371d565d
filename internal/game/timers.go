// internal/game/timers.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/sirupsen/logrus"
)

// openDecision starts a decision point for the acting player. Bot seats are
// asked through their Decider under the bot timeout; human seats get the
// optional turn timer. Either way the first valid submission or the deadline
// resolves the point, and anything arriving for an older DecisionID is
// ignored. Assumes lock is held by caller.
func (t *Table) openDecision() {
	t.stopDecisionTimer()
	g := &t.Engine
	actor := g.ActingPlayer()
	if actor == engine.NoPlayer {
		return
	}
	t.DecisionID++
	id := t.DecisionID
	pid := t.EngineToPlayer[actor]
	req := t.decisionRequest(pid, actor, kindForCtx(g.DecisionCtx()))

	t.fireEvent(GameEvent{
		Type:    EventDecisionRequired,
		User:    &EventUser{ID: pid},
		Payload: map[string]interface{}{"decisionId": id, "kind": string(req.Kind)},
	})
	private := map[string]interface{}{
		"decisionId": id,
		"kind":       string(req.Kind),
		"hand":       cardStrings(req.Hand),
	}
	if req.LegalBids != nil {
		private["legalBids"] = bidStrings(req.LegalBids)
	}
	if req.LegalCards != nil {
		private["legalCards"] = cardStrings(req.LegalCards)
	}
	t.fireEventToPlayer(pid, GameEvent{Type: EventPrivateDecisionRequired, User: &EventUser{ID: pid}, Payload: private})

	wait := t.Options.TurnDuration
	if d := t.deciders[pid]; d != nil {
		wait = t.Options.BotTimeout
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		t.cancelDecision = cancel
		go t.runDecider(ctx, cancel, d, req)
	}
	if wait > 0 {
		t.decisionTimer = time.AfterFunc(wait, func() {
			t.Mu.Lock()
			defer t.Mu.Unlock()
			t.resolveByDefault(id, engine.ErrTimeout)
		})
	}
}

// stopDecisionTimer cancels the pending timer and bot context. Assumes lock is held by caller.
func (t *Table) stopDecisionTimer() {
	if t.decisionTimer != nil {
		t.decisionTimer.Stop()
		t.decisionTimer = nil
	}
	if t.cancelDecision != nil {
		t.cancelDecision()
		t.cancelDecision = nil
	}
}

// runDecider asks a bot for req and applies the answer if its decision point
// is still open. Runs without the lock.
func (t *Table) runDecider(ctx context.Context, cancel context.CancelFunc, d Decider, req DecisionRequest) {
	defer cancel()
	dec, err := d.Decide(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	t.Mu.Lock()
	defer t.Mu.Unlock()
	if !t.decisionOpen(req) {
		return
	}
	switch {
	case err != nil:
		t.log.WithError(err).WithField("player", req.PlayerID).Info("bot decision failed")
		t.resolveByDefault(req.DecisionID, fmt.Errorf("%w: %v", engine.ErrTimeout, err))
		return
	case dec == nil || !kindMatches(req.Kind, dec.Kind()):
		t.log.WithFields(logrus.Fields{"player": req.PlayerID, "want": req.Kind}).Info("bot answered the wrong decision")
		t.resolveByDefault(req.DecisionID, fmt.Errorf("%w: bot answered %T", engine.ErrInvalidValue, dec))
		return
	}
	if err := t.submit(req.PlayerID, dec); err != nil {
		t.reject(req.PlayerID, req.Kind, err)
		t.resolveByDefault(req.DecisionID, err)
	}
}

// decisionOpen reports whether req still describes the open decision point.
// Assumes lock is held by caller.
func (t *Table) decisionOpen(req DecisionRequest) bool {
	return t.InRound && t.RoundID == req.RoundID && t.DecisionID == req.DecisionID
}

func kindMatches(want, got DecisionKind) bool {
	return want == got || (want == KindFrogUpgrade && got == KindBid)
}

// resolveByDefault applies the default decision for decision point id if it
// is still open. Assumes lock is held by caller.
func (t *Table) resolveByDefault(id int, cause error) {
	if !t.InRound || t.DecisionID != id {
		return
	}
	g := &t.Engine
	actor := g.ActingPlayer()
	if actor == engine.NoPlayer {
		return
	}
	pid := t.EngineToPlayer[actor]
	dec, err := t.defaultDecision(actor)
	if err != nil {
		t.abortRound("no_default_action")
		return
	}
	t.log.WithError(cause).WithFields(logrus.Fields{"player": pid, "decision": id, "kind": dec.Kind()}).Info("applying default decision")
	t.logAction(pid, "default_decision", map[string]interface{}{"decisionId": id, "cause": cause.Error()})
	if err := t.submit(pid, dec); err != nil {
		t.log.WithError(err).Error("default decision rejected")
		t.abortRound("default_rejected")
	}
}

// defaultDecision returns the fallback for the acting player: Pass, the three
// lowest cards, the longest suit, or the first legal card. Assumes lock is
// held by caller.
func (t *Table) defaultDecision(actor uint8) (Decision, error) {
	g := &t.Engine
	const why = "default"
	switch g.DecisionCtx() {
	case engine.CtxBid, engine.CtxFrogUpgrade:
		return BidDecision{Bid: engine.BidPass, Rationale: why}, nil
	case engine.CtxWidowExchange:
		return WidowDecision{Discards: g.DefaultDiscards(actor), Rationale: why}, nil
	case engine.CtxTrump:
		return TrumpDecision{Suit: g.DefaultTrump(actor), Rationale: why}, nil
	case engine.CtxPlayCard:
		c, ok := g.DefaultCard(actor)
		if !ok {
			return nil, fmt.Errorf("%w: no legal card for player %d", engine.ErrInconsistentState, actor)
		}
		return CardDecision{Card: c, Rationale: why}, nil
	}
	return nil, fmt.Errorf("%w: no decision in phase %s", engine.ErrIllegalAction, g.Phase)
}

// decisionRequest assembles what a decider sees. Assumes lock is held by caller.
func (t *Table) decisionRequest(pid uuid.UUID, idx uint8, kind DecisionKind) DecisionRequest {
	g := &t.Engine
	req := DecisionRequest{
		TableID:    t.ID,
		RoundID:    t.RoundID,
		PlayerID:   pid,
		DecisionID: t.DecisionID,
		Kind:       kind,
		Role:       t.roleOf(idx),
		Hand:       g.Hand(idx),
		Snapshot:   t.snapshotLocked(pid),
	}
	switch kind {
	case KindBid, KindFrogUpgrade:
		req.LegalBids = g.LegalBids(idx)
	case KindCard:
		req.LegalCards = g.LegalPlays(idx)
	}
	return req
}

// pollBotInsurance asks every bot seat for an insurance setting. Answers are
// applied only if no trick has resolved since the poll; a timeout leaves the
// setting unchanged. Assumes lock is held by caller.
func (t *Table) pollBotInsurance() {
	g := &t.Engine
	t.insuranceGen++
	if g.Insurance.Executed || !g.InsuranceOpen() {
		return
	}
	gen := t.insuranceGen
	for idx := uint8(0); idx < engine.NumPlayers; idx++ {
		pid := t.EngineToPlayer[idx]
		d := t.deciders[pid]
		if d == nil {
			continue
		}
		req := t.decisionRequest(pid, idx, KindInsurance)
		ctx, cancel := context.WithTimeout(context.Background(), t.Options.BotTimeout)
		go func() {
			defer cancel()
			dec, err := d.Decide(ctx, req)
			if err != nil || dec == nil || ctx.Err() != nil {
				return
			}
			ins, ok := dec.(InsuranceDecision)
			if !ok {
				return
			}
			t.Mu.Lock()
			defer t.Mu.Unlock()
			if !t.InRound || t.RoundID != req.RoundID || t.insuranceGen != gen {
				return
			}
			if _, err := t.submitInsurance(req.PlayerID, ins); err != nil {
				t.log.WithError(err).WithField("player", req.PlayerID).Debug("bot insurance rejected")
			}
		}()
	}
}
