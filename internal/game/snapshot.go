// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
)

// StateWaiting is reported as the phase between rounds.
const StateWaiting = "waiting_for_players"

// SeatView is one seated player as seen by a particular viewer.
type SeatView struct {
	PlayerID   uuid.UUID `json:"playerId"`
	Name       string    `json:"name"`
	IsBot      bool      `json:"isBot"`
	Connected  bool      `json:"connected"`
	Score      int       `json:"score"`
	Dealer     bool      `json:"dealer"`
	SittingOut bool      `json:"sittingOut"`
	Active     bool      `json:"active"` // plays in the current round
	Order      int       `json:"order"`  // turn-order index in the current round, -1 when inactive
	HandSize   int       `json:"handSize"`
	Hand       []string  `json:"hand,omitempty"` // populated for the viewer only
	TricksWon  int       `json:"tricksWon"`
	Captured   int       `json:"captured"`
	LastBid    string    `json:"lastBid,omitempty"`
	Passed     bool      `json:"passed"`
	Offer      int       `json:"offer"`
	Voids      []string  `json:"voids,omitempty"` // suits the player has failed to follow
}

// PlayView is one card in a trick.
type PlayView struct {
	PlayerID uuid.UUID `json:"playerId"`
	Card     string    `json:"card"`
}

// TrickView is a trick in progress or completed.
type TrickView struct {
	Number int        `json:"number"` // 1-based
	Leader uuid.UUID  `json:"leader"`
	Plays  []PlayView `json:"plays"`
	Winner uuid.UUID  `json:"winner,omitempty"`
	Points int        `json:"points"`
}

// InsuranceView is the public side-bet state.
type InsuranceView struct {
	Requirement   int               `json:"requirement"`
	Offers        map[uuid.UUID]int `json:"offers"`
	SumOffers     int               `json:"sumOffers"`
	Executed      bool              `json:"executed"`
	ExecutedTrick int               `json:"executedTrick"`
}

// ResultView is the settlement of the last finished round.
type ResultView struct {
	Outcome           string            `json:"outcome"`
	Bidder            uuid.UUID         `json:"bidder,omitempty"`
	Bid               string            `json:"bid,omitempty"`
	BidderPoints      int               `json:"bidderPoints"`
	Target            int               `json:"target"`
	Success           bool              `json:"success"`
	InsuranceExecuted bool              `json:"insuranceExecuted"`
	Deltas            map[uuid.UUID]int `json:"deltas"`
	Alternative       map[uuid.UUID]int `json:"alternative,omitempty"`
}

// TableSnapshot is the table state rendered for one viewer. Other players'
// hands and the widow are hidden except where the viewer is entitled to them.
type TableSnapshot struct {
	TableID         uuid.UUID      `json:"tableId"`
	RoundID         uuid.UUID      `json:"roundId,omitempty"`
	RoundNumber     int            `json:"roundNumber"`
	InRound         bool           `json:"inRound"`
	Phase           string         `json:"phase"`
	DecisionID      int            `json:"decisionId"`
	DecisionKind    DecisionKind   `json:"decisionKind,omitempty"`
	CurrentPlayerID uuid.UUID      `json:"currentPlayerId,omitempty"`
	DealerID        uuid.UUID      `json:"dealerId,omitempty"`
	SittingOutID    uuid.UUID      `json:"sittingOutId,omitempty"`
	Seats           []SeatView     `json:"seats"`
	HighBid         string         `json:"highBid,omitempty"`
	HighBidderID    uuid.UUID      `json:"highBidderId,omitempty"`
	BidderID        uuid.UUID      `json:"bidderId,omitempty"`
	Bid             string         `json:"bid,omitempty"`
	Trump           string         `json:"trump,omitempty"`
	TricksPlayed    int            `json:"tricksPlayed"`
	CurrentTrick    *TrickView     `json:"currentTrick,omitempty"`
	LastTrick       *TrickView     `json:"lastTrick,omitempty"`
	WidowSize       int            `json:"widowSize"`
	Widow           []string       `json:"widow,omitempty"`
	Insurance       *InsuranceView `json:"insurance,omitempty"`
	LastResult      *ResultView    `json:"lastResult,omitempty"`
}

// Snapshot returns the table state as seen by viewer. uuid.Nil views as a
// spectator.
func (t *Table) Snapshot(viewer uuid.UUID) TableSnapshot {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	return t.snapshotLocked(viewer)
}

// snapshotLocked builds the snapshot. Assumes lock is held by caller.
func (t *Table) snapshotLocked(viewer uuid.UUID) TableSnapshot {
	s := TableSnapshot{
		TableID:      t.ID,
		RoundID:      t.RoundID,
		RoundNumber:  t.RoundNumber,
		InRound:      t.InRound,
		Phase:        StateWaiting,
		DecisionID:   t.DecisionID,
		DealerID:     t.Dealer,
		SittingOutID: t.SittingOut,
		LastResult:   t.lastResult,
	}

	g := &t.Engine
	if t.InRound {
		s.Phase = g.Phase.String()
		if !g.IsTerminal() {
			s.DecisionKind = kindForCtx(g.DecisionCtx())
			s.CurrentPlayerID = t.EngineToPlayer[g.ActingPlayer()]
		}
	}

	for _, id := range t.roster.IDs() {
		p := t.players[id]
		v := SeatView{
			PlayerID:   id,
			Name:       p.Name,
			IsBot:      p.IsBot,
			Connected:  p.Connected,
			Score:      p.Score,
			Dealer:     id == t.Dealer,
			SittingOut: t.InRound && id == t.SittingOut,
			Order:      -1,
		}
		if idx, ok := t.PlayerToEngine[id]; ok && t.InRound {
			ps := &g.Players[idx]
			v.Active = true
			v.Order = int(idx)
			v.HandSize = int(ps.HandLen)
			v.TricksWon = int(ps.TricksWon)
			v.Captured = ps.Captured
			v.Passed = g.Auction.Passed[idx]
			if g.Auction.Placed > 0 && (g.Auction.Passed[idx] || g.Auction.Bids[idx] != engine.BidPass) {
				v.LastBid = g.Auction.Bids[idx].String()
			}
			v.Offer = g.Insurance.Offers[idx]
			for suit := uint8(0); suit < engine.NumSuits; suit++ {
				if g.KnownVoid(idx, suit) {
					v.Voids = append(v.Voids, engine.SuitString(suit))
				}
			}
			if id == viewer {
				v.Hand = cardStrings(g.Hand(idx))
			}
		}
		s.Seats = append(s.Seats, v)
	}

	if !t.InRound {
		return s
	}

	if g.Auction.HighBidder != engine.NoPlayer {
		s.HighBid = g.Auction.HighBid.String()
		s.HighBidderID = t.EngineToPlayer[g.Auction.HighBidder]
	}
	bidder := g.Bidder()
	if bidder != engine.NoPlayer {
		s.BidderID = t.EngineToPlayer[bidder]
		s.Bid = g.Winner.Bid.String()
		if g.Winner.TrumpChosen {
			s.Trump = engine.SuitString(g.Winner.Trump)
		}
		ins := &g.Insurance
		iv := &InsuranceView{
			Requirement:   ins.Requirement,
			Offers:        make(map[uuid.UUID]int, 2),
			SumOffers:     ins.SumOffers(),
			Executed:      ins.Executed,
			ExecutedTrick: int(ins.ExecutedTrick),
		}
		for _, d := range g.Defenders() {
			iv.Offers[t.EngineToPlayer[d]] = ins.Offers[d]
		}
		s.Insurance = iv
	}

	s.TricksPlayed = int(g.TricksPlayed)
	if g.Phase == engine.PhaseTrickPlay {
		s.CurrentTrick = t.trickView(&g.Trick, int(g.TricksPlayed)+1)
	}
	if last, ok := g.LastTrick(); ok {
		s.LastTrick = t.trickView(&last, int(g.TricksPlayed))
	}

	for _, c := range g.Widow {
		if c.Valid() {
			s.WidowSize++
		}
	}
	if t.widowVisibleTo(viewer) {
		s.Widow = cardStrings(g.Widow[:])
	}
	return s
}

// widowVisibleTo reports whether viewer may see the widow: everyone once the
// round has settled, and the Frog bidder once their discards are in it.
// Assumes lock is held by caller.
func (t *Table) widowVisibleTo(viewer uuid.UUID) bool {
	g := &t.Engine
	if g.Phase == engine.PhaseSettled {
		return true
	}
	b := g.Bidder()
	if b == engine.NoPlayer || viewer == uuid.Nil || t.EngineToPlayer[b] != viewer {
		return false
	}
	return g.Winner.Bid == engine.BidFrog && g.Phase != engine.PhaseWidowExchange
}

// trickView renders tr. Assumes lock is held by caller.
func (t *Table) trickView(tr *engine.Trick, number int) *TrickView {
	v := &TrickView{
		Number: number,
		Leader: t.EngineToPlayer[tr.Leader],
		Plays:  make([]PlayView, 0, tr.Count),
		Points: tr.Points,
	}
	for i := uint8(0); i < tr.Count; i++ {
		v.Plays = append(v.Plays, PlayView{PlayerID: t.EngineToPlayer[tr.Players[i]], Card: tr.Cards[i].String()})
	}
	if tr.Winner != engine.NoPlayer {
		v.Winner = t.EngineToPlayer[tr.Winner]
	}
	return v
}
