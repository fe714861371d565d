package engine

// RoundResult is computed once when the last trick resolves.
type RoundResult struct {
	Bidder            uint8
	Bid               Bid
	BidderPoints      int // captured in tricks plus the widow
	Target            int
	Success           bool
	InsuranceExecuted bool
	ExecutedTrick     uint8
	TrickDeltas       [NumPlayers]int // trick-based settlement
	InsuranceDeltas   [NumPlayers]int // insurance settlement with the final offers and requirement
	Deltas            [NumPlayers]int // the settlement actually applied
}

// Alternative returns the deltas of the regime that was not applied.
func (r *RoundResult) Alternative() [NumPlayers]int {
	if r.InsuranceExecuted {
		return r.TrickDeltas
	}
	return r.InsuranceDeltas
}

// TrickDeltas returns the trick-based settlement. The stake per defender is
// the bid multiplier times the distance of the bidder's points from half the
// deck, at least one; defenders pay the bidder on success and are paid on
// failure.
func TrickDeltas(bidder uint8, bidderPoints, totalPoints, multiplier int, success bool) [NumPlayers]int {
	margin := bidderPoints - totalPoints/2
	if margin < 0 {
		margin = -margin
	}
	if margin < 1 {
		margin = 1
	}
	amount := margin * multiplier

	var d [NumPlayers]int
	for p := uint8(0); p < NumPlayers; p++ {
		if p == bidder {
			continue
		}
		if success {
			d[p] = -amount
			d[bidder] += amount
		} else {
			d[p] = amount
			d[bidder] -= amount
		}
	}
	return d
}

// BidderPoints returns the bidder's captured points plus the widow.
func (g *GameState) BidderPoints() int {
	if g.Winner.Player == NoPlayer {
		return 0
	}
	return g.Players[g.Winner.Player].Captured + g.WidowPoints()
}

// computeResult combines the trick outcome with the insurance deal.
func (g *GameState) computeResult() RoundResult {
	b := g.Winner.Player
	r := RoundResult{
		Bidder:            b,
		Bid:               g.Winner.Bid,
		BidderPoints:      g.BidderPoints(),
		Target:            g.Rules.Target(g.Winner.Bid),
		InsuranceExecuted: g.Insurance.Executed,
		ExecutedTrick:     g.Insurance.ExecutedTrick,
	}
	r.Success = r.BidderPoints >= r.Target
	r.TrickDeltas = TrickDeltas(b, r.BidderPoints, g.Rules.TotalPoints(), g.Rules.Multiplier(r.Bid), r.Success)
	r.InsuranceDeltas = SettleInsurance(g.Insurance, b, g.Defenders(), r.Success, g.Rules.RemainderPolicy)
	if r.InsuranceExecuted {
		r.Deltas = r.InsuranceDeltas
	} else {
		r.Deltas = r.TrickDeltas
	}
	return r
}
