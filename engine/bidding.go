package engine

import "fmt"

// PlaceBid applies bid for player p.
//
// During PhaseBidding the bid must be Pass or strictly above the current high
// bid. A Solo or Heart Solo over a standing Frog opens PhaseAwaitingFrogUpgrade
// and hands the turn back to the Frog bidder, who may pass (the outbidder wins
// at once) or bid at or above the new high bid (the rotation resumes after the
// outbidder).
func (g *GameState) PlaceBid(p uint8, bid Bid) error {
	if g.Phase != PhaseBidding && g.Phase != PhaseAwaitingFrogUpgrade {
		return fmt.Errorf("%w: bid in phase %s", ErrIllegalAction, g.Phase)
	}
	if p >= NumPlayers || p != g.CurrentPlayer {
		return fmt.Errorf("%w: player %d bid out of turn (current %d)", ErrIllegalAction, p, g.CurrentPlayer)
	}
	if !bid.Valid() {
		return fmt.Errorf("%w: bid %d", ErrInvalidValue, uint8(bid))
	}
	if g.Phase == PhaseAwaitingFrogUpgrade {
		return g.placeUpgradeBid(p, bid)
	}

	a := &g.Auction
	if bid != BidPass && bid <= a.HighBid {
		return fmt.Errorf("%w: %s does not beat %s", ErrIllegalAction, bid, a.HighBid)
	}

	a.Bids[p] = bid
	a.Placed++
	if bid == BidPass {
		a.Passed[p] = true
		g.advanceAuction(p)
		return nil
	}

	frogOutbid := a.HighBid == BidFrog && a.HighBidder != NoPlayer && a.HighBidder != p &&
		!a.Passed[a.HighBidder] && (bid == BidSolo || bid == BidHeartSolo)
	if frogOutbid {
		a.FrogBidder = a.HighBidder
		a.Outbidder = p
		a.HighBid = bid
		a.HighBidder = p
		g.Phase = PhaseAwaitingFrogUpgrade
		g.CurrentPlayer = a.FrogBidder
		return nil
	}

	a.HighBid = bid
	a.HighBidder = p
	if bid == BidHeartSolo {
		g.finishAuction()
		return nil
	}
	g.advanceAuction(p)
	return nil
}

// placeUpgradeBid handles the outbid Frog bidder's answer.
func (g *GameState) placeUpgradeBid(p uint8, bid Bid) error {
	a := &g.Auction
	if bid != BidPass && bid < a.HighBid {
		return fmt.Errorf("%w: frog upgrade %s is below %s", ErrIllegalAction, bid, a.HighBid)
	}

	a.Bids[p] = bid
	a.Placed++
	outbidder := a.Outbidder
	a.FrogBidder = NoPlayer
	a.Outbidder = NoPlayer
	g.Phase = PhaseBidding

	if bid == BidPass {
		a.Passed[p] = true
		g.finishAuction()
		return nil
	}

	a.HighBid = bid
	a.HighBidder = p
	if bid == BidHeartSolo {
		g.finishAuction()
		return nil
	}
	g.advanceAuction(outbidder)
	return nil
}

// advanceAuction moves the turn to the next player after `from` who has not
// passed and does not hold the high bid, or resolves the auction when no such
// player remains.
func (g *GameState) advanceAuction(from uint8) {
	a := &g.Auction
	p := from
	for i := 0; i < NumPlayers; i++ {
		p = Next(p)
		if !a.Passed[p] && p != a.HighBidder {
			g.CurrentPlayer = p
			return
		}
	}
	if a.HighBidder == NoPlayer {
		g.Phase = PhaseThrownIn
		g.CurrentPlayer = NoPlayer
		return
	}
	g.finishAuction()
}

// finishAuction fixes the bid winner and moves to the exchange, trump
// selection or straight to trick play for Heart Solo.
func (g *GameState) finishAuction() {
	a := &g.Auction
	g.Winner = BidWinnerInfo{Player: a.HighBidder, Bid: a.HighBid}
	g.CurrentPlayer = a.HighBidder

	switch a.HighBid {
	case BidFrog:
		ps := &g.Players[a.HighBidder]
		for i, c := range g.Widow {
			ps.Hand[ps.HandLen] = c
			ps.HandLen++
			g.Widow[i] = EmptyCard
		}
		g.Phase = PhaseWidowExchange
	case BidSolo:
		g.Phase = PhaseTrumpSelection
	case BidHeartSolo:
		g.Winner.Trump = SuitHearts
		g.Winner.TrumpChosen = true
		g.startTrickPlay()
	}
}
