package engine

// DecisionCtx returns the kind of decision the acting player faces.
func (g *GameState) DecisionCtx() DecisionContext {
	switch g.Phase {
	case PhaseBidding:
		return CtxBid
	case PhaseAwaitingFrogUpgrade:
		return CtxFrogUpgrade
	case PhaseWidowExchange:
		return CtxWidowExchange
	case PhaseTrumpSelection:
		return CtxTrump
	case PhaseTrickPlay:
		return CtxPlayCard
	default:
		return CtxTerminal
	}
}

// ActingPlayer returns the player who must act next, or NoPlayer when the
// round is not waiting on anyone.
func (g *GameState) ActingPlayer() uint8 {
	if g.Phase == PhaseDealing || g.Phase.Terminal() {
		return NoPlayer
	}
	return g.CurrentPlayer
}

// LegalBids returns the bids player p may place right now, or nil when it is
// not p's turn to bid.
func (g *GameState) LegalBids(p uint8) []Bid {
	if p != g.ActingPlayer() {
		return nil
	}
	switch g.Phase {
	case PhaseBidding:
		out := []Bid{BidPass}
		for b := g.Auction.HighBid + 1; b < numBids; b++ {
			out = append(out, b)
		}
		return out
	case PhaseAwaitingFrogUpgrade:
		out := []Bid{BidPass}
		for b := g.Auction.HighBid; b < numBids; b++ {
			out = append(out, b)
		}
		return out
	}
	return nil
}

// LegalPlays returns the cards p may play into the current trick, in hand
// order. A player holding the led suit must follow it; a void player or the
// trick leader may play anything. Returns nil outside trick play.
func (g *GameState) LegalPlays(p uint8) []Card {
	if g.Phase != PhaseTrickPlay || p >= NumPlayers {
		return nil
	}
	hand := g.Hand(p)
	led, ok := g.Trick.LedSuit()
	if !ok {
		return hand
	}
	follow := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit() == led {
			follow = append(follow, c)
		}
	}
	if len(follow) == 0 {
		return hand
	}
	return follow
}

// IsLegalPlay reports whether c is in p's legal-play set.
func (g *GameState) IsLegalPlay(p uint8, c Card) bool {
	for _, l := range g.LegalPlays(p) {
		if l == c {
			return true
		}
	}
	return false
}
