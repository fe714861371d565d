package engine

import "sort"

// ---------------------------------------------------------------------------
// Default actions, applied when a decision times out
// ---------------------------------------------------------------------------

// DefaultDiscards picks the three lowest cards from p's hand: fewest points
// first, then lowest rank, then hand order.
func (g *GameState) DefaultDiscards(p uint8) [WidowSize]Card {
	hand := g.Hand(p)
	sort.SliceStable(hand, func(i, j int) bool {
		if hand[i].Points() != hand[j].Points() {
			return hand[i].Points() < hand[j].Points()
		}
		return hand[i].Rank() < hand[j].Rank()
	})
	out := [WidowSize]Card{EmptyCard, EmptyCard, EmptyCard}
	copy(out[:], hand)
	return out
}

// DefaultTrump picks the suit p holds most of; ties go to the suit with more
// card points, then to the lower suit index.
func (g *GameState) DefaultTrump(p uint8) uint8 {
	var n, pts [NumSuits]int
	ps := &g.Players[p]
	for i := uint8(0); i < ps.HandLen; i++ {
		c := ps.Hand[i]
		n[c.Suit()]++
		pts[c.Suit()] += c.Points()
	}
	best := uint8(0)
	for s := uint8(1); s < NumSuits; s++ {
		if n[s] > n[best] || (n[s] == n[best] && pts[s] > pts[best]) {
			best = s
		}
	}
	return best
}

// DefaultCard returns the first legal card in hand order.
func (g *GameState) DefaultCard(p uint8) (Card, bool) {
	legal := g.LegalPlays(p)
	if len(legal) == 0 {
		return EmptyCard, false
	}
	return legal[0], true
}

// ApplyDefault applies the default action for the acting player: Pass while
// bidding or answering a frog upgrade, the three lowest discards, the longest
// suit as trump, or the first legal card.
func (g *GameState) ApplyDefault() error {
	p := g.ActingPlayer()
	if p == NoPlayer {
		return ErrIllegalAction
	}
	switch g.DecisionCtx() {
	case CtxBid, CtxFrogUpgrade:
		return g.PlaceBid(p, BidPass)
	case CtxWidowExchange:
		return g.ExchangeWidow(p, g.DefaultDiscards(p))
	case CtxTrump:
		return g.ChooseTrump(p, g.DefaultTrump(p))
	case CtxPlayCard:
		c, ok := g.DefaultCard(p)
		if !ok {
			return ErrInconsistentState
		}
		return g.PlayCard(p, c)
	}
	return ErrIllegalAction
}
