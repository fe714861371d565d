package engine

import "fmt"

// CheckConservation verifies that hands, widow, the trick in progress and
// completed tricks hold every card of the deck exactly once.
func (g *GameState) CheckConservation() error {
	var seen [256]uint8
	count := func(c Card) error {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card 0x%02x in play", ErrInconsistentState, uint8(c))
		}
		seen[c]++
		if seen[c] > 1 {
			return fmt.Errorf("%w: %s appears twice", ErrInconsistentState, c)
		}
		return nil
	}

	for p := 0; p < NumPlayers; p++ {
		ps := &g.Players[p]
		for i := uint8(0); i < ps.HandLen; i++ {
			if err := count(ps.Hand[i]); err != nil {
				return err
			}
		}
	}
	for _, c := range g.Widow {
		if c == EmptyCard {
			continue
		}
		if err := count(c); err != nil {
			return err
		}
	}
	for i := uint8(0); i < g.Trick.Count; i++ {
		if err := count(g.Trick.Cards[i]); err != nil {
			return err
		}
	}
	for t := uint8(0); t < g.TricksPlayed; t++ {
		tr := &g.Tricks[t]
		for i := uint8(0); i < tr.Count; i++ {
			if err := count(tr.Cards[i]); err != nil {
				return err
			}
		}
	}

	total := 0
	for suit := uint8(0); suit < NumSuits; suit++ {
		for rank := g.Rules.LowestRank; rank <= RankAce; rank++ {
			c := NewCard(suit, rank)
			if seen[c] != 1 {
				return fmt.Errorf("%w: %s is missing", ErrInconsistentState, c)
			}
			total++
		}
	}
	inPlay := 0
	for _, n := range seen {
		inPlay += int(n)
	}
	if inPlay != total {
		return fmt.Errorf("%w: %d cards in play, deck has %d", ErrInconsistentState, inPlay, total)
	}
	return nil
}

// settle computes the RoundResult after the last trick.
func (g *GameState) settle() error {
	if err := g.CheckConservation(); err != nil {
		g.abort()
		return err
	}
	g.Result = g.computeResult()
	g.Phase = PhaseSettled
	g.CurrentPlayer = NoPlayer
	return nil
}

func (g *GameState) abort() {
	g.Phase = PhaseAborted
	g.CurrentPlayer = NoPlayer
}

// Abort ends the round without a settlement.
func (g *GameState) Abort() {
	if !g.Phase.Terminal() {
		g.abort()
	}
}
