package engine

import "fmt"

// ExchangeWidow returns three cards from the Frog winner's hand (which holds
// the widow after the auction). The discards count for the bidder at round end.
func (g *GameState) ExchangeWidow(p uint8, discards [WidowSize]Card) error {
	if g.Phase != PhaseWidowExchange {
		return fmt.Errorf("%w: widow exchange in phase %s", ErrIllegalAction, g.Phase)
	}
	if p != g.Winner.Player {
		return fmt.Errorf("%w: player %d is not the bidder", ErrIllegalAction, p)
	}
	for i, c := range discards {
		if !c.Valid() {
			return fmt.Errorf("%w: discard %d is not a card", ErrInvalidValue, i)
		}
		for j := 0; j < i; j++ {
			if discards[j] == c {
				return fmt.Errorf("%w: %s discarded twice", ErrInvalidValue, c)
			}
		}
		if !g.HasCard(p, c) {
			return fmt.Errorf("%w: %s is not in hand", ErrIllegalAction, c)
		}
	}

	for _, c := range discards {
		g.removeCard(p, c)
	}
	g.Widow = discards
	g.Phase = PhaseTrumpSelection
	return nil
}

// ChooseTrump fixes the trump suit for a Frog or Solo and starts trick play.
func (g *GameState) ChooseTrump(p uint8, suit uint8) error {
	if g.Phase != PhaseTrumpSelection {
		return fmt.Errorf("%w: trump selection in phase %s", ErrIllegalAction, g.Phase)
	}
	if p != g.Winner.Player {
		return fmt.Errorf("%w: player %d is not the bidder", ErrIllegalAction, p)
	}
	if suit >= NumSuits {
		return fmt.Errorf("%w: suit %d", ErrInvalidValue, suit)
	}
	g.Winner.Trump = suit
	g.Winner.TrumpChosen = true
	g.startTrickPlay()
	return nil
}

func (g *GameState) startTrickPlay() {
	g.Phase = PhaseTrickPlay
	g.Trick = Trick{Leader: 0, Winner: NoPlayer}
	g.CurrentPlayer = 0
}

// PlayCard plays c for player p. When the third card lands the trick is
// resolved, insurance is re-evaluated and, after the last trick, the round
// settles. A returned ErrInconsistentState means the round was aborted.
func (g *GameState) PlayCard(p uint8, c Card) error {
	if g.Phase != PhaseTrickPlay {
		return fmt.Errorf("%w: card play in phase %s", ErrIllegalAction, g.Phase)
	}
	if p >= NumPlayers || p != g.CurrentPlayer {
		return fmt.Errorf("%w: player %d played out of turn (current %d)", ErrIllegalAction, p, g.CurrentPlayer)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: not a card", ErrInvalidValue)
	}
	if !g.IsLegalPlay(p, c) {
		return fmt.Errorf("%w: %s is not a legal play", ErrIllegalAction, c)
	}

	t := &g.Trick
	if led, ok := t.LedSuit(); ok && c.Suit() != led {
		g.Players[p].Voids |= 1 << led
	}
	g.removeCard(p, c)
	t.Players[t.Count] = p
	t.Cards[t.Count] = c
	t.Count++

	if t.Count < NumPlayers {
		g.CurrentPlayer = Next(p)
		return nil
	}
	return g.resolveTrick()
}

// resolveTrick credits the completed trick and sets up the next one.
func (g *GameState) resolveTrick() error {
	t := g.Trick
	w := TrickWinner(t.Cards[:t.Count], g.Winner.Trump)
	t.Winner = t.Players[w]
	for i := uint8(0); i < t.Count; i++ {
		t.Points += t.Cards[i].Points()
	}

	if int(g.TricksPlayed) >= MaxTricks {
		g.abort()
		return fmt.Errorf("%w: trick %d exceeds the round", ErrInconsistentState, g.TricksPlayed+1)
	}
	ps := &g.Players[t.Winner]
	ps.Captured += t.Points
	ps.TricksWon++
	g.Tricks[g.TricksPlayed] = t
	g.TricksPlayed++

	g.Trick = Trick{Leader: t.Winner, Winner: NoPlayer}
	g.CurrentPlayer = t.Winner

	g.evaluateInsurance()

	if err := g.CheckConservation(); err != nil {
		g.abort()
		return err
	}

	empty := 0
	for p := 0; p < NumPlayers; p++ {
		if g.Players[p].HandLen == 0 {
			empty++
		}
	}
	switch empty {
	case 0:
		return nil
	case NumPlayers:
		return g.settle()
	default:
		g.abort()
		return fmt.Errorf("%w: uneven hands after trick %d", ErrInconsistentState, g.TricksPlayed)
	}
}

// TrickWinner returns the index into cards of the winning play: any trump
// beats any non-trump, otherwise the highest card of the led suit wins.
func TrickWinner(cards []Card, trump uint8) int {
	best := 0
	for i := 1; i < len(cards); i++ {
		if beats(cards[i], cards[best], trump) {
			best = i
		}
	}
	return best
}

// beats reports whether c outranks the current best card.
func beats(c, best Card, trump uint8) bool {
	if c.Suit() == best.Suit() {
		return c.Rank() > best.Rank()
	}
	return c.Suit() == trump
}
