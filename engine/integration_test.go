package engine

import (
	"math/rand/v2"
	"testing"
)

// playRandomAction applies one random legal action for the acting player and,
// now and then, a random insurance setting from a random seat.
func playRandomAction(t *testing.T, g *GameState, rng *rand.Rand) {
	t.Helper()
	if g.InsuranceOpen() && rng.IntN(4) == 0 {
		p := uint8(rng.IntN(NumPlayers))
		if p == g.Bidder() {
			mustUpdate(t, g, p, SettingBidderRequirement, rng.IntN(MaxRequirement+1))
		} else {
			mustUpdate(t, g, p, SettingDefenderOffer, rng.IntN(MaxOffer+1))
		}
	}

	p := g.ActingPlayer()
	var err error
	switch g.DecisionCtx() {
	case CtxBid, CtxFrogUpgrade:
		legal := g.LegalBids(p)
		err = g.PlaceBid(p, legal[rng.IntN(len(legal))])
	case CtxWidowExchange:
		hand := g.Hand(p)
		rng.Shuffle(len(hand), func(i, j int) { hand[i], hand[j] = hand[j], hand[i] })
		var disc [WidowSize]Card
		copy(disc[:], hand)
		err = g.ExchangeWidow(p, disc)
	case CtxTrump:
		err = g.ChooseTrump(p, uint8(rng.IntN(NumSuits)))
	case CtxPlayCard:
		legal := g.LegalPlays(p)
		err = g.PlayCard(p, legal[rng.IntN(len(legal))])
	default:
		t.Fatalf("no action in phase %s", g.Phase)
	}
	if err != nil {
		t.Fatalf("random action in %s: %v", g.Phase, err)
	}
}

func TestIntegrationRandomRoundsTerminate(t *testing.T) {
	for _, lowest := range []uint8{RankSix, RankThree} {
		rules := DefaultHouseRules()
		rules.LowestRank = lowest
		rng := rand.New(rand.NewPCG(uint64(lowest), 99))

		settled, thrownIn := 0, 0
		for seed := uint64(1); seed <= 300; seed++ {
			g := NewGame(seed, rules)
			if err := g.Deal(); err != nil {
				t.Fatalf("Deal: %v", err)
			}
			for steps := 0; !g.IsTerminal(); steps++ {
				if steps > 500 {
					t.Fatalf("seed %d: round did not terminate", seed)
				}
				playRandomAction(t, &g, rng)
				if err := g.CheckConservation(); err != nil {
					t.Fatalf("seed %d: %v", seed, err)
				}
			}

			switch g.Phase {
			case PhaseThrownIn:
				thrownIn++
			case PhaseSettled:
				settled++
				if int(g.TricksPlayed) != rules.HandSize() {
					t.Errorf("seed %d: %d tricks, want %d", seed, g.TricksPlayed, rules.HandSize())
				}
				d := g.Result.Deltas
				if d[0]+d[1]+d[2] != 0 {
					t.Errorf("seed %d: deltas %v not zero-sum", seed, d)
				}
				captured := 0
				for p := 0; p < NumPlayers; p++ {
					captured += g.Players[p].Captured
				}
				if captured+g.WidowPoints() != rules.TotalPoints() {
					t.Errorf("seed %d: %d captured + %d widow != %d", seed, captured, g.WidowPoints(), rules.TotalPoints())
				}
			default:
				t.Fatalf("seed %d: unexpected terminal phase %s", seed, g.Phase)
			}
		}
		if settled == 0 {
			t.Errorf("deck from %s: no round settled (%d thrown in)", RankString(lowest), thrownIn)
		}
	}
}

func TestIntegrationDefaultsAlwaysFinish(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		g := NewGame(seed, DefaultHouseRules())
		if err := g.Deal(); err != nil {
			t.Fatalf("Deal: %v", err)
		}
		for !g.IsTerminal() {
			if err := g.ApplyDefault(); err != nil {
				t.Fatalf("seed %d: ApplyDefault in %s: %v", seed, g.Phase, err)
			}
		}
		if g.Phase != PhaseThrownIn {
			t.Fatalf("seed %d: all-default bidding should throw the round in, got %s", seed, g.Phase)
		}
	}
}
