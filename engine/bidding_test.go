package engine

import (
	"errors"
	"testing"
)

type pb = struct {
	p   uint8
	bid Bid
}

// bids places a sequence of bids, failing the test on the first error.
func bids(t *testing.T, g *GameState, seq ...pb) {
	t.Helper()
	for _, s := range seq {
		if err := g.PlaceBid(s.p, s.bid); err != nil {
			t.Fatalf("PlaceBid(%d, %s): %v", s.p, s.bid, err)
		}
	}
}

func TestFrogUpgradeReturnsTurnToFrogBidder(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo})

	if g.Phase != PhaseAwaitingFrogUpgrade {
		t.Fatalf("expected PhaseAwaitingFrogUpgrade, got %s", g.Phase)
	}
	if g.ActingPlayer() != 0 {
		t.Fatalf("expected turn back to player 0, got %d", g.ActingPlayer())
	}
	if g.DecisionCtx() != CtxFrogUpgrade {
		t.Errorf("expected CtxFrogUpgrade, got %s", g.DecisionCtx())
	}
	if g.Auction.HighBid != BidSolo || g.Auction.HighBidder != 1 {
		t.Errorf("expected high bid solo by 1, got %s by %d", g.Auction.HighBid, g.Auction.HighBidder)
	}
}

func TestFrogUpgradePassFinalizesOutbidder(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo}, pb{0, BidPass})

	if g.Winner.Player != 1 || g.Winner.Bid != BidSolo {
		t.Fatalf("expected player 1 solo, got %d %s", g.Winner.Player, g.Winner.Bid)
	}
	if g.Phase != PhaseTrumpSelection || g.ActingPlayer() != 1 {
		t.Errorf("expected trump selection by 1, got %s/%d", g.Phase, g.ActingPlayer())
	}
}

func TestFrogUpgradeHeartSoloWins(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo}, pb{0, BidHeartSolo})

	if g.Winner.Player != 0 || g.Winner.Bid != BidHeartSolo {
		t.Fatalf("expected player 0 heart solo, got %d %s", g.Winner.Player, g.Winner.Bid)
	}
	if !g.Winner.TrumpChosen || g.Winner.Trump != SuitHearts {
		t.Errorf("heart solo must fix hearts as trump")
	}
	if g.Phase != PhaseTrickPlay || g.ActingPlayer() != 0 {
		t.Errorf("expected trick play led by 0, got %s/%d", g.Phase, g.ActingPlayer())
	}
}

func TestFrogUpgradeMatchResumesAfterOutbidder(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo}, pb{0, BidSolo})

	if g.Phase != PhaseBidding {
		t.Fatalf("expected bidding to resume, got %s", g.Phase)
	}
	if g.ActingPlayer() != 2 {
		t.Fatalf("expected player 2 after the outbidder, got %d", g.ActingPlayer())
	}
	if g.Auction.HighBidder != 0 || g.Auction.HighBid != BidSolo {
		t.Errorf("expected player 0 to hold solo, got %d %s", g.Auction.HighBidder, g.Auction.HighBid)
	}

	bids(t, &g, pb{2, BidPass})
	if g.ActingPlayer() != 1 {
		t.Fatalf("expected player 1 to answer, got %d", g.ActingPlayer())
	}
	bids(t, &g, pb{1, BidPass})
	if g.Winner.Player != 0 || g.Winner.Bid != BidSolo {
		t.Errorf("expected player 0 solo, got %d %s", g.Winner.Player, g.Winner.Bid)
	}
}

func TestFrogUpgradeBelowHighBidRejected(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo})
	before := g
	if err := g.PlaceBid(0, BidFrog); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction, got %v", err)
	}
	if g != before {
		t.Error("rejected upgrade mutated state")
	}
}

func TestNoUpgradeOnceFrogIsGone(t *testing.T) {
	// Player 1 holds frog and player 2 solos: upgrade window for player 1.
	// After player 1 re-bids solo, a heart solo by player 2 is ordinary.
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidPass}, pb{1, BidFrog}, pb{2, BidSolo})
	if g.Phase != PhaseAwaitingFrogUpgrade || g.ActingPlayer() != 1 {
		t.Fatalf("expected upgrade window for player 1, got %s/%d", g.Phase, g.ActingPlayer())
	}
	bids(t, &g, pb{1, BidSolo})
	if g.ActingPlayer() != 2 {
		t.Fatalf("expected player 2 to act, got %d", g.ActingPlayer())
	}
	bids(t, &g, pb{2, BidHeartSolo})
	if g.Phase != PhaseTrickPlay || g.Winner.Player != 2 {
		t.Errorf("expected player 2 heart solo in trick play, got %s/%d", g.Phase, g.Winner.Player)
	}
}

func TestOrdinaryAuction(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidPass}, pb{2, BidPass})

	if g.Winner.Player != 0 || g.Winner.Bid != BidFrog {
		t.Fatalf("expected player 0 frog, got %d %s", g.Winner.Player, g.Winner.Bid)
	}
	if g.Phase != PhaseWidowExchange {
		t.Fatalf("expected widow exchange, got %s", g.Phase)
	}
	if g.HandLen(0) != 14 {
		t.Errorf("frog winner should hold 14 cards, got %d", g.HandLen(0))
	}
	for i, c := range g.Widow {
		if c != EmptyCard {
			t.Errorf("widow slot %d should be empty during the exchange, got %s", i, c)
		}
	}
	if err := g.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}

func TestSoloSkipsExchange(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidPass}, pb{1, BidSolo}, pb{2, BidPass})
	if g.Phase != PhaseTrumpSelection || g.Winner.Player != 1 {
		t.Fatalf("expected trump selection for 1, got %s/%d", g.Phase, g.Winner.Player)
	}
	if g.HandLen(1) != 11 {
		t.Errorf("solo bidder keeps the dealt hand, got %d cards", g.HandLen(1))
	}
}

func TestHeartSoloEndsAuction(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidPass}, pb{1, BidHeartSolo})
	if g.Phase != PhaseTrickPlay || g.Winner.Bid != BidHeartSolo || g.Winner.Player != 1 {
		t.Fatalf("expected heart solo by 1 in trick play, got %s/%d/%s", g.Phase, g.Winner.Player, g.Winner.Bid)
	}
}

func TestAllPassThrowsIn(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidPass}, pb{1, BidPass})
	if g.ActingPlayer() != 2 {
		t.Fatalf("expected player 2 to act, got %d", g.ActingPlayer())
	}
	bids(t, &g, pb{2, BidPass})
	if g.Phase != PhaseThrownIn {
		t.Fatalf("expected PhaseThrownIn, got %s", g.Phase)
	}
	if g.ActingPlayer() != NoPlayer {
		t.Errorf("nobody should act after a throw-in")
	}
}

func TestBidErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   []pb
		p       uint8
		bid     Bid
		wantErr error
	}{
		{"out of turn", nil, 1, BidFrog, ErrIllegalAction},
		{"not strictly higher", []pb{{0, BidFrog}}, 1, BidFrog, ErrIllegalAction},
		{"lower bid", []pb{{0, BidSolo}}, 1, BidFrog, ErrIllegalAction},
		{"unknown bid", nil, 0, Bid(9), ErrInvalidValue},
		{"after resolution", []pb{{0, BidFrog}, {1, BidPass}, {2, BidPass}}, 0, BidSolo, ErrIllegalAction},
		{"passed player", []pb{{0, BidPass}, {1, BidFrog}, {2, BidSolo}, {1, BidSolo}}, 0, BidHeartSolo, ErrIllegalAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFixedGame(t)
			bids(t, &g, tt.setup...)
			before := g
			err := g.PlaceBid(tt.p, tt.bid)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if g != before {
				t.Error("rejected bid mutated state")
			}
		})
	}
}

func TestLegalBids(t *testing.T) {
	g := newFixedGame(t)
	if got := g.LegalBids(0); len(got) != 4 {
		t.Errorf("opening bidder should have 4 options, got %v", got)
	}
	if got := g.LegalBids(1); got != nil {
		t.Errorf("non-acting player should have none, got %v", got)
	}
	bids(t, &g, pb{0, BidFrog}, pb{1, BidSolo})
	got := g.LegalBids(0)
	want := []Bid{BidPass, BidSolo, BidHeartSolo}
	if len(got) != len(want) {
		t.Fatalf("upgrade options = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("upgrade options = %v, want %v", got, want)
		}
	}
}

func TestExchangeWidow(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidPass}, pb{2, BidPass})

	var bad [WidowSize]Card
	copy(bad[:], mustCards(t, "QS", "KS", "8D"))
	before := g
	if err := g.ExchangeWidow(0, bad); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("discarding an unheld card: expected ErrIllegalAction, got %v", err)
	}
	if g != before {
		t.Fatal("rejected exchange mutated state")
	}

	var dup [WidowSize]Card
	copy(dup[:], mustCards(t, "QS", "QS", "KS"))
	if err := g.ExchangeWidow(0, dup); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("duplicate discard: expected ErrInvalidValue, got %v", err)
	}
	var disc [WidowSize]Card
	copy(disc[:], mustCards(t, "6D", "7D", "QS"))
	if err := g.ExchangeWidow(1, disc); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("non-bidder exchange: expected ErrIllegalAction, got %v", err)
	}

	if err := g.ExchangeWidow(0, disc); err != nil {
		t.Fatalf("ExchangeWidow: %v", err)
	}
	if g.HandLen(0) != 11 || g.Widow != disc {
		t.Errorf("expected 11 cards and discards in the widow, got %d / %v", g.HandLen(0), g.Widow)
	}
	if !g.HasCard(0, mustCards(t, "AS")[0]) {
		t.Error("widow ace should now be in hand")
	}
	if g.Phase != PhaseTrumpSelection {
		t.Fatalf("expected trump selection, got %s", g.Phase)
	}

	if err := g.ChooseTrump(0, 7); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad suit: expected ErrInvalidValue, got %v", err)
	}
	if err := g.ChooseTrump(2, SuitSpades); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("non-bidder trump: expected ErrIllegalAction, got %v", err)
	}
	if err := g.ChooseTrump(0, SuitSpades); err != nil {
		t.Fatalf("ChooseTrump: %v", err)
	}
	if g.Phase != PhaseTrickPlay || g.Winner.Trump != SuitSpades || g.ActingPlayer() != 0 {
		t.Errorf("expected trick play with spades led by 0, got %s/%d/%d", g.Phase, g.Winner.Trump, g.ActingPlayer())
	}
	if err := g.CheckConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}
