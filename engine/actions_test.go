package engine

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// trickPlayGame returns the fixed deal in trick play after a heart solo by player 0.
func trickPlayGame(t *testing.T) GameState {
	t.Helper()
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidHeartSolo})
	if g.Phase != PhaseTrickPlay {
		t.Fatalf("expected trick play, got %s", g.Phase)
	}
	return g
}

func TestLegalPlaysFollowSuit(t *testing.T) {
	g := GameState{Phase: PhaseTrickPlay, Rules: DefaultHouseRules()}
	g.Winner = BidWinnerInfo{Player: 0, Bid: BidSolo, Trump: SuitSpades, TrumpChosen: true}
	g.Trick = Trick{Leader: 0, Winner: NoPlayer, Count: 1}
	g.Trick.Cards[0] = mustCards(t, "9H")[0]
	g.CurrentPlayer = 1

	hand := mustCards(t, "KH", "QH", "6S")
	copy(g.Players[1].Hand[:], hand)
	g.Players[1].HandLen = uint8(len(hand))

	got := g.LegalPlays(1)
	want := mustCards(t, "KH", "QH")
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("LegalPlays = %v, want %v", got, want)
	}

	void := mustCards(t, "6S", "7C")
	copy(g.Players[1].Hand[:], void)
	g.Players[1].HandLen = uint8(len(void))
	got = g.LegalPlays(1)
	if len(got) != 2 {
		t.Fatalf("void player should have the full hand, got %v", got)
	}
}

func TestLegalPlaysLeaderAnything(t *testing.T) {
	g := trickPlayGame(t)
	if got := g.LegalPlays(0); len(got) != 11 {
		t.Errorf("leader should have the whole hand, got %d", len(got))
	}
	if got := g.LegalPlays(1); len(got) != 11 {
		t.Errorf("before a lead every card is legal, got %d", len(got))
	}
	bidding := newFixedGame(t)
	if got := bidding.LegalPlays(0); got != nil {
		t.Errorf("no legal plays outside trick play, got %v", got)
	}
}

func TestPlayCardErrors(t *testing.T) {
	g := trickPlayGame(t)
	ah := mustCards(t, "AH")[0]

	before := g
	if err := g.PlayCard(1, mustCards(t, "8D")[0]); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("out of turn: expected ErrIllegalAction, got %v", err)
	}
	if err := g.PlayCard(0, mustCards(t, "8D")[0]); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("unheld card: expected ErrIllegalAction, got %v", err)
	}
	if err := g.PlayCard(0, EmptyCard); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("empty card: expected ErrInvalidValue, got %v", err)
	}
	if g != before {
		t.Fatal("rejected plays mutated state")
	}

	if err := g.PlayCard(0, ah); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	// Player 1 holds no hearts, so any card goes; player 2 the same.
	if err := g.PlayCard(1, mustCards(t, "AD")[0]); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if !g.KnownVoid(1, SuitHearts) {
		t.Error("player 1 should be a known heart void")
	}
	if g.KnownVoid(0, SuitHearts) {
		t.Error("leader is never marked void")
	}
}

func TestFollowSuitEnforced(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidPass}, pb{1, BidSolo}, pb{2, BidPass})
	if err := g.ChooseTrump(1, SuitClubs); err != nil {
		t.Fatalf("ChooseTrump: %v", err)
	}
	// Player 0 leads a diamond; player 1 holds diamonds and must follow.
	if err := g.PlayCard(0, mustCards(t, "6D")[0]); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	before := g
	if err := g.PlayCard(1, mustCards(t, "6C")[0]); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("renege: expected ErrIllegalAction, got %v", err)
	}
	if g != before {
		t.Fatal("rejected renege mutated state")
	}
	if err := g.PlayCard(1, mustCards(t, "8D")[0]); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	// Player 2 is void in diamonds and trumps with a club.
	if err := g.PlayCard(2, mustCards(t, "10C")[0]); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	last, ok := g.LastTrick()
	if !ok || last.Winner != 2 || last.Points != 10 {
		t.Fatalf("expected player 2 to take 10 points, got %+v", last)
	}
	if g.ActingPlayer() != 2 || g.Trick.Leader != 2 {
		t.Errorf("trick winner should lead next, got %d", g.ActingPlayer())
	}
	if g.Players[2].Captured != 10 || g.Players[2].TricksWon != 1 {
		t.Errorf("player 2 tallies = %d points / %d tricks", g.Players[2].Captured, g.Players[2].TricksWon)
	}
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		trump uint8
		want  int
	}{
		{"highest of led suit", []string{"9H", "KH", "QH"}, SuitSpades, 1},
		{"off-suit never wins", []string{"9H", "AD", "10H"}, SuitSpades, 2},
		{"single trump", []string{"AH", "KH", "6S"}, SuitSpades, 2},
		{"higher trump", []string{"AH", "7S", "6S"}, SuitSpades, 1},
		{"trump led", []string{"6S", "AH", "AD"}, SuitSpades, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrickWinner(mustCards(t, tt.cards...), tt.trump)
			if got != tt.want {
				t.Errorf("TrickWinner(%v) = %d, want %d", tt.cards, got, tt.want)
			}
		})
	}
}

// bruteWinner restates the ordering: the highest trump if any was played,
// otherwise the highest card of the led suit.
func bruteWinner(cards []Card, trump uint8) int {
	best := -1
	for i, c := range cards {
		if c.Suit() != trump {
			continue
		}
		if best < 0 || c.Rank() > cards[best].Rank() {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	led := cards[0].Suit()
	best = 0
	for i, c := range cards {
		if c.Suit() == led && c.Rank() > cards[best].Rank() {
			best = i
		}
	}
	return best
}

func TestTrickWinnerRandomPermutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 22))
	rules := DefaultHouseRules()
	g := NewGame(1, rules)
	deck := g.Deck[:rules.DeckSize()]
	for i := 0; i < 5000; i++ {
		perm := rng.Perm(len(deck))
		cards := []Card{deck[perm[0]], deck[perm[1]], deck[perm[2]]}
		trump := uint8(rng.IntN(NumSuits))
		if got, want := TrickWinner(cards, trump), bruteWinner(cards, trump); got != want {
			t.Fatalf("cards %v trump %s: got %d want %d", cards, SuitString(trump), got, want)
		}
	}
}

func TestPlayFullRoundHeartSolo(t *testing.T) {
	g := trickPlayGame(t)
	for !g.IsTerminal() {
		if err := g.ApplyDefault(); err != nil {
			t.Fatalf("ApplyDefault in %s: %v", g.Phase, err)
		}
	}
	if g.Phase != PhaseSettled {
		t.Fatalf("expected settled, got %s", g.Phase)
	}
	if g.TricksPlayed != 11 {
		t.Errorf("expected 11 tricks, got %d", g.TricksPlayed)
	}
	r := g.Result
	if r.BidderPoints != 80 || !r.Success {
		t.Fatalf("expected a successful 80-point heart solo, got %+v", r)
	}
	// margin 40 times multiplier 3 from each defender.
	want := [NumPlayers]int{240, -120, -120}
	if r.Deltas != want {
		t.Errorf("deltas = %v, want %v", r.Deltas, want)
	}
	if err := g.CheckConservation(); err != nil {
		t.Errorf("conservation at settlement: %v", err)
	}
	if err := g.PlayCard(0, mustCards(t, "6H")[0]); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("play after settlement: expected ErrIllegalAction, got %v", err)
	}
}

func TestCorruptedStateAbortsRound(t *testing.T) {
	g := trickPlayGame(t)
	// Duplicate a card into player 2's hand.
	g.Players[2].Hand[0] = mustCards(t, "AH")[0]

	var err error
	for i := 0; i < NumPlayers && err == nil; i++ {
		err = g.ApplyDefault()
	}
	if !errors.Is(err, ErrInconsistentState) {
		t.Fatalf("expected ErrInconsistentState, got %v", err)
	}
	if g.Phase != PhaseAborted {
		t.Errorf("expected aborted round, got %s", g.Phase)
	}
	if g.Result != (RoundResult{}) {
		t.Error("aborted round must not produce a result")
	}
}

func TestDefaults(t *testing.T) {
	g := newFixedGame(t)
	bids(t, &g, pb{0, BidFrog}, pb{1, BidPass}, pb{2, BidPass})

	disc := g.DefaultDiscards(0)
	want := mustCards(t, "6H", "6D", "7H")
	for i := range want {
		if disc[i] != want[i] {
			t.Fatalf("DefaultDiscards = %v, want %v", disc, want)
		}
	}
	if err := g.ApplyDefault(); err != nil {
		t.Fatalf("ApplyDefault exchange: %v", err)
	}
	if got := g.DefaultTrump(0); got != SuitHearts {
		t.Errorf("DefaultTrump = %s, want H", SuitString(got))
	}
	if err := g.ApplyDefault(); err != nil {
		t.Fatalf("ApplyDefault trump: %v", err)
	}
	if g.Winner.Trump != SuitHearts || g.Phase != PhaseTrickPlay {
		t.Errorf("expected hearts trick play, got %s/%s", SuitString(g.Winner.Trump), g.Phase)
	}
	if c, ok := g.DefaultCard(0); !ok || c != g.Hand(0)[0] {
		t.Errorf("DefaultCard = %s, want first card in hand", c)
	}
}
