// Package engine implements the Sluff round rules: deal, auction, widow
// exchange, trump selection, trick play, insurance and settlement.
//
// GameState is a flat value type (no pointers, no slices) holding one round.
// Players are addressed by turn-order index 0..2, where index 0 is the seat
// immediately after the dealer. Every exported mutator validates completely
// before it changes anything, so a rejected action leaves the state untouched.
package engine

import "fmt"

const (
	NumPlayers  = 3
	WidowSize   = 3
	MaxDeckSize = 52
	MaxHandSize = 18 // largest legal hand (15) plus the widow during a Frog exchange
	MaxTricks   = 15

	// NoPlayer marks an unset player index.
	NoPlayer uint8 = 0xFF
)

// PlayerState holds one player's hand and trick-play tallies.
type PlayerState struct {
	Hand      [MaxHandSize]Card
	HandLen   uint8
	Captured  int   // card points won in tricks
	TricksWon uint8 // number of tricks won
	Voids     uint8 // bit per suit, set once the player failed to follow that suit
}

// AuctionState tracks the bidding rotation.
type AuctionState struct {
	Bids       [NumPlayers]Bid  // last bid placed by each player
	Passed     [NumPlayers]bool // passed players take no further part
	HighBid    Bid
	HighBidder uint8 // NoPlayer until someone bids above Pass
	FrogBidder uint8 // outbid Frog bidder, set only in PhaseAwaitingFrogUpgrade
	Outbidder  uint8 // player whose Solo/Heart Solo triggered the upgrade window
	Placed     uint8 // number of bids accepted, passes included
}

// BidWinnerInfo is fixed once the auction resolves.
type BidWinnerInfo struct {
	Player      uint8
	Bid         Bid
	Trump       uint8
	TrumpChosen bool
}

// Trick is one round of plays.
type Trick struct {
	Leader  uint8
	Players [NumPlayers]uint8
	Cards   [NumPlayers]Card
	Count   uint8
	Winner  uint8
	Points  int
}

// LedSuit returns the suit of the first card, or false for an empty trick.
func (t *Trick) LedSuit() (uint8, bool) {
	if t.Count == 0 {
		return 0, false
	}
	return t.Cards[0].Suit(), true
}

// GameState holds the complete, self-contained state of one round.
type GameState struct {
	Players       [NumPlayers]PlayerState
	Widow         [WidowSize]Card // after a Frog exchange, the bidder's discards
	Deck          [MaxDeckSize]Card
	DeckLen       uint8
	Phase         Phase
	CurrentPlayer uint8
	Auction       AuctionState
	Winner        BidWinnerInfo
	Trick         Trick             // trick in progress
	Tricks        [MaxTricks]Trick  // completed tricks
	TricksPlayed  uint8
	Insurance     InsuranceState
	Result        RoundResult
	RNG           uint64
	Rules         HouseRules
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// ---------------------------------------------------------------------------
// NewGame and Deal
// ---------------------------------------------------------------------------

// NewGame initializes a round with the given seed and rules.
// The deck is built but not yet shuffled or dealt.
func NewGame(seed uint64, rules HouseRules) GameState {
	var g GameState
	g.RNG = seed
	if g.RNG == 0 {
		g.RNG = 1 // xorshift can't start at 0
	}
	g.Rules = rules
	g.Phase = PhaseDealing
	g.resetMarkers()

	idx := 0
	for suit := uint8(0); suit < NumSuits; suit++ {
		for rank := rules.LowestRank; rank <= RankAce; rank++ {
			g.Deck[idx] = NewCard(suit, rank)
			idx++
		}
	}
	g.DeckLen = uint8(idx)
	for i := range g.Widow {
		g.Widow[i] = EmptyCard
	}
	return g
}

func (g *GameState) resetMarkers() {
	g.CurrentPlayer = 0
	g.Auction.HighBidder = NoPlayer
	g.Auction.FrogBidder = NoPlayer
	g.Auction.Outbidder = NoPlayer
	g.Winner.Player = NoPlayer
	g.Trick.Winner = NoPlayer
	g.Insurance.Requirement = MaxRequirement
}

// Deal shuffles the deck, deals one card at a time to each player starting
// with index 0, and sets the last three cards aside as the widow.
func (g *GameState) Deal() error {
	if g.Phase != PhaseDealing {
		return fmt.Errorf("%w: deal in phase %s", ErrIllegalAction, g.Phase)
	}
	if err := g.Rules.Validate(); err != nil {
		return err
	}

	// Fisher-Yates shuffle.
	for i := int(g.DeckLen) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	}

	next := 0
	hand := g.Rules.HandSize()
	for c := 0; c < hand; c++ {
		for p := 0; p < NumPlayers; p++ {
			g.Players[p].Hand[c] = g.Deck[next]
			g.Players[p].HandLen++
			next++
		}
	}
	for w := 0; w < WidowSize; w++ {
		g.Widow[w] = g.Deck[next]
		next++
	}

	g.Phase = PhaseBidding
	g.CurrentPlayer = 0
	return nil
}

// NewGameFromDeal builds a round in PhaseBidding from explicit hands and widow.
// The cards must be exactly the deck described by rules.
func NewGameFromDeal(rules HouseRules, hands [NumPlayers][]Card, widow [WidowSize]Card) (GameState, error) {
	g := NewGame(1, rules)
	if err := rules.Validate(); err != nil {
		return g, err
	}
	for p := 0; p < NumPlayers; p++ {
		if len(hands[p]) != rules.HandSize() {
			return g, fmt.Errorf("%w: player %d dealt %d cards, want %d", ErrInvalidValue, p, len(hands[p]), rules.HandSize())
		}
		for i, c := range hands[p] {
			g.Players[p].Hand[i] = c
		}
		g.Players[p].HandLen = uint8(len(hands[p]))
	}
	g.Widow = widow
	if err := g.CheckConservation(); err != nil {
		return g, err
	}
	g.Phase = PhaseBidding
	return g, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Next returns the player after p in turn order.
func Next(p uint8) uint8 { return (p + 1) % NumPlayers }

// IsTerminal reports whether the round accepts no further actions.
func (g *GameState) IsTerminal() bool { return g.Phase.Terminal() }

// Hand returns a copy of player p's hand in hand order.
func (g *GameState) Hand(p uint8) []Card {
	ps := &g.Players[p]
	out := make([]Card, ps.HandLen)
	copy(out, ps.Hand[:ps.HandLen])
	return out
}

// HandLen returns the number of cards in the given player's hand.
func (g *GameState) HandLen(p uint8) uint8 {
	return g.Players[p].HandLen
}

// HasCard reports whether player p holds c.
func (g *GameState) HasCard(p uint8, c Card) bool {
	return g.cardIndex(p, c) >= 0
}

func (g *GameState) cardIndex(p uint8, c Card) int {
	ps := &g.Players[p]
	for i := uint8(0); i < ps.HandLen; i++ {
		if ps.Hand[i] == c {
			return int(i)
		}
	}
	return -1
}

// removeCard deletes c from p's hand, preserving hand order.
func (g *GameState) removeCard(p uint8, c Card) bool {
	idx := g.cardIndex(p, c)
	if idx < 0 {
		return false
	}
	ps := &g.Players[p]
	copy(ps.Hand[idx:ps.HandLen], ps.Hand[idx+1:ps.HandLen])
	ps.HandLen--
	ps.Hand[ps.HandLen] = EmptyCard
	return true
}

// Bidder returns the auction winner, or NoPlayer before the auction resolves.
func (g *GameState) Bidder() uint8 { return g.Winner.Player }

// Defenders returns the two non-bidder players in turn order.
func (g *GameState) Defenders() [2]uint8 {
	var d [2]uint8
	n := 0
	for p := uint8(0); p < NumPlayers; p++ {
		if p != g.Winner.Player && n < 2 {
			d[n] = p
			n++
		}
	}
	return d
}

// IsDefender reports whether p is a non-bidder once the auction has resolved.
func (g *GameState) IsDefender(p uint8) bool {
	return g.Winner.Player != NoPlayer && p < NumPlayers && p != g.Winner.Player
}

// KnownVoid reports whether p has shown to be void in suit.
func (g *GameState) KnownVoid(p, suit uint8) bool {
	return g.Players[p].Voids&(1<<suit) != 0
}

// WidowPoints returns the card points of the widow (or the Frog discards).
func (g *GameState) WidowPoints() int {
	total := 0
	for _, c := range g.Widow {
		if c.Valid() {
			total += c.Points()
		}
	}
	return total
}

// LastTrick returns the most recently completed trick.
func (g *GameState) LastTrick() (Trick, bool) {
	if g.TricksPlayed == 0 {
		return Trick{}, false
	}
	return g.Tricks[g.TricksPlayed-1], true
}
