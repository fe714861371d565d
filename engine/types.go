package engine

import (
	"fmt"
	"strings"
)

// Suit constants, packed into the upper 4 bits of Card.
const (
	SuitHearts   uint8 = 0
	SuitDiamonds uint8 = 1
	SuitClubs    uint8 = 2
	SuitSpades   uint8 = 3

	NumSuits = 4
)

// Rank constants, packed into the lower 4 bits of Card. Numeric order is
// trick-taking strength within a suit.
const (
	RankTwo   uint8 = 0
	RankThree uint8 = 1
	RankFour  uint8 = 2
	RankFive  uint8 = 3
	RankSix   uint8 = 4
	RankSeven uint8 = 5
	RankEight uint8 = 6
	RankNine  uint8 = 7
	RankTen   uint8 = 8
	RankJack  uint8 = 9
	RankQueen uint8 = 10
	RankKing  uint8 = 11
	RankAce   uint8 = 12
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Valid reports whether c encodes a real card.
func (c Card) Valid() bool {
	return c != EmptyCard && c.Suit() < NumSuits && c.Rank() <= RankAce
}

// Points returns the card-point value: Ace and Ten are worth 10, everything else 0.
func (c Card) Points() int {
	switch c.Rank() {
	case RankAce, RankTen:
		return 10
	}
	return 0
}

var rankNames = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}
var suitNames = [...]string{"H", "D", "C", "S"}

// RankString returns the short name of a rank ("2".."10", "J", "Q", "K", "A").
func RankString(rank uint8) string {
	if int(rank) >= len(rankNames) {
		return "?"
	}
	return rankNames[rank]
}

// SuitString returns the one-letter name of a suit.
func SuitString(suit uint8) string {
	if int(suit) >= len(suitNames) {
		return "?"
	}
	return suitNames[suit]
}

// String renders the card as rank followed by suit letter, e.g. "10H" or "KS".
func (c Card) String() string {
	if !c.Valid() {
		return "--"
	}
	return rankNames[c.Rank()] + suitNames[c.Suit()]
}

// ParseSuit parses a one-letter suit name (case-insensitive).
func ParseSuit(s string) (uint8, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H":
		return SuitHearts, nil
	case "D":
		return SuitDiamonds, nil
	case "C":
		return SuitClubs, nil
	case "S":
		return SuitSpades, nil
	}
	return 0, fmt.Errorf("%w: unknown suit %q", ErrInvalidValue, s)
}

// ParseCard parses the form produced by Card.String.
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return EmptyCard, fmt.Errorf("%w: malformed card %q", ErrInvalidValue, s)
	}
	suit, err := ParseSuit(s[len(s)-1:])
	if err != nil {
		return EmptyCard, fmt.Errorf("%w: malformed card %q", ErrInvalidValue, s)
	}
	rankPart := s[:len(s)-1]
	if rankPart == "T" {
		rankPart = "10"
	}
	for r, name := range rankNames {
		if name == rankPart {
			return NewCard(suit, uint8(r)), nil
		}
	}
	return EmptyCard, fmt.Errorf("%w: malformed card %q", ErrInvalidValue, s)
}

// ---------------------------------------------------------------------------
// Bids
// ---------------------------------------------------------------------------

// Bid is the ordered auction enumeration; a higher value is a stronger bid.
type Bid uint8

const (
	BidPass      Bid = iota // 0
	BidFrog                 // 1
	BidSolo                 // 2
	BidHeartSolo            // 3

	numBids = 4
)

// Valid reports whether b is one of the four bids.
func (b Bid) Valid() bool { return b < numBids }

func (b Bid) String() string {
	switch b {
	case BidPass:
		return "pass"
	case BidFrog:
		return "frog"
	case BidSolo:
		return "solo"
	case BidHeartSolo:
		return "heart_solo"
	}
	return fmt.Sprintf("bid(%d)", uint8(b))
}

// ParseBid parses the form produced by Bid.String.
func ParseBid(s string) (Bid, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return BidPass, nil
	case "frog":
		return BidFrog, nil
	case "solo":
		return BidSolo, nil
	case "heart_solo", "heartsolo", "heart solo":
		return BidHeartSolo, nil
	}
	return BidPass, fmt.Errorf("%w: unknown bid %q", ErrInvalidValue, s)
}

// ---------------------------------------------------------------------------
// Round phases
// ---------------------------------------------------------------------------

// Phase is the position of a round in its lifecycle.
type Phase uint8

const (
	PhaseDealing             Phase = iota // 0
	PhaseBidding                          // 1
	PhaseAwaitingFrogUpgrade              // 2
	PhaseWidowExchange                    // 3: Frog winner returns three cards
	PhaseTrumpSelection                   // 4
	PhaseTrickPlay                        // 5
	PhaseSettled                          // 6: terminal, RoundResult available
	PhaseThrownIn                         // 7: terminal, every seat passed
	PhaseAborted                          // 8: terminal, internal inconsistency
)

var phaseNames = [...]string{
	"dealing",
	"bidding",
	"awaiting_frog_upgrade",
	"widow_exchange",
	"trump_selection",
	"trick_play",
	"settled",
	"thrown_in",
	"aborted",
}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// Terminal reports whether no further actions are accepted in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseSettled || p == PhaseThrownIn || p == PhaseAborted
}

// DecisionContext describes what kind of decision the acting player must make.
type DecisionContext uint8

const (
	CtxBid          DecisionContext = iota // 0
	CtxFrogUpgrade                         // 1
	CtxWidowExchange                       // 2
	CtxTrump                               // 3
	CtxPlayCard                            // 4
	CtxTerminal                            // 5
)

var ctxNames = [...]string{"bid", "frog_upgrade", "widow_exchange", "trump", "play_card", "terminal"}

func (c DecisionContext) String() string {
	if int(c) >= len(ctxNames) {
		return fmt.Sprintf("ctx(%d)", uint8(c))
	}
	return ctxNames[c]
}

// InsuranceSetting names the role-scoped insurance field being set.
type InsuranceSetting uint8

const (
	SettingBidderRequirement InsuranceSetting = iota // 0
	SettingDefenderOffer                             // 1
)

func (s InsuranceSetting) String() string {
	switch s {
	case SettingBidderRequirement:
		return "bidder_requirement"
	case SettingDefenderOffer:
		return "defender_offer"
	}
	return fmt.Sprintf("setting(%d)", uint8(s))
}

// ParseInsuranceSetting parses the form produced by InsuranceSetting.String.
func ParseInsuranceSetting(s string) (InsuranceSetting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bidder_requirement", "requirement":
		return SettingBidderRequirement, nil
	case "defender_offer", "offer":
		return SettingDefenderOffer, nil
	}
	return 0, fmt.Errorf("%w: unknown insurance setting %q", ErrInvalidValue, s)
}
