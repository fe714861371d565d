package engine

import "fmt"

// RemainderPolicy decides which defender receives the odd point when a
// failed bidder's insurance requirement is split between two defenders.
type RemainderPolicy uint8

const (
	RemainderFirstDefender  RemainderPolicy = iota // first defender in turn order
	RemainderSecondDefender                        // second defender in turn order
)

// HouseRules holds configurable game rule settings.
type HouseRules struct {
	LowestRank      uint8         // stripped deck: ranks LowestRank..Ace in every suit
	BidTargets      [numBids]int  // card points the bidder needs, indexed by Bid
	Multipliers     [numBids]int  // stake multiplier, indexed by Bid
	RemainderPolicy RemainderPolicy
}

// DefaultHouseRules returns the standard rules: a 36-card deck (Six to Ace),
// a 41-point target for every bid and multipliers 1/2/3.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		LowestRank:      RankSix,
		BidTargets:      [numBids]int{0, 41, 41, 41},
		Multipliers:     [numBids]int{0, 1, 2, 3},
		RemainderPolicy: RemainderFirstDefender,
	}
}

// DeckSize returns the number of cards in play.
func (r *HouseRules) DeckSize() int {
	return NumSuits * int(RankAce-r.LowestRank+1)
}

// HandSize returns the number of cards dealt to each player, which is also
// the number of tricks in a round.
func (r *HouseRules) HandSize() int {
	return (r.DeckSize() - WidowSize) / NumPlayers
}

// TotalPoints returns the card points in the whole deck.
func (r *HouseRules) TotalPoints() int {
	total := 0
	for s := uint8(0); s < NumSuits; s++ {
		for rank := r.LowestRank; rank <= RankAce; rank++ {
			total += NewCard(s, rank).Points()
		}
	}
	return total
}

// Target returns the points the bidder needs for bid b.
func (r *HouseRules) Target(b Bid) int { return r.BidTargets[b] }

// Multiplier returns the stake multiplier for bid b.
func (r *HouseRules) Multiplier(b Bid) int { return r.Multipliers[b] }

// Validate checks that the rules describe a playable deck and sane stakes.
func (r *HouseRules) Validate() error {
	if r.LowestRank > RankTen {
		return fmt.Errorf("%w: lowest rank %s leaves too few cards", ErrInvalidValue, RankString(r.LowestRank))
	}
	if (r.DeckSize()-WidowSize)%NumPlayers != 0 {
		return fmt.Errorf("%w: deck of %d cards cannot be dealt evenly to %d players after a %d-card widow",
			ErrInvalidValue, r.DeckSize(), NumPlayers, WidowSize)
	}
	if r.HandSize() > MaxHandSize-WidowSize {
		return fmt.Errorf("%w: hand size %d too large", ErrInvalidValue, r.HandSize())
	}
	for b := BidFrog; b <= BidHeartSolo; b++ {
		if r.Multipliers[b] <= 0 {
			return fmt.Errorf("%w: multiplier for %s must be positive", ErrInvalidValue, b)
		}
		if r.BidTargets[b] < 0 || r.BidTargets[b] > r.TotalPoints() {
			return fmt.Errorf("%w: target %d for %s outside 0..%d", ErrInvalidValue, r.BidTargets[b], b, r.TotalPoints())
		}
	}
	if r.RemainderPolicy > RemainderSecondDefender {
		return fmt.Errorf("%w: unknown remainder policy %d", ErrInvalidValue, r.RemainderPolicy)
	}
	return nil
}
