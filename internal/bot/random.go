// internal/bot/random.go
package bot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
)

// Random is a game.Decider that picks uniformly among legal options, passing
// in the auction with probability PassRate. It is safe for concurrent use.
type Random struct {
	PassRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random bot with a deterministic stream for seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		PassRate: 0.6,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Decide implements game.Decider.
func (r *Random) Decide(ctx context.Context, req game.DecisionRequest) (game.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch req.Kind {
	case game.KindBid, game.KindFrogUpgrade:
		return r.bid(req.LegalBids)
	case game.KindWidow:
		return r.discard(req.Hand)
	case game.KindTrump:
		return game.TrumpDecision{Suit: longestSuit(req.Hand), Rationale: "longest suit"}, nil
	case game.KindCard:
		if len(req.LegalCards) == 0 {
			return nil, fmt.Errorf("%w: no legal card offered", engine.ErrIllegalAction)
		}
		return game.CardDecision{Card: req.LegalCards[r.rng.IntN(len(req.LegalCards))]}, nil
	case game.KindInsurance:
		return r.insurance(req.Role)
	}
	return nil, fmt.Errorf("%w: unknown decision kind %q", engine.ErrInvalidValue, req.Kind)
}

func (r *Random) bid(legal []engine.Bid) (game.Decision, error) {
	if len(legal) == 0 {
		return nil, fmt.Errorf("%w: no legal bid offered", engine.ErrIllegalAction)
	}
	var raises []engine.Bid
	for _, b := range legal {
		if b != engine.BidPass {
			raises = append(raises, b)
		}
	}
	if len(raises) == 0 || r.rng.Float64() < r.PassRate {
		return game.BidDecision{Bid: engine.BidPass}, nil
	}
	return game.BidDecision{Bid: raises[r.rng.IntN(len(raises))]}, nil
}

func (r *Random) discard(hand []engine.Card) (game.Decision, error) {
	if len(hand) < engine.WidowSize {
		return nil, fmt.Errorf("%w: hand of %d cannot discard %d", engine.ErrIllegalAction, len(hand), engine.WidowSize)
	}
	var d game.WidowDecision
	for i, j := range r.rng.Perm(len(hand))[:engine.WidowSize] {
		d.Discards[i] = hand[j]
	}
	return d, nil
}

// insurance asks for a requirement as bidder or pledges an offer as
// defender, in steps of ten.
func (r *Random) insurance(role string) (game.Decision, error) {
	switch role {
	case "bidder":
		v := 10 * (6 + r.rng.IntN(19)) // 60..240
		return game.InsuranceDecision{Setting: engine.SettingBidderRequirement, Value: v, Rationale: "random requirement"}, nil
	case "defender":
		v := 10 * r.rng.IntN(engine.MaxOffer/10+1)
		return game.InsuranceDecision{Setting: engine.SettingDefenderOffer, Value: v, Rationale: "random offer"}, nil
	}
	return nil, fmt.Errorf("%w: no insurance role", engine.ErrIllegalAction)
}

// longestSuit returns the suit with the most cards in hand, lowest suit on ties.
func longestSuit(hand []engine.Card) uint8 {
	var counts [engine.NumSuits]int
	for _, c := range hand {
		counts[c.Suit()]++
	}
	best := uint8(0)
	for s := uint8(1); s < engine.NumSuits; s++ {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}
