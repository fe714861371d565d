// internal/game/decision.go
package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
)

// DecisionKind names a decision point.
type DecisionKind string

const (
	KindBid         DecisionKind = "bid"
	KindFrogUpgrade DecisionKind = "frog_upgrade"
	KindWidow       DecisionKind = "widow"
	KindTrump       DecisionKind = "trump"
	KindCard        DecisionKind = "play_card"
	KindInsurance   DecisionKind = "insurance"
)

// kindForCtx maps the engine's decision context to a DecisionKind.
func kindForCtx(ctx engine.DecisionContext) DecisionKind {
	switch ctx {
	case engine.CtxBid:
		return KindBid
	case engine.CtxFrogUpgrade:
		return KindFrogUpgrade
	case engine.CtxWidowExchange:
		return KindWidow
	case engine.CtxTrump:
		return KindTrump
	case engine.CtxPlayCard:
		return KindCard
	}
	return ""
}

// Decision is a closed set of submissions: BidDecision, WidowDecision,
// TrumpDecision, CardDecision and InsuranceDecision.
type Decision interface {
	Kind() DecisionKind
	Reason() string // free-text rationale, logged but never interpreted
	isDecision()
}

// BidDecision answers both an ordinary bid and a frog upgrade.
type BidDecision struct {
	Bid       engine.Bid
	Rationale string
}

// WidowDecision names the three cards a Frog winner returns.
type WidowDecision struct {
	Discards  [engine.WidowSize]engine.Card
	Rationale string
}

// TrumpDecision names the trump suit.
type TrumpDecision struct {
	Suit      uint8
	Rationale string
}

// CardDecision plays one card.
type CardDecision struct {
	Card      engine.Card
	Rationale string
}

// InsuranceDecision sets the bidder requirement or a defender offer.
type InsuranceDecision struct {
	Setting   engine.InsuranceSetting
	Value     int
	Rationale string
}

func (BidDecision) Kind() DecisionKind       { return KindBid }
func (WidowDecision) Kind() DecisionKind     { return KindWidow }
func (TrumpDecision) Kind() DecisionKind     { return KindTrump }
func (CardDecision) Kind() DecisionKind      { return KindCard }
func (InsuranceDecision) Kind() DecisionKind { return KindInsurance }

func (d BidDecision) Reason() string       { return d.Rationale }
func (d WidowDecision) Reason() string     { return d.Rationale }
func (d TrumpDecision) Reason() string     { return d.Rationale }
func (d CardDecision) Reason() string      { return d.Rationale }
func (d InsuranceDecision) Reason() string { return d.Rationale }

func (BidDecision) isDecision()       {}
func (WidowDecision) isDecision()     {}
func (TrumpDecision) isDecision()     {}
func (CardDecision) isDecision()      {}
func (InsuranceDecision) isDecision() {}

// DecisionRequest is what a Decider sees at a decision point.
type DecisionRequest struct {
	TableID    uuid.UUID
	RoundID    uuid.UUID
	PlayerID   uuid.UUID
	DecisionID int
	Kind       DecisionKind
	Role       string        // "bidder" or "defender" once the bidder is known
	LegalBids  []engine.Bid  // bid and frog upgrade decisions
	LegalCards []engine.Card // card decisions
	Hand       []engine.Card
	Snapshot   TableSnapshot
}

// Decider produces decisions for a bot seat. Implementations must honour ctx;
// a decision arriving after the deadline is ignored.
type Decider interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, req DecisionRequest) (Decision, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	return f(ctx, req)
}

// Wire payloads accepted by ParseDecision.
type bidPayload struct {
	Bid       string `json:"bid"`
	Rationale string `json:"rationale,omitempty"`
}

type widowPayload struct {
	Discards  []string `json:"discards"`
	Rationale string   `json:"rationale,omitempty"`
}

type trumpPayload struct {
	Suit      string `json:"suit"`
	Rationale string `json:"rationale,omitempty"`
}

type cardPayload struct {
	Card      string `json:"card"`
	Rationale string `json:"rationale,omitempty"`
}

type insurancePayload struct {
	Setting   string `json:"setting"`
	Value     *int   `json:"value"`
	Rationale string `json:"rationale,omitempty"`
}

// decodeStrict decodes raw into v, rejecting unknown fields and trailing data.
func decodeStrict(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrInvalidValue, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", engine.ErrInvalidValue)
	}
	return nil
}

// ParseDecision decodes a loosely-typed payload into one of the known
// decision shapes. Anything else is rejected with engine.ErrInvalidValue.
func ParseDecision(kind DecisionKind, raw json.RawMessage) (Decision, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty %s payload", engine.ErrInvalidValue, kind)
	}
	switch kind {
	case KindBid, KindFrogUpgrade:
		var p bidPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		bid, err := engine.ParseBid(p.Bid)
		if err != nil {
			return nil, err
		}
		return BidDecision{Bid: bid, Rationale: p.Rationale}, nil

	case KindWidow:
		var p widowPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if len(p.Discards) != engine.WidowSize {
			return nil, fmt.Errorf("%w: need %d discards, got %d", engine.ErrInvalidValue, engine.WidowSize, len(p.Discards))
		}
		d := WidowDecision{Rationale: p.Rationale}
		for i, s := range p.Discards {
			c, err := engine.ParseCard(s)
			if err != nil {
				return nil, err
			}
			d.Discards[i] = c
		}
		return d, nil

	case KindTrump:
		var p trumpPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		suit, err := engine.ParseSuit(p.Suit)
		if err != nil {
			return nil, err
		}
		return TrumpDecision{Suit: suit, Rationale: p.Rationale}, nil

	case KindCard:
		var p cardPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		c, err := engine.ParseCard(p.Card)
		if err != nil {
			return nil, err
		}
		return CardDecision{Card: c, Rationale: p.Rationale}, nil

	case KindInsurance:
		var p insurancePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		setting, err := engine.ParseInsuranceSetting(p.Setting)
		if err != nil {
			return nil, err
		}
		if p.Value == nil {
			return nil, fmt.Errorf("%w: insurance value missing", engine.ErrInvalidValue)
		}
		return InsuranceDecision{Setting: setting, Value: *p.Value, Rationale: p.Rationale}, nil
	}
	return nil, fmt.Errorf("%w: unknown decision kind %q", engine.ErrInvalidValue, kind)
}
