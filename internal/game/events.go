// internal/game/events.go
package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
)

// GameEventType represents the type of a table event sent to clients.
type GameEventType string

// Constants defining the GameEvent types. Private events go to a single player.
const (
	EventPlayerSeated            GameEventType = "player_seated"
	EventPlayerUnseated          GameEventType = "player_unseated"
	EventRoundStarted            GameEventType = "round_started"            // Public: Turn order, dealer, seat sitting out.
	EventPrivateHandDealt        GameEventType = "private_hand_dealt"       // Private: The player's dealt hand.
	EventPhaseChanged            GameEventType = "phase_changed"            // Public: Round moved to a new phase.
	EventDecisionRequired        GameEventType = "decision_required"        // Public: Who must act and on what.
	EventPrivateDecisionRequired GameEventType = "private_decision_required" // Private: Legal bids or cards for the acting player.
	EventBidPlaced               GameEventType = "bid_placed"
	EventPrivateWidowRevealed    GameEventType = "private_widow_revealed" // Private: Widow shown to the Frog winner.
	EventWidowExchanged          GameEventType = "widow_exchanged"        // Public: Frog winner returned three cards (hidden).
	EventTrumpChosen             GameEventType = "trump_chosen"
	EventCardPlayed              GameEventType = "card_played"
	EventTrickResolved           GameEventType = "trick_resolved" // Public: Winner and points captured.
	EventInsuranceUpdated        GameEventType = "insurance_updated"
	EventInsuranceExecuted       GameEventType = "insurance_executed" // Public: The deal latched.
	EventRoundSettled            GameEventType = "round_settled"      // Public: Per-player deltas and scores.
	EventRoundThrownIn           GameEventType = "round_thrown_in"    // Public: Every seat passed.
	EventRoundAborted            GameEventType = "round_aborted"      // Public: Round ended without settlement.
	EventPrivateActionRejected   GameEventType = "private_action_rejected"
	EventPrivateSyncState        GameEventType = "private_sync_state" // Private: Full table snapshot.
)

// EventUser identifies a user within a GameEvent.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// GameEvent is the standard structure for broadcasting table state changes and actions.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`    // The user initiating or targeted by the event.
	Payload map[string]interface{} `json:"payload,omitempty"` // Additional event data.
	State   *TableSnapshot         `json:"state,omitempty"`   // Full snapshot for sync events.
}

// ErrorCode classifies err for clients by its engine sentinel.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrIllegalAction):
		return "illegal_action"
	case errors.Is(err, engine.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, engine.ErrNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrTimeout):
		return "timeout"
	case errors.Is(err, engine.ErrInconsistentState):
		return "inconsistent_state"
	}
	return "internal"
}

// cardStrings renders cards for event payloads.
func cardStrings(cards []engine.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.Valid() {
			out = append(out, c.String())
		}
	}
	return out
}

func bidStrings(bids []engine.Bid) []string {
	out := make([]string, len(bids))
	for i, b := range bids {
		out[i] = b.String()
	}
	return out
}
