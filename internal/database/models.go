// internal/database/models.go
package database

import (
	"time"

	"github.com/google/uuid"
)

// RoundRecord is one finished round as stored for analytics.
type RoundRecord struct {
	TableID           uuid.UUID         `json:"tableId"`
	RoundID           uuid.UUID         `json:"roundId"`
	RoundNumber       int               `json:"roundNumber"`
	Outcome           string            `json:"outcome"` // "settled", "thrown_in" or "aborted"
	Bidder            uuid.UUID         `json:"bidder"`
	Bid               string            `json:"bid"`
	Trump             string            `json:"trump"`
	BidderPoints      int               `json:"bidderPoints"`
	Target            int               `json:"target"`
	Success           bool              `json:"success"`
	InsuranceExecuted bool              `json:"insuranceExecuted"`
	ExecutedTrick     int               `json:"executedTrick"`
	Deltas            map[uuid.UUID]int `json:"deltas"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// InsuranceDecision is one accepted insurance setting, completed with the
// realized outcome once its round concludes.
type InsuranceDecision struct {
	TableID       uuid.UUID `json:"tableId"`
	RoundID       uuid.UUID `json:"roundId"`
	PlayerID      uuid.UUID `json:"playerId"`
	Role          string    `json:"role"`    // "bidder" or "defender"
	Setting       string    `json:"setting"` // "requirement" or "offer"
	Value         int       `json:"value"`
	BidMultiplier int       `json:"bidMultiplier"`
	TrickNumber   int       `json:"trickNumber"` // tricks completed when the setting was made
	Rationale     string    `json:"rationale,omitempty"`

	// Filled at round end.
	DealExecuted    bool `json:"dealExecuted"`
	ExecutedTrick   int  `json:"executedTrick"`
	Outcome         int  `json:"outcome"`         // the player's applied delta
	Alternative     int  `json:"alternative"`     // the player's delta under the other regime
	SavedOrWasted   int  `json:"savedOrWasted"`   // Outcome - Alternative
	BestInHindsight int  `json:"bestInHindsight"` // max(Outcome, Alternative)

	CreatedAt time.Time `json:"createdAt"`
}
