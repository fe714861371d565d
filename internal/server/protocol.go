// internal/server/protocol.go
package server

import (
	"encoding/json"

	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
)

// Envelope is the WebSocket message shape in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	MsgStartRound = "start_round"
	MsgBid        = "bid"
	MsgWidow      = "widow"
	MsgTrump      = "trump"
	MsgInsurance  = "insurance"
	MsgPlayCard   = "play_card"
	MsgSnapshot   = "snapshot"
)

// Outbound message types besides table events, which use their event type.
// Snapshots reuse MsgSnapshot.
const (
	MsgError   = "error"
	MsgWelcome = "welcome"
)

// decisionKinds maps inbound message types onto decision shapes.
var decisionKinds = map[string]game.DecisionKind{
	MsgBid:       game.KindBid,
	MsgWidow:     game.KindWidow,
	MsgTrump:     game.KindTrump,
	MsgInsurance: game.KindInsurance,
	MsgPlayCard:  game.KindCard,
}

// ErrorPayload answers a message the server could not apply.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"` // inbound type that caused it
}

// WelcomePayload is sent once after a socket is seated.
type WelcomePayload struct {
	TableID  string `json:"tableId"`
	PlayerID string `json:"playerId"`
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
