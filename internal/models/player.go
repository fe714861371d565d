// internal/models/player.go
package models

import "github.com/google/uuid"

// Player represents a participant seated at a table.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsBot     bool      `json:"isBot"`     // Decisions come from a Decider instead of a client.
	Connected bool      `json:"connected"` // Is the client's connection currently active?
	Score     int       `json:"score"`     // Running balance across rounds.
}

// NewPlayer creates a connected player with a zero score.
func NewPlayer(id uuid.UUID, name string, isBot bool) *Player {
	return &Player{ID: id, Name: name, IsBot: isBot, Connected: true}
}
