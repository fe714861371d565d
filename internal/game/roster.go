// internal/game/roster.go
package game

import "github.com/google/uuid"

// Roster tracks seated player ids in stable join order.
type Roster struct {
	ids []uuid.UUID
}

// Add seats id at the end of the join order. Seating an id twice is a no-op.
// Returns true if the id was newly added.
func (r *Roster) Add(id uuid.UUID) bool {
	if r.Contains(id) {
		return false
	}
	r.ids = append(r.ids, id)
	return true
}

// Remove unseats id. Removing an absent id is a no-op.
// Returns true if the id was present.
func (r *Roster) Remove(id uuid.UUID) bool {
	for i, s := range r.ids {
		if s == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is seated.
func (r *Roster) Contains(id uuid.UUID) bool {
	for _, s := range r.ids {
		if s == id {
			return true
		}
	}
	return false
}

// Len returns the number of seated ids.
func (r *Roster) Len() int { return len(r.ids) }

// IDs returns a copy of the seated ids in join order.
func (r *Roster) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(r.ids))
	copy(out, r.ids)
	return out
}

// TurnOrder returns the seated ids rotated so the seat immediately after the
// dealer comes first and the dealer comes last. If the dealer is not seated
// the first seated id is treated as dealer and found is false.
func TurnOrder(seated []uuid.UUID, dealer uuid.UUID) (order []uuid.UUID, found bool) {
	n := len(seated)
	if n == 0 {
		return nil, false
	}
	d := 0
	for i, id := range seated {
		if id == dealer {
			d = i
			found = true
			break
		}
	}
	order = make([]uuid.UUID, 0, n)
	for i := 1; i <= n; i++ {
		order = append(order, seated[(d+i)%n])
	}
	return order, found
}

// removeID returns ids without id, preserving order.
func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
