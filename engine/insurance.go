package engine

import "fmt"

// Insurance bounds.
const (
	MaxRequirement = 540
	MaxOffer       = 180
)

// InsuranceState is the side bet between the bidder and the two defenders.
// Once Executed is set it never clears and the values are locked.
type InsuranceState struct {
	Requirement   int             // bidder's demand, 0..MaxRequirement
	Offers        [NumPlayers]int // per defender, 0..MaxOffer; bidder slot unused
	Executed      bool
	ExecutedTrick uint8 // 1-based trick after which the deal executed
}

// SumOffers returns the total pledged by the defenders.
func (s *InsuranceState) SumOffers() int {
	total := 0
	for _, o := range s.Offers {
		total += o
	}
	return total
}

// InsuranceOpen reports whether insurance settings are accepted: from the
// moment the bidder is known until the round ends.
func (g *GameState) InsuranceOpen() bool {
	switch g.Phase {
	case PhaseWidowExchange, PhaseTrumpSelection, PhaseTrickPlay:
		return true
	}
	return false
}

// UpdateInsurance sets the role-scoped insurance field for player p. The
// bidder may only set the requirement, a defender only their own offer.
// Once the deal has executed the call is accepted and ignored; applied
// reports whether the value took effect.
func (g *GameState) UpdateInsurance(p uint8, setting InsuranceSetting, value int) (applied bool, err error) {
	if !g.InsuranceOpen() {
		return false, fmt.Errorf("%w: insurance in phase %s", ErrIllegalAction, g.Phase)
	}
	if p >= NumPlayers {
		return false, fmt.Errorf("%w: player %d", ErrNotFound, p)
	}

	switch setting {
	case SettingBidderRequirement:
		if p != g.Winner.Player {
			return false, fmt.Errorf("%w: only the bidder sets the requirement", ErrIllegalAction)
		}
		if value < 0 || value > MaxRequirement {
			return false, fmt.Errorf("%w: requirement %d outside 0..%d", ErrInvalidValue, value, MaxRequirement)
		}
	case SettingDefenderOffer:
		if p == g.Winner.Player {
			return false, fmt.Errorf("%w: the bidder cannot make an offer", ErrIllegalAction)
		}
		if value < 0 || value > MaxOffer {
			return false, fmt.Errorf("%w: offer %d outside 0..%d", ErrInvalidValue, value, MaxOffer)
		}
	default:
		return false, fmt.Errorf("%w: insurance setting %d", ErrInvalidValue, uint8(setting))
	}

	if g.Insurance.Executed {
		return false, nil
	}
	if setting == SettingBidderRequirement {
		g.Insurance.Requirement = value
	} else {
		g.Insurance.Offers[p] = value
	}
	return true, nil
}

// evaluateInsurance latches the deal after a trick once the offers cover the
// requirement.
func (g *GameState) evaluateInsurance() {
	ins := &g.Insurance
	if ins.Executed {
		return
	}
	if ins.SumOffers() >= ins.Requirement {
		ins.Executed = true
		ins.ExecutedTrick = g.TricksPlayed
	}
}

// SettleInsurance returns the side payments for ins. On success each
// defender pays their offer to the bidder; on failure the bidder pays the
// requirement split between the defenders, the odd point going to the
// defender named by policy.
func SettleInsurance(ins InsuranceState, bidder uint8, defenders [2]uint8, success bool, policy RemainderPolicy) [NumPlayers]int {
	var d [NumPlayers]int
	if success {
		for _, def := range defenders {
			d[def] -= ins.Offers[def]
			d[bidder] += ins.Offers[def]
		}
		return d
	}
	half := ins.Requirement / 2
	d[defenders[0]] = half
	d[defenders[1]] = half
	if ins.Requirement%2 != 0 {
		if policy == RemainderSecondDefender {
			d[defenders[1]]++
		} else {
			d[defenders[0]]++
		}
	}
	d[bidder] = -ins.Requirement
	return d
}
