package match

import "github.com/hcorbin/acpcdealer/internal/gamedef"

// IsValidAction reports whether a is legal for the current acting player.
// fixBadSize=true is the dealer's own leniency: an out-of-range no-limit
// raise target is silently clamped into [min,max] rather than rejected.
// fixBadSize=false (log/journal replay) rejects anything out of bounds.
func (s *State) IsValidAction(a *Action, fixBadSize bool) bool {
	p := s.ActingPlayer
	if s.Finished || s.Folded[p] || s.isAllIn(p) {
		return false
	}

	switch a.Type {
	case Fold:
		return s.MaxSpent > s.Spent[p]

	case Call:
		return true

	case Raise:
		if s.raisesThisRound >= s.Def.MaxRaises[s.Round] {
			return false
		}
		if s.Def.Stack[p] > 0 && s.MaxSpent >= s.Def.Stack[p] {
			return false
		}
		if s.Def.BettingType == gamedef.Limit {
			return true
		}
		min, max := s.RaiseBounds()
		if min > max {
			return false
		}
		if a.Size < min || a.Size > max {
			if fixBadSize {
				if a.Size < min {
					a.Size = min
				} else {
					a.Size = max
				}
				return true
			}
			return false
		}
		return true
	}
	return false
}

// RaiseIsValid reports whether any raise is currently legal and, if so,
// the inclusive [min,max] no-limit raise-to bounds.
func (s *State) RaiseIsValid() (min, max int64, ok bool) {
	p := s.ActingPlayer
	if s.raisesThisRound >= s.Def.MaxRaises[s.Round] {
		return 0, 0, false
	}
	if s.Def.Stack[p] > 0 && s.MaxSpent >= s.Def.Stack[p] {
		return 0, 0, false
	}
	min, max = s.RaiseBounds()
	return min, max, min <= max
}

// RaiseBounds returns the [min,max] no-limit raise-to target for the
// current acting player, independent of whether a raise is currently legal.
func (s *State) RaiseBounds() (min, max int64) {
	p := s.ActingPlayer
	min = s.MinNoLimitRaiseTo
	if s.Def.Stack[p] <= 0 {
		// no stack limit: there is no upper bound from chips on hand
		max = min
		if max < s.MaxSpent+s.lastRaiseSize {
			max = s.MaxSpent + s.lastRaiseSize
		}
	} else {
		max = s.Def.Stack[p]
	}
	if max < min {
		max = min
	}
	return min, max
}
