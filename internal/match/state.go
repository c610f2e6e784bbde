// Package match implements the per-hand betting state machine (C4) and its
// action validator (C5).
//
// Grounded on the reference engine's pkg/poker/game.go: the same round
// progression (NewHand -> Blinds -> betting rounds -> Showdown/End) drives
// round advancement here, generalised from game.go's fixed Texas hold'em
// round names (preflop/flop/turn/river) to an arbitrary game definition's
// round count, and from game.go's table-stakes chip model to the spec's
// append-only Action log plus explicit per-seat "needs to act" obligation
// tracking (Folded/isAllIn drive all lifecycle checks directly; there is no
// separate per-seat state machine).
package match

import (
	"fmt"

	"github.com/hcorbin/acpcdealer/internal/carddeck"
	"github.com/hcorbin/acpcdealer/internal/gamedef"
	"github.com/hcorbin/acpcdealer/internal/rng"
)

// ActionType is one of the three legal action kinds.
type ActionType int

const (
	Fold ActionType = iota
	Call
	Raise
)

func (a ActionType) String() string {
	switch a {
	case Fold:
		return "f"
	case Call:
		return "c"
	case Raise:
		return "r"
	default:
		return "?"
	}
}

// Action is one betting decision. Size is only meaningful for a no-limit Raise,
// where it is the total raise-to target, not an increment.
type Action struct {
	Type ActionType
	Size int64
}

// State is the mutable betting state of one hand in progress.
type State struct {
	Def *gamedef.GameDef

	HandID int64
	Round  int

	HoleCards  [][]carddeck.Card // [player][cardIndex]
	BoardCards []carddeck.Card

	Actions [][]Action // Actions[round]

	Spent  []int64
	Folded []bool

	MaxSpent          int64
	MinNoLimitRaiseTo int64
	lastRaiseSize     int64
	raisesThisRound   int
	needsToAct        []bool

	ActingPlayer int
	Finished     bool

	fullBoard []carddeck.Card
}

// NewHand deals a fresh hand: builds and shuffles a deck with r, deals
// hole/board cards in the spec's fixed order, then posts blinds and opens
// the first round.
func NewHand(def *gamedef.GameDef, handID int64, r *rng.Rand) (*State, error) {
	deck := carddeck.NewForGame(def)
	deck.Shuffle(r)
	hole, board, err := carddeck.DealHoleAndBoard(deck, def)
	if err != nil {
		return nil, err
	}

	s := &State{
		Def:        def,
		HandID:     handID,
		HoleCards:  hole,
		BoardCards: board[:def.SumBoardCards(0)],
		Actions:    make([][]Action, def.NumRounds),
		Spent:      make([]int64, def.NumPlayers),
		Folded:     make([]bool, def.NumPlayers),
	}
	// stash the undealt tail of the board so later rounds can reveal it
	s.fullBoard = board

	for p := 0; p < def.NumPlayers; p++ {
		blind := def.Blind[p]
		if def.Stack[p] > 0 && blind > def.Stack[p] {
			blind = def.Stack[p]
		}
		s.Spent[p] = blind
		if blind > s.MaxSpent {
			s.MaxSpent = blind
		}
	}
	bigBlind := int64(0)
	for _, b := range def.Blind {
		if b > bigBlind {
			bigBlind = b
		}
	}
	s.lastRaiseSize = bigBlind
	s.MinNoLimitRaiseTo = s.MaxSpent + bigBlind

	s.openRound(0)
	s.checkHandFinished()
	if !s.Finished {
		if s.roundClosed() {
			// every seat is already all-in from blinds alone: deal straight
			// through to a round with a real actor, or to showdown.
			s.advanceRound()
		} else {
			s.ActingPlayer = s.firstActorOfRound(0)
		}
	}
	return s, nil
}

func (s *State) openRound(round int) {
	s.raisesThisRound = 0
	s.needsToAct = make([]bool, s.Def.NumPlayers)
	for p := 0; p < s.Def.NumPlayers; p++ {
		if !s.Folded[p] && !s.isAllIn(p) {
			s.needsToAct[p] = true
		}
	}
}

func (s *State) isAllIn(p int) bool {
	return s.Def.Stack[p] > 0 && s.Spent[p] >= s.Def.Stack[p]
}

func (s *State) firstActorOfRound(round int) int {
	first := s.Def.FirstPlayer[round] % s.Def.NumPlayers
	for i := 0; i < s.Def.NumPlayers; i++ {
		p := (first + i) % s.Def.NumPlayers
		if !s.Folded[p] && !s.isAllIn(p) {
			return p
		}
	}
	return first
}

func (s *State) nonFoldedCount() int {
	n := 0
	for _, f := range s.Folded {
		if !f {
			n++
		}
	}
	return n
}

func (s *State) roundClosed() bool {
	for p := 0; p < s.Def.NumPlayers; p++ {
		if !s.Folded[p] && !s.isAllIn(p) && s.needsToAct[p] {
			return false
		}
	}
	return true
}

func (s *State) checkHandFinished() {
	if s.nonFoldedCount() <= 1 {
		s.Finished = true
		return
	}
	if s.Round == s.Def.NumRounds-1 && s.roundClosed() {
		s.Finished = true
	}
}

// DoAction applies an action from the current acting player. Callers must
// validate the action first (see IsValidAction); DoAction trusts its input.
func (s *State) DoAction(a Action) error {
	if s.Finished {
		return fmt.Errorf("match: hand already finished")
	}
	p := s.ActingPlayer
	s.Actions[s.Round] = append(s.Actions[s.Round], a)

	switch a.Type {
	case Fold:
		s.Folded[p] = true
		s.needsToAct[p] = false

	case Call:
		target := s.MaxSpent
		if s.Def.Stack[p] > 0 && target > s.Def.Stack[p] {
			target = s.Def.Stack[p]
		}
		if target > s.Spent[p] {
			s.Spent[p] = target
		}
		s.needsToAct[p] = false

	case Raise:
		var target int64
		if s.Def.BettingType == gamedef.Limit {
			target = s.MaxSpent + s.Def.RaiseSize[s.Round]
		} else {
			target = a.Size
		}
		if s.Def.Stack[p] > 0 && target > s.Def.Stack[p] {
			target = s.Def.Stack[p]
		}
		increment := target - s.MaxSpent
		s.Spent[p] = target
		if target > s.MaxSpent {
			s.MaxSpent = target
		}
		if increment > 0 {
			s.lastRaiseSize = increment
		}
		s.raisesThisRound++
		minRaise := s.lastRaiseSize
		for _, b := range s.Def.Blind {
			if b > minRaise {
				minRaise = b
			}
		}
		s.MinNoLimitRaiseTo = s.MaxSpent + minRaise
		// everyone else who hasn't folded/gone all-in must act again
		for q := 0; q < s.Def.NumPlayers; q++ {
			if q != p && !s.Folded[q] && !s.isAllIn(q) {
				s.needsToAct[q] = true
			}
		}
		s.needsToAct[p] = false
	}

	s.checkHandFinished()
	if s.Finished {
		return nil
	}

	if s.roundClosed() {
		s.advanceRound()
	} else {
		s.ActingPlayer = s.nextActor(p)
	}
	return nil
}

func (s *State) nextActor(from int) int {
	for i := 1; i <= s.Def.NumPlayers; i++ {
		p := (from + i) % s.Def.NumPlayers
		if !s.Folded[p] && !s.isAllIn(p) && s.needsToAct[p] {
			return p
		}
	}
	return from
}

// advanceRound opens the next round and, if every remaining contender is
// already all-in (no one left who can act), keeps dealing board cards and
// opening further rounds without waiting for a response — matching the
// reference dealer's behavior once a hand is capped before the river. It
// stops at the first round with a real actor, or marks the hand Finished
// once the final round closes with everyone still all-in.
func (s *State) advanceRound() {
	for {
		s.Round++
		if s.Round >= s.Def.NumRounds {
			s.Finished = true
			return
		}
		s.BoardCards = s.fullBoard[:s.Def.SumBoardCards(s.Round)]
		s.openRound(s.Round)
		s.checkHandFinished()
		if s.Finished {
			return
		}
		if !s.roundClosed() {
			s.ActingPlayer = s.firstActorOfRound(s.Round)
			return
		}
	}
}

// NumRaisesThisRound exposes the raise counter for the validator.
func (s *State) NumRaisesThisRound() int { return s.raisesThisRound }

// LastRaiseSize exposes the most recent raise increment for the validator.
func (s *State) LastRaiseSize() int64 { return s.lastRaiseSize }
